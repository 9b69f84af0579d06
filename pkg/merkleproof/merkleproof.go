// Package merkleproof decodes MerkleProof2019 proof values: a base58btc multibase
// string wrapping a CBOR structure with the merkle root, path and anchors.
//
// The merkle root is taken as embedded. The path is decoded when present but the
// root is not recomputed from it; the on-chain check corroborates the root instead.
package merkleproof

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/multiformats/go-multibase"
)

var (
	ErrUnsupportedEncoding = errors.New("unsupported proof encoding")
	ErrMalformedProof      = errors.New("malformed proof")
	ErrNoAnchor            = errors.New("proof has no anchor")
)

const (
	base58Prefix = 'z'
	digestLength = 32
	anchorSep    = "::"
)

var decMode = mustDecMode()

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

type PathNode struct {
	Side string `json:"side"`
	Hash string `json:"hash"`
}

// Proof is the logical content of a decoded proof value.
type Proof struct {
	MerkleRoot string     `json:"merkleRoot"`
	TargetHash string     `json:"targetHash,omitempty"`
	Path       []PathNode `json:"path,omitempty"`
	Anchors    []string   `json:"anchors"`
}

// TransactionID returns the bare transaction id of the first anchor.
func (p *Proof) TransactionID() (string, error) {
	if len(p.Anchors) == 0 {
		return "", ErrNoAnchor
	}
	return ParseAnchor(p.Anchors[0])
}

// ParseAnchor strips the namespace from an anchor reference and returns the transaction id.
// Both "blink::eth::0xabc" and "blink:eth:bloxberg:0xabc" yield "0xabc".
func ParseAnchor(anchor string) (string, error) {
	rest := anchor
	if i := strings.LastIndex(anchor, anchorSep); i >= 0 {
		rest = anchor[i+len(anchorSep):]
	}
	parts := strings.Split(rest, ":")
	txid := strings.TrimSpace(parts[len(parts)-1])
	if txid == "" {
		return "", fmt.Errorf("%w: anchor %q has no transaction id", ErrMalformedProof, anchor)
	}
	return txid, nil
}

// Decode decodes a multibase encoded MerkleProof2019 proof value.
func Decode(proofValue string) (*Proof, error) {
	if proofValue == "" || proofValue[0] != base58Prefix {
		return nil, fmt.Errorf("%w: expected base58btc multibase prefix %q", ErrUnsupportedEncoding, base58Prefix)
	}

	_, data, err := multibase.Decode(proofValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}

	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProof, err)
	}

	fields, err := collectFields(raw)
	if err != nil {
		return nil, err
	}

	proof := &Proof{}

	root, ok := fields[keyMerkleRoot]
	if !ok {
		return nil, fmt.Errorf("%w: merkleRoot is missing", ErrMalformedProof)
	}
	if proof.MerkleRoot, ok = digestHex(root); !ok {
		return nil, fmt.Errorf("%w: merkleRoot is not a %d byte digest", ErrMalformedProof, digestLength)
	}

	if target, ok := fields[keyTargetHash]; ok {
		proof.TargetHash, _ = digestHex(target)
	}
	if path, ok := fields[keyPath]; ok {
		proof.Path = decodePath(path)
	}

	anchors, ok := fields[keyAnchors]
	if !ok {
		return nil, ErrNoAnchor
	}
	if proof.Anchors, err = decodeAnchors(anchors); err != nil {
		return nil, err
	}
	if len(proof.Anchors) == 0 {
		return nil, ErrNoAnchor
	}

	return proof, nil
}

// collectFields accepts a map keyed by field id or name, or a list of [key, value] pairs.
func collectFields(raw any) (map[uint64]any, error) {
	fields := map[uint64]any{}
	add := func(k, v any) error {
		id, ok := fieldKey(k)
		if !ok {
			return nil
		}
		if _, dup := fields[id]; dup {
			return fmt.Errorf("%w: duplicate field %s", ErrMalformedProof, fieldNames[id])
		}
		fields[id] = v
		return nil
	}

	switch v := raw.(type) {
	case map[any]any:
		for k, val := range v {
			if err := add(k, val); err != nil {
				return nil, err
			}
		}
	case []any:
		for i, item := range v {
			pair, ok := item.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("%w: entry %d is not a key/value pair", ErrMalformedProof, i)
			}
			if err := add(pair[0], pair[1]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: unexpected top level %T", ErrMalformedProof, raw)
	}
	return fields, nil
}

func fieldKey(k any) (uint64, bool) {
	switch key := k.(type) {
	case uint64:
		_, ok := fieldNames[key]
		return key, ok
	case string:
		return fieldID(key)
	}
	return 0, false
}

func digestHex(v any) (string, bool) {
	switch d := v.(type) {
	case []byte:
		if len(d) != digestLength {
			return "", false
		}
		return hex.EncodeToString(d), true
	case string:
		b, err := hex.DecodeString(strings.TrimPrefix(d, "0x"))
		if err != nil || len(b) != digestLength {
			return "", false
		}
		return hex.EncodeToString(b), true
	}
	return "", false
}

// decodePath is best effort: malformed nodes are skipped.
func decodePath(v any) []PathNode {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	var nodes []PathNode
	for _, item := range items {
		var side, hash any
		switch n := item.(type) {
		case []any:
			if len(n) != 2 {
				continue
			}
			side, hash = n[0], n[1]
		case map[any]any:
			if len(n) != 1 {
				continue
			}
			for k, val := range n {
				side, hash = k, val
			}
		default:
			continue
		}

		name, ok := sideName(side)
		if !ok {
			continue
		}
		h, ok := digestHex(hash)
		if !ok {
			continue
		}
		nodes = append(nodes, PathNode{Side: name, Hash: h})
	}
	return nodes
}

func sideName(v any) (string, bool) {
	switch s := v.(type) {
	case uint64:
		name, ok := sideNames[s]
		return name, ok
	case string:
		_, ok := sideID(s)
		return s, ok
	}
	return "", false
}

func decodeAnchors(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: anchors is %T, not a list", ErrMalformedProof, v)
	}

	anchors := make([]string, 0, len(items))
	for i, item := range items {
		switch a := item.(type) {
		case string:
			anchors = append(anchors, a)
		case []any:
			s, err := compactAnchor(a)
			if err != nil {
				return nil, fmt.Errorf("anchor %d: %w", i, err)
			}
			anchors = append(anchors, s)
		default:
			return nil, fmt.Errorf("%w: anchor %d is %T", ErrMalformedProof, i, item)
		}
	}
	return anchors, nil
}

// compactAnchor renders a [chain, network, tx] triple as a blink reference.
func compactAnchor(a []any) (string, error) {
	if len(a) != 3 {
		return "", fmt.Errorf("%w: compact anchor has %d elements", ErrMalformedProof, len(a))
	}
	chainID, ok := a[0].(uint64)
	if !ok {
		return "", fmt.Errorf("%w: chain id is %T", ErrMalformedProof, a[0])
	}
	c, ok := chains[chainID]
	if !ok {
		return "", fmt.Errorf("%w: unknown chain id %d", ErrMalformedProof, chainID)
	}
	networkID, ok := a[1].(uint64)
	if !ok {
		return "", fmt.Errorf("%w: network id is %T", ErrMalformedProof, a[1])
	}
	network, ok := c.networks[networkID]
	if !ok {
		network = strconv.FormatUint(networkID, 10)
	}

	var tx string
	switch t := a[2].(type) {
	case []byte:
		if len(t) == 0 {
			return "", fmt.Errorf("%w: empty transaction id", ErrMalformedProof)
		}
		tx = hex.EncodeToString(t)
		if c.hexPrefix {
			tx = "0x" + tx
		}
	case string:
		if t == "" {
			return "", fmt.Errorf("%w: empty transaction id", ErrMalformedProof)
		}
		tx = t
	default:
		return "", fmt.Errorf("%w: transaction id is %T", ErrMalformedProof, a[2])
	}

	return fmt.Sprintf("blink:%s:%s:%s", c.name, network, tx), nil
}

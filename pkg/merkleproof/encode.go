package merkleproof

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/multiformats/go-multibase"
)

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// Encode produces the compact proof value for p: a list of [field id, value] pairs,
// CBOR encoded and wrapped in base58btc multibase.
// Anchors in "blink:<chain>:<network>:<tx>" form are packed as [chain, network, tx] triples.
func Encode(p *Proof) (string, error) {
	root, err := digestBytes(p.MerkleRoot)
	if err != nil {
		return "", fmt.Errorf("merkleRoot: %w", err)
	}

	var pairs []any

	if len(p.Path) > 0 {
		path := make([]any, 0, len(p.Path))
		for i, n := range p.Path {
			side, ok := sideID(n.Side)
			if !ok {
				return "", fmt.Errorf("path %d: unknown side %q", i, n.Side)
			}
			h, err := digestBytes(n.Hash)
			if err != nil {
				return "", fmt.Errorf("path %d: %w", i, err)
			}
			path = append(path, []any{side, h})
		}
		pairs = append(pairs, []any{keyPath, path})
	}

	pairs = append(pairs, []any{keyMerkleRoot, root})

	if p.TargetHash != "" {
		target, err := digestBytes(p.TargetHash)
		if err != nil {
			return "", fmt.Errorf("targetHash: %w", err)
		}
		pairs = append(pairs, []any{keyTargetHash, target})
	}

	anchors := make([]any, 0, len(p.Anchors))
	for _, a := range p.Anchors {
		if compact, ok := packAnchor(a); ok {
			anchors = append(anchors, compact)
			continue
		}
		anchors = append(anchors, a)
	}
	pairs = append(pairs, []any{keyAnchors, anchors})

	data, err := encMode.Marshal(pairs)
	if err != nil {
		return "", err
	}
	return multibase.Encode(multibase.Base58BTC, data)
}

func digestBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, err
	}
	if len(b) != digestLength {
		return nil, fmt.Errorf("expected %d bytes, got %d", digestLength, len(b))
	}
	return b, nil
}

func packAnchor(anchor string) ([]any, bool) {
	parts := strings.Split(anchor, ":")
	if len(parts) != 4 || parts[0] != "blink" {
		return nil, false
	}

	chainID, c, ok := chainByName(parts[1])
	if !ok {
		return nil, false
	}
	networkID, ok := c.networkID(parts[2])
	if !ok {
		n, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return nil, false
		}
		networkID = n
	}

	txHex := parts[3]
	if c.hexPrefix {
		if !strings.HasPrefix(txHex, "0x") {
			return nil, false
		}
		txHex = txHex[2:]
	}
	tx, err := hex.DecodeString(txHex)
	if err != nil || len(tx) == 0 {
		return nil, false
	}
	// only pack when decoding gives back the same text
	if hex.EncodeToString(tx) != txHex {
		return nil, false
	}

	return []any{chainID, networkID, tx}, true
}

// Package fixtures builds self-consistent bloxberg certificates and chain state
// for tests. Certificates use an inline @context so canonicalization never
// touches the network.
package fixtures

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tnaegele/bloxberg-verify/pkg/canonicalize"
	"github.com/tnaegele/bloxberg-verify/pkg/chain"
	"github.com/tnaegele/bloxberg-verify/pkg/digest"
	"github.com/tnaegele/bloxberg-verify/pkg/document"
	"github.com/tnaegele/bloxberg-verify/pkg/merkleproof"
)

const (
	Crid          = "0e4ded5319861c8daac00d425c53a16bd180a7d01a340a0e00f7dede40d2c9f6"
	TransactionID = "0x51f9a4c0e1d2b3a4958677aa1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e"
	Recipient     = "0xD748BF41264b906093460923169643f45BDbC32e"

	BlockNumber uint64 = 4_000_000
	Head        uint64 = BlockNumber + 5
	// BlockTime is 2024-02-01 12:30:15 UTC
	BlockTime uint64 = 1706790615

	bloxbergSchema = "https://w3id.org/bloxberg/schema/research_object_certificate_v1#"
)

// Certificate returns an unsealed certificate for crid.
func Certificate(crid string) document.Document {
	return newCertificate(crid, true)
}

// CertificateWithoutCridTerm returns a certificate whose @context does not map
// `crid`, so the file hash drops out of the canonical form.
func CertificateWithoutCridTerm(crid string) document.Document {
	return newCertificate(crid, false)
}

func newCertificate(crid string, mapCrid bool) document.Document {
	ctx := map[string]any{
		"id":                   "@id",
		"type":                 "@type",
		"VerifiableCredential": "https://www.w3.org/2018/credentials#VerifiableCredential",
		"issuer":               map[string]any{"@id": "https://www.w3.org/2018/credentials#issuer", "@type": "@id"},
		"issuanceDate": map[string]any{
			"@id":   "https://www.w3.org/2018/credentials#issuanceDate",
			"@type": "http://www.w3.org/2001/XMLSchema#dateTime",
		},
		"metadataJson": bloxbergSchema + "metadataJson",
		"name":         "http://schema.org/name",
	}
	if mapCrid {
		ctx["crid"] = bloxbergSchema + "crid"
	}

	return document.Document{
		"@context":     ctx,
		"id":           "https://bloxberg.org/certificates/6d9f1b4e",
		"type":         []any{"VerifiableCredential"},
		"issuer":       "https://bloxberg.org",
		"issuanceDate": "2024-02-01T12:30:10+00:00",
		"name":         "Research object certificate",
		"crid":         crid,
		"metadataJson": `{"authorName":"Jane Doe","researchTitle":"Measurements"}`,
	}
}

// Seal attaches a MerkleProof2019 proof anchoring the canonical digest of doc in txid.
// It returns the sealed copy and the digest.
func Seal(doc document.Document, txid string) (document.Document, string, error) {
	nquads, err := canonicalize.Canonicalize(map[string]any(doc))
	if err != nil {
		return nil, "", err
	}
	root := digest.Sum(nquads)

	proofValue, err := merkleproof.Encode(&merkleproof.Proof{
		MerkleRoot: root,
		TargetHash: root,
		Anchors:    []string{"blink:eth:bloxberg:" + txid},
	})
	if err != nil {
		return nil, "", err
	}

	sealed := make(document.Document, len(doc)+1)
	for k, v := range doc {
		sealed[k] = v
	}
	sealed["proof"] = map[string]any{
		"type":               "MerkleProof2019",
		"created":            "2024-02-01T12:30:15.000000",
		"proofPurpose":       "assertionMethod",
		"verificationMethod": "ecdsa-koblitz-pubkey:" + Recipient,
		"proofValue":         proofValue,
	}
	return sealed, root, nil
}

// SealedCertificate is Seal(Certificate(Crid), TransactionID).
func SealedCertificate() (document.Document, string, error) {
	return Seal(Certificate(Crid), TransactionID)
}

// CreateCertificateInput packs a createCertificate call recording digest.
func CreateCertificateInput(digest string) ([]byte, error) {
	contract, err := chain.DefaultContract()
	if err != nil {
		return nil, err
	}
	return contract.ABI.Pack("createCertificate", common.HexToAddress(Recipient), "https://bloxberg.org/certificates/6d9f1b4e", digest)
}

// Chain returns a mock ledger where txid recorded digest in BlockNumber.
func Chain(txid, digest string) (*chain.MockClient, error) {
	input, err := CreateCertificateInput(digest)
	if err != nil {
		return nil, fmt.Errorf("packing certificate call: %w", err)
	}
	m := chain.NewMockClient().WithTransaction(&chain.Transaction{
		Hash:        txid,
		To:          chain.DefaultContractAddress,
		BlockNumber: BlockNumber,
		Input:       input,
	}, BlockTime)
	m.Head = Head
	return m, nil
}

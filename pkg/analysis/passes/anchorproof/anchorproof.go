package anchorproof

import (
	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/canonical"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/proofsection"
	"github.com/tnaegele/bloxberg-verify/pkg/merkleproof"
)

var invalidProof = &analysis.Rule{Name: "invalid-proof", Severity: analysis.Error}

var Analyzer = &analysis.Analyzer{
	Name:     "anchorproof",
	Requires: []*analysis.Analyzer{proofsection.Analyzer, canonical.Analyzer},
	Run:      run,
	Rules:    []*analysis.Rule{invalidProof},
	ReadmeInfo: analysis.ReadmeInfo{
		Name:        "Anchor Proof",
		Description: "Decodes the MerkleProof2019 `proofValue` and reads the embedded merkle root and the transaction id of the first anchor.",
	},
}

type Result struct {
	Proof         *merkleproof.Proof
	MerkleRoot    string
	TransactionID string
}

func run(pass *analysis.Pass) (interface{}, error) {
	section, ok := pass.ResultOf[proofsection.Analyzer].(*proofsection.Result)
	if !ok {
		return nil, nil
	}
	if _, ok := pass.ResultOf[canonical.Analyzer].(*canonical.Result); !ok {
		return nil, nil
	}

	proof, err := merkleproof.Decode(section.Section.ProofValue)
	if err != nil {
		reportInvalid(pass, err)
		return nil, err
	}

	txid, err := proof.TransactionID()
	if err != nil {
		reportInvalid(pass, err)
		return nil, err
	}

	return &Result{
		Proof:         proof,
		MerkleRoot:    proof.MerkleRoot,
		TransactionID: txid,
	}, nil
}

func reportInvalid(pass *analysis.Pass, err error) {
	pass.ReportResult(
		pass.AnalyzerName,
		invalidProof,
		err.Error(),
		"The proofValue must be a base58btc (z prefixed) CBOR encoded MerkleProof2019 with a merkle root and at least one anchor.",
	)
}

package integrity

import (
	"fmt"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/anchorproof"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/canonical"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/embedding"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/proofsection"
)

var digestMismatch = &analysis.Rule{Name: "digest-mismatch", Severity: analysis.Error, Verdict: true}

var Analyzer = &analysis.Analyzer{
	Name: "integrity",
	Requires: []*analysis.Analyzer{
		embedding.Analyzer,
		canonical.Analyzer,
		anchorproof.Analyzer,
	},
	Run:   run,
	Rules: []*analysis.Rule{digestMismatch},
	ReadmeInfo: analysis.ReadmeInfo{
		Name:        "File Integrity",
		Description: "Check file integrity, i.e. if the merkle root hash encoded in this file is identical to the calculated hash of this file.",
	},
}

// run returns the verified digest, or nil when the certificate was tampered with.
func run(pass *analysis.Pass) (interface{}, error) {
	if embedded, ok := pass.ResultOf[embedding.Analyzer].(bool); !ok || !embedded {
		return nil, nil
	}
	canonicalForm, ok := pass.ResultOf[canonical.Analyzer].(*canonical.Result)
	if !ok {
		return nil, nil
	}
	anchor, ok := pass.ResultOf[anchorproof.Analyzer].(*anchorproof.Result)
	if !ok {
		return nil, nil
	}

	if canonicalForm.Digest != anchor.MerkleRoot {
		pass.ReportResult(
			pass.AnalyzerName,
			digestMismatch,
			"Error: calculated file hash is not identical to extracted file hash. The json proof file has been tampered.",
			fmt.Sprintf("Calculated hash: %s\nMerkle root in proof: %s", canonicalForm.Digest, anchor.MerkleRoot),
		)
		return nil, nil
	}

	crid := ""
	if section, ok := pass.ResultOf[proofsection.Analyzer].(*proofsection.Result); ok {
		crid = section.Crid
	}
	pass.ReportOK(
		pass.AnalyzerName,
		digestMismatch,
		"Merkle root in the proof matches the calculated hash",
		fmt.Sprintf("Original file hash: %s\nMerkle root: %s\nTransaction id: %s", crid, canonicalForm.Digest, anchor.TransactionID),
	)
	return canonicalForm.Digest, nil
}

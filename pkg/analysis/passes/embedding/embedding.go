package embedding

import (
	"bytes"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/anchorproof"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/canonical"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/proofsection"
)

var fileHashNotEmbedded = &analysis.Rule{Name: "file-hash-not-embedded", Severity: analysis.Error, Verdict: true}

var Analyzer = &analysis.Analyzer{
	Name: "embedding",
	Requires: []*analysis.Analyzer{
		proofsection.Analyzer,
		canonical.Analyzer,
		anchorproof.Analyzer,
	},
	Run:   run,
	Rules: []*analysis.Rule{fileHashNotEmbedded},
	ReadmeInfo: analysis.ReadmeInfo{
		Name:        "File Hash Embedding",
		Description: "Check that document hash is contained in normalised proof",
	},
}

// run guards against normalization silently dropping the file hash: such a proof
// verifies internally but no longer attests to the original file.
func run(pass *analysis.Pass) (interface{}, error) {
	section, ok := pass.ResultOf[proofsection.Analyzer].(*proofsection.Result)
	if !ok {
		return nil, nil
	}
	canonicalForm, ok := pass.ResultOf[canonical.Analyzer].(*canonical.Result)
	if !ok {
		return nil, nil
	}
	if _, ok := pass.ResultOf[anchorproof.Analyzer].(*anchorproof.Result); !ok {
		return nil, nil
	}

	if !bytes.Contains(canonicalForm.NQuads, []byte(section.Crid)) {
		pass.ReportResult(
			pass.AnalyzerName,
			fileHashNotEmbedded,
			"Fatal error: document hash gets lost when normalising json. document hash not embedded in blockchain!",
			"The crid "+section.Crid+" does not appear in the canonical form of the certificate, so the anchored merkle root does not attest to the original file.",
		)
		return nil, nil
	}

	pass.ReportOK(pass.AnalyzerName, fileHashNotEmbedded, "Document hash is contained in the normalised proof", "")
	return true, nil
}

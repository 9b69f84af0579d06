package proofsection

import (
	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/document"
)

var missingField = &analysis.Rule{Name: "missing-field", Severity: analysis.Error}

var Analyzer = &analysis.Analyzer{
	Name:  "proofsection",
	Run:   run,
	Rules: []*analysis.Rule{missingField},
	ReadmeInfo: analysis.ReadmeInfo{
		Name:        "Proof Section",
		Description: "Captures the `proof` section and the original file hash (`crid`) before the certificate is canonicalized.",
	},
}

// Result is the certificate split into its proof and the remaining credential.
type Result struct {
	Crid      string
	Section   *document.ProofSection
	Remainder document.Document
}

func run(pass *analysis.Pass) (interface{}, error) {
	section, remainder, err := document.Split(pass.CheckParams.Document)
	if err != nil {
		pass.ReportResult(
			pass.AnalyzerName,
			missingField,
			err.Error(),
			"A bloxberg certificate needs a `crid` and a `proof` object with a `proofValue`. Make sure you pass the bloxbergJSONCertificate.json attached to the proof PDF.",
		)
		return nil, err
	}

	return &Result{
		Crid:      pass.CheckParams.Document.Crid(),
		Section:   section,
		Remainder: remainder,
	}, nil
}

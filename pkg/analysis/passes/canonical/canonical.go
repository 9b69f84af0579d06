package canonical

import (
	"errors"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/proofsection"
	"github.com/tnaegele/bloxberg-verify/pkg/digest"
	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

var canonicalizationFailed = &analysis.Rule{Name: "canonicalization-failed", Severity: analysis.Error}

var Analyzer = &analysis.Analyzer{
	Name:     "canonical",
	Requires: []*analysis.Analyzer{proofsection.Analyzer},
	Run:      run,
	Rules:    []*analysis.Rule{canonicalizationFailed},
	ReadmeInfo: analysis.ReadmeInfo{
		Name:        "Canonical Form",
		Description: "Normalizes the certificate without its proof with URDNA2015 and hashes the N-Quads with SHA-256.",
	},
}

type Result struct {
	NQuads []byte
	Digest string
	// CID is the content identifier of NQuads, informational only
	CID string
}

func run(pass *analysis.Pass) (interface{}, error) {
	section, ok := pass.ResultOf[proofsection.Analyzer].(*proofsection.Result)
	if !ok {
		return nil, nil
	}

	if pass.CheckParams.Canonicalizer == nil {
		return nil, errors.New("no canonicalizer configured")
	}

	nquads, err := pass.CheckParams.Canonicalizer.Canonicalize(map[string]any(section.Remainder))
	if err != nil {
		pass.ReportResult(
			pass.AnalyzerName,
			canonicalizationFailed,
			err.Error(),
			"The certificate could not be normalized as JSON-LD. Check that every @context can be resolved and the document is valid JSON-LD.",
		)
		return nil, err
	}

	cid, err := digest.CID(nquads)
	if err != nil {
		logme.DebugFln("could not compute CID of canonical form: %s", err)
	}

	return &Result{
		NQuads: nquads,
		Digest: digest.Sum(nquads),
		CID:    cid,
	}, nil
}

package passes

import (
	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/anchorproof"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/canonical"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/embedding"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/integrity"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/onchain"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/proofsection"
)

// Analyzers in the order their checks are reported.
var Analyzers = []*analysis.Analyzer{
	proofsection.Analyzer,
	canonical.Analyzer,
	anchorproof.Analyzer,
	embedding.Analyzer,
	integrity.Analyzer,
	onchain.Analyzer,
}

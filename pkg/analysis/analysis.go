package analysis

import (
	"context"
	"fmt"

	"github.com/tnaegele/bloxberg-verify/pkg/chain"
	"github.com/tnaegele/bloxberg-verify/pkg/document"
	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

type Severity string

var (
	Error   Severity = "error"
	Warning Severity = "warning"
	OK      Severity = "ok"
)

type Pass struct {
	AnalyzerName string
	Context      context.Context
	CheckParams  CheckParams
	ResultOf     map[*Analyzer]any
	Report       func(string, Diagnostic)
	Diagnostics  *Diagnostics
	// Rules holds the settings resolved for this run. Rules missing from it
	// behave as declared.
	Rules map[*Rule]RuleSettings
}

// Canonicalizer turns a JSON-LD document into its canonical N-Quads.
type Canonicalizer interface {
	Canonicalize(doc map[string]any) ([]byte, error)
}

// ChainVerifier reads what the ledger recorded for a transaction.
type ChainVerifier interface {
	Verify(ctx context.Context, txid string) (*chain.Facts, error)
}

type CheckParams struct {
	// DocumentRef is the path or url the certificate was loaded from
	DocumentRef string
	// Document is the parsed certificate, it is never modified by analyzers
	Document document.Document
	Canonicalizer Canonicalizer
	// Chain is only consulted once the local digests agree
	Chain ChainVerifier
}

// Ctx returns the pass context, or a background context when none was set.
func (p *Pass) Ctx() context.Context {
	if p.Context == nil {
		return context.Background()
	}
	return p.Context
}

// RuleSettings returns how rule behaves in this pass.
func (p *Pass) RuleSettings(rule *Rule) RuleSettings {
	if s, ok := p.Rules[rule]; ok {
		return s
	}
	return RuleSettings{
		Disabled:  rule.Disabled,
		Severity:  rule.Severity,
		ReportAll: rule.ReportAll,
	}
}

func (p *Pass) ReportResult(analysisName string, rule *Rule, message string, detail string) {
	settings := p.RuleSettings(rule)
	p.report(analysisName, rule, settings, settings.Severity, message, detail)
}

// ReportOK reports a passed check. It is a no-op unless ReportAll is set for the rule.
func (p *Pass) ReportOK(analysisName string, rule *Rule, message string, detail string) {
	settings := p.RuleSettings(rule)
	if !settings.ReportAll {
		return
	}
	p.report(analysisName, rule, settings, OK, message, detail)
}

func (p *Pass) report(analysisName string, rule *Rule, settings RuleSettings, severity Severity, message string, detail string) {
	if settings.Disabled {
		logme.Debugln(fmt.Sprintf("Rule %s is disabled. Skipping report.", rule.Name))
		return
	}

	if p.Report == nil {
		panic("Report function is not set")
	}

	p.Report(analysisName, Diagnostic{
		Name:     rule.Name,
		Severity: severity,
		Title:    message,
		Detail:   detail,
	})
}

// GetAnalyzerDiagnostics returns all diagnostics reported by the given analyzer.
func (p *Pass) GetAnalyzerDiagnostics(a *Analyzer) []Diagnostic {
	if p.Diagnostics == nil || a == nil {
		return nil
	}
	return (*p.Diagnostics)[a.Name]
}

// AnalyzerHasErrors returns true if the given analyzer reported any diagnostics with Error severity.
func (p *Pass) AnalyzerHasErrors(a *Analyzer) bool {
	for _, d := range p.GetAnalyzerDiagnostics(a) {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

type Diagnostic struct {
	Severity Severity
	Title    string
	Detail   string
	Context  string `json:"Context,omitempty"`
	Name     string
}

type Diagnostics map[string][]Diagnostic

// Results holds what each analyzer returned, keyed by analyzer.
type Results map[*Analyzer]any

// Rule is declared once per analyzer and never modified by a run.
type Rule struct {
	Name      string
	Disabled  bool
	Severity  Severity
	ReportAll bool
	// Verdict rules report the outcome of a check. Configuration can neither
	// disable nor downgrade them.
	Verdict bool
}

type RuleSettings struct {
	Disabled  bool
	Severity  Severity
	ReportAll bool
}

type Analyzer struct {
	Name       string
	Requires   []*Analyzer
	Run        func(pass *Pass) (interface{}, error)
	Rules      []*Rule
	ReadmeInfo ReadmeInfo
}

type ReadmeInfo struct {
	Name         string
	Description  string
	Dependencies string
}

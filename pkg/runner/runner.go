package runner

import (
	"context"
	"fmt"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

var defaultSeverity = analysis.Warning

// AnalyzerError is returned when an analyzer aborts the run.
type AnalyzerError struct {
	Analyzer string
	Err      error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Analyzer, e.Err)
}

func (e *AnalyzerError) Unwrap() error {
	return e.Err
}

// Check runs analyzers and their dependencies once each, dependencies first.
// The first analyzer error stops the run; the diagnostics and results gathered
// so far are returned with it.
func Check(
	ctx context.Context,
	analyzers []*analysis.Analyzer,
	params analysis.CheckParams,
	cfg Config,
) (analysis.Diagnostics, analysis.Results, error) {
	diagnostics := make(analysis.Diagnostics)
	results := make(analysis.Results)

	pass := &analysis.Pass{
		Context:     ctx,
		CheckParams: params,
		ResultOf:    results,
		Report: func(analyzerName string, d analysis.Diagnostic) {
			diagnostics[analyzerName] = append(diagnostics[analyzerName], d)
		},
		Diagnostics: &diagnostics,
		Rules:       resolveRules(analyzers, &cfg),
	}

	seen := make(map[*analysis.Analyzer]bool)

	var runFn func(currentAnalyzer *analysis.Analyzer) error

	runFn = func(currentAnalyzer *analysis.Analyzer) error {
		// do not run the same analyzer twice
		if _, ok := seen[currentAnalyzer]; ok {
			return nil
		}

		seen[currentAnalyzer] = true

		// run all the dependencies of the analyzer
		for _, dep := range currentAnalyzer.Requires {
			if err := runFn(dep); err != nil {
				return err
			}
		}

		logme.DebugFln("Running analyzer %s", currentAnalyzer.Name)

		pass.AnalyzerName = currentAnalyzer.Name
		res, err := currentAnalyzer.Run(pass)
		if err != nil {
			return &AnalyzerError{Analyzer: currentAnalyzer.Name, Err: err}
		}
		pass.ResultOf[currentAnalyzer] = res

		return nil
	}

	for _, a := range analyzers {
		if err := runFn(a); err != nil {
			// on an error we still return the diagnostics we have so far
			return diagnostics, results, err
		}
	}

	return diagnostics, results, nil
}

// resolveRules computes the settings of every rule of analyzers and their
// dependencies for one run. Declared rules are left untouched.
func resolveRules(analyzers []*analysis.Analyzer, cfg *Config) map[*analysis.Rule]analysis.RuleSettings {
	settings := make(map[*analysis.Rule]analysis.RuleSettings)
	seen := make(map[*analysis.Analyzer]bool)

	var resolve func(currentAnalyzer *analysis.Analyzer)
	resolve = func(currentAnalyzer *analysis.Analyzer) {
		if seen[currentAnalyzer] {
			return
		}
		seen[currentAnalyzer] = true
		for _, dep := range currentAnalyzer.Requires {
			resolve(dep)
		}

		// Inherit global config file
		analyzerEnabled := cfg.Global.Enabled
		analyzerSeverity := cfg.Global.Severity

		// default to hardcoded defaultSeverity if not set
		if analyzerSeverity == "" {
			analyzerSeverity = defaultSeverity
		}

		// Override via config file
		analyzerConfig, ok := cfg.Analyzers[currentAnalyzer.Name]
		if ok {
			if analyzerConfig.Enabled != nil {
				analyzerEnabled = *analyzerConfig.Enabled
			}
			if analyzerConfig.Severity != nil {
				analyzerSeverity = *analyzerConfig.Severity
			}
		}

		for _, currentRule := range currentAnalyzer.Rules {
			// Inherit analyzer config
			ruleEnabled := analyzerEnabled

			// use own config if available
			ruleSeverity := currentRule.Severity
			if ruleSeverity == "" {
				ruleSeverity = analyzerSeverity
			}

			// overwrite via config file
			ruleConfig, ok := analyzerConfig.Rules[currentRule.Name]
			if ok {
				if ruleConfig.Enabled != nil {
					ruleEnabled = *ruleConfig.Enabled
				}
				if ruleConfig.Severity != nil {
					ruleSeverity = *ruleConfig.Severity
				}
			}

			if currentRule.Verdict && (!ruleEnabled || ruleSeverity != currentRule.Severity) {
				logme.DebugFln("Rule %s decides the outcome, ignoring its configuration", currentRule.Name)
				ruleEnabled = true
				ruleSeverity = currentRule.Severity
			}

			settings[currentRule] = analysis.RuleSettings{
				Disabled:  !ruleEnabled,
				Severity:  ruleSeverity,
				ReportAll: cfg.Global.ReportAll,
			}
		}
	}

	for _, a := range analyzers {
		resolve(a)
	}
	return settings
}

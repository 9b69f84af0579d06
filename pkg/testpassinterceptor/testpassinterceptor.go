package testpassinterceptor

import (
	"context"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
)

// TestPassInterceptor collects what analyzers report during a test.
type TestPassInterceptor struct {
	Diagnostics []*analysis.Diagnostic
	Analyzers   []string
}

func (t *TestPassInterceptor) ReportInterceptor() func(string, analysis.Diagnostic) {
	return func(analyzerName string, diagnostic analysis.Diagnostic) {
		t.Analyzers = append(t.Analyzers, analyzerName)
		t.Diagnostics = append(t.Diagnostics, &diagnostic)
	}
}

// NewPass returns a pass wired to the interceptor with the given prerequisite results.
func (t *TestPassInterceptor) NewPass(
	name string,
	params analysis.CheckParams,
	results map[*analysis.Analyzer]any,
) *analysis.Pass {
	if results == nil {
		results = map[*analysis.Analyzer]any{}
	}
	return &analysis.Pass{
		AnalyzerName: name,
		Context:      context.Background(),
		CheckParams:  params,
		ResultOf:     results,
		Report:       t.ReportInterceptor(),
	}
}

// Titles returns the titles of the collected diagnostics in report order.
func (t *TestPassInterceptor) Titles() []string {
	titles := make([]string, 0, len(t.Diagnostics))
	for _, d := range t.Diagnostics {
		titles = append(titles, d.Title)
	}
	return titles
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/anchorproof"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/canonical"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/embedding"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/integrity"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/onchain"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/proofsection"
	"github.com/tnaegele/bloxberg-verify/pkg/canonicalize"
	"github.com/tnaegele/bloxberg-verify/pkg/chain"
	"github.com/tnaegele/bloxberg-verify/pkg/chain/ethrpc"
	"github.com/tnaegele/bloxberg-verify/pkg/document"
	"github.com/tnaegele/bloxberg-verify/pkg/logme"
	"github.com/tnaegele/bloxberg-verify/pkg/runner"
)

// ErrLoad wraps the errors of reading the certificate itself.
var ErrLoad = errors.New("couldn't load certificate")

type Params struct {
	// DocumentURI is a local path or an http(s) url
	DocumentURI string
	// Document skips loading DocumentURI when set
	Document document.Document
	Config   *runner.Config
	// Chain defaults to a JSON-RPC client for Config.Chain.Endpoint
	Chain chain.Client
}

// Verify runs every check on one certificate and assembles the report.
// A report is returned even when err is not nil; it then ends in StateFailed.
func Verify(ctx context.Context, params Params) (*Report, error) {
	report := &Report{
		RunID:    uuid.NewString(),
		Document: params.DocumentURI,
		State:    StateStart,
		Reached:  StateStart,
	}

	if params.Config == nil {
		cfg := runner.DefaultConfig()
		params.Config = &cfg
	}
	cfg := params.Config

	doc := params.Document
	if doc == nil {
		var err error
		doc, err = document.Load(params.DocumentURI)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrLoad, err)
			return report.fail(err), err
		}
	}

	httpClient := &http.Client{Timeout: cfg.Chain.Timeout}

	canonicalizer, err := canonicalize.New(
		canonicalize.WithHTTPClient(httpClient),
		canonicalize.WithPreloadedContexts(cfg.Contexts),
	)
	if err != nil {
		err = fmt.Errorf("couldn't set up canonicalization: %w", err)
		return report.fail(err), err
	}

	contract, err := chain.LoadContract(cfg.Chain.ContractAddress, cfg.Chain.ABIFile, cfg.Chain.DigestArgument)
	if err != nil {
		err = fmt.Errorf("couldn't load contract: %w", err)
		return report.fail(err), err
	}

	client := params.Chain
	if client == nil {
		// dialing over http is lazy, nothing is sent unless the chain check runs
		rpcClient, err := ethrpc.Dial(ctx, cfg.Chain.Endpoint, httpClient)
		if err != nil {
			err = fmt.Errorf("%w: %w", chain.ErrChainUnavailable, err)
			return report.fail(err), err
		}
		defer rpcClient.Close()
		client = rpcClient
	}

	logme.DebugFln("run %s: verifying %s", report.RunID, params.DocumentURI)

	diags, results, err := runner.Check(
		ctx,
		passes.Analyzers,
		analysis.CheckParams{
			DocumentRef:   params.DocumentURI,
			Document:      doc,
			Canonicalizer: canonicalizer,
			Chain:         chain.NewVerifier(client, contract),
		},
		*cfg,
	)

	report.collect(diags, results)
	if err != nil {
		// we still report what was checked before the failure
		logme.DebugFln("run %s: check failed: %v", report.RunID, err)
		return report.fail(err), err
	}

	report.State = StateDone
	report.Outcome = report.outcome()
	logme.DebugFln("run %s: %s", report.RunID, report.Outcome)
	return report, nil
}

func (r *Report) fail(err error) *Report {
	r.State = StateFailed
	r.Failure = KindOf(err)
	r.Error = err.Error()
	return r
}

func (r *Report) outcome() Outcome {
	switch {
	case !r.FileHashEmbedded:
		return OutcomeEmbeddingFailed
	case !r.DigestsMatch:
		return OutcomeDigestMismatch
	case !r.OnChainMatch:
		return OutcomeOnChainMismatch
	}
	return OutcomeVerified
}

// collect fills the report from what the analyzers returned.
func (r *Report) collect(diags analysis.Diagnostics, results analysis.Results) {
	r.Diagnostics = diags
	r.Checks = []Check{}
	for _, a := range passes.Analyzers {
		for _, d := range diags[a.Name] {
			r.Checks = append(r.Checks, Check{
				Analyzer: a.Name,
				Heading:  a.ReadmeInfo.Description,
				Rule:     d.Name,
				Severity: d.Severity,
				Title:    d.Title,
				Detail:   d.Detail,
			})
		}
	}

	section, ok := results[proofsection.Analyzer].(*proofsection.Result)
	if !ok {
		return
	}
	r.Reached = StateProofExtracted
	r.OriginalFileHash = section.Crid

	canonicalForm, ok := results[canonical.Analyzer].(*canonical.Result)
	if !ok {
		return
	}
	r.Reached = StateCanonicalized
	r.CalculatedDigest = canonicalForm.Digest
	r.CanonicalCID = canonicalForm.CID

	anchor, ok := results[anchorproof.Analyzer].(*anchorproof.Result)
	if !ok {
		return
	}
	r.Reached = StateAnchorDecoded
	r.EmbeddedDigest = anchor.MerkleRoot
	r.TransactionID = anchor.TransactionID

	if _, ran := results[embedding.Analyzer]; !ran {
		return
	}
	r.Reached = StateEmbeddingChecked
	r.FileHashEmbedded, _ = results[embedding.Analyzer].(bool)
	if !r.FileHashEmbedded {
		return
	}

	if _, ran := results[integrity.Analyzer]; !ran {
		return
	}
	r.Reached = StateLocalDigestsChecked
	_, r.DigestsMatch = results[integrity.Analyzer].(string)

	chainResult, ok := results[onchain.Analyzer].(*onchain.Result)
	if !ok {
		return
	}
	r.Reached = StateChainChecked
	r.OnChainMatch = chainResult.Match

	facts := chainResult.Facts
	r.OnChainDigest = facts.OnChainDigest
	r.TokenURI = facts.TokenURI
	r.BlockNumber = facts.BlockNumber
	r.Timestamp = facts.BlockTimestamp.UTC().Format(onchain.TimestampLayout)
	r.Confirmations = facts.Confirmations
}

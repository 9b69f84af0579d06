package service

import (
	"errors"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/canonicalize"
	"github.com/tnaegele/bloxberg-verify/pkg/chain"
	"github.com/tnaegele/bloxberg-verify/pkg/document"
	"github.com/tnaegele/bloxberg-verify/pkg/merkleproof"
)

// State is a step of the verification. A run ends in Done or Failed.
type State string

const (
	StateStart               State = "Start"
	StateProofExtracted      State = "ProofExtracted"
	StateCanonicalized       State = "Canonicalized"
	StateAnchorDecoded       State = "AnchorDecoded"
	StateEmbeddingChecked    State = "EmbeddingChecked"
	StateLocalDigestsChecked State = "LocalDigestsChecked"
	StateChainChecked        State = "ChainChecked"
	StateDone                State = "Done"
	StateFailed              State = "Failed"
)

// Outcome is the verdict of a run that reached Done.
type Outcome string

const (
	OutcomeVerified        Outcome = "Verified"
	OutcomeEmbeddingFailed Outcome = "EmbeddingFailed"
	OutcomeDigestMismatch  Outcome = "DigestMismatch"
	OutcomeOnChainMismatch Outcome = "OnChainMismatch"
)

// FailureKind names the error that moved a run to Failed.
type FailureKind string

const (
	KindInput               FailureKind = "InputError"
	KindMissingField        FailureKind = "MissingFieldError"
	KindCanonicalization    FailureKind = "CanonicalizationError"
	KindUnsupportedEncoding FailureKind = "UnsupportedEncodingError"
	KindMalformedProof      FailureKind = "MalformedProofError"
	KindNoAnchor            FailureKind = "NoAnchorError"
	KindChainUnavailable    FailureKind = "ChainUnavailableError"
	KindTransactionNotFound FailureKind = "TransactionNotFoundError"
	KindDecode              FailureKind = "DecodeError"
)

var kinds = []struct {
	err  error
	kind FailureKind
}{
	{document.ErrMissingField, KindMissingField},
	{canonicalize.ErrCanonicalization, KindCanonicalization},
	{merkleproof.ErrUnsupportedEncoding, KindUnsupportedEncoding},
	{merkleproof.ErrMalformedProof, KindMalformedProof},
	{merkleproof.ErrNoAnchor, KindNoAnchor},
	{chain.ErrChainUnavailable, KindChainUnavailable},
	{chain.ErrTransactionNotFound, KindTransactionNotFound},
	{chain.ErrDecode, KindDecode},
}

// KindOf maps err onto the failure taxonomy. Errors outside it are input errors.
func KindOf(err error) FailureKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInput
}

// Check is one reported check, in the order the checks ran.
type Check struct {
	Analyzer string            `json:"analyzer"`
	Heading  string            `json:"heading"`
	Rule     string            `json:"rule"`
	Severity analysis.Severity `json:"severity"`
	Title    string            `json:"title"`
	Detail   string            `json:"detail,omitempty"`
}

// Report is the result of one verification run. It is not modified after Verify returns it.
type Report struct {
	RunID    string `json:"runId"`
	Document string `json:"document"`

	State   State       `json:"state"`
	Reached State       `json:"reached"`
	Failure FailureKind `json:"failure,omitempty"`
	Error   string      `json:"error,omitempty"`
	Outcome Outcome     `json:"outcome,omitempty"`

	FileHashEmbedded bool `json:"fileHashEmbedded"`
	DigestsMatch     bool `json:"digestsMatch"`
	OnChainMatch     bool `json:"onChainMatch"`

	OriginalFileHash string `json:"originalFileHash,omitempty"`
	CalculatedDigest string `json:"calculatedDigest,omitempty"`
	EmbeddedDigest   string `json:"embeddedDigest,omitempty"`
	OnChainDigest    string `json:"onChainDigest,omitempty"`
	TransactionID    string `json:"transactionId,omitempty"`
	TokenURI         string `json:"tokenUri,omitempty"`
	BlockNumber      uint64 `json:"blockNumber,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
	Confirmations    uint64 `json:"confirmations"`
	CanonicalCID     string `json:"canonicalCid,omitempty"`

	Checks      []Check              `json:"checks"`
	Diagnostics analysis.Diagnostics `json:"diagnostics"`
}

// Verified is true only when every check passed.
func (r *Report) Verified() bool {
	return r.State == StateDone && r.Outcome == OutcomeVerified
}

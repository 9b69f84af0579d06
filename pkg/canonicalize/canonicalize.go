package canonicalize

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/piprate/json-gold/ld"

	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

// ErrCanonicalization is returned when a document cannot be normalized into N-Quads.
var ErrCanonicalization = errors.New("canonicalization failed")

const (
	algorithm = "URDNA2015"
	format    = "application/n-quads"
)

// Canonicalizer normalizes JSON-LD documents with URDNA2015.
// Remote contexts are cached for the lifetime of the Canonicalizer.
type Canonicalizer struct {
	loader *ld.CachingDocumentLoader
}

type options struct {
	httpClient *http.Client
	contexts   map[string]string
}

type Option func(*options)

// WithHTTPClient sets the client used to fetch remote @context documents.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithPreloadedContexts maps context URLs to local files so they are never fetched.
func WithPreloadedContexts(contexts map[string]string) Option {
	return func(o *options) {
		o.contexts = contexts
	}
}

func New(opts ...Option) (*Canonicalizer, error) {
	o := options{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	loader := ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(o.httpClient))
	if len(o.contexts) > 0 {
		if err := loader.PreloadWithMapping(o.contexts); err != nil {
			return nil, fmt.Errorf("preloading contexts: %w", err)
		}
		logme.DebugFln("preloaded %d JSON-LD contexts", len(o.contexts))
	}

	return &Canonicalizer{loader: loader}, nil
}

// Canonicalize returns the URDNA2015 normal form of doc as N-Quads.
func (c *Canonicalizer) Canonicalize(doc map[string]any) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrCanonicalization)
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.Format = format
	opts.Algorithm = algorithm
	opts.DocumentLoader = c.loader

	normalized, err := proc.Normalize(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCanonicalization, err)
	}

	nquads, ok := normalized.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected normalized output type %T", ErrCanonicalization, normalized)
	}
	return []byte(nquads), nil
}

// Canonicalize normalizes doc with a fresh Canonicalizer using default options.
func Canonicalize(doc map[string]any, opts ...Option) ([]byte, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Canonicalize(doc)
}

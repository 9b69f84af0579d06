package document

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

// ErrMissingField is returned when the certificate lacks `crid`, `proof` or `proof.proofValue`.
var ErrMissingField = errors.New("missing required field")

const (
	maxSize = 10 * 1024 * 1024 // 10MB
	timeout = 30 * time.Second

	proofKey = "proof"
	cridKey  = "crid"
)

//go:embed certificate.schema.json
var certificateSchema string

// Document is a parsed bloxberg JSON-LD certificate.
type Document map[string]any

// ProofSection is the MerkleProof2019 proof attached to a certificate.
type ProofSection struct {
	Type               string `json:"type,omitempty"`
	Created            string `json:"created,omitempty"`
	ProofPurpose       string `json:"proofPurpose,omitempty"`
	VerificationMethod string `json:"verificationMethod,omitempty"`
	ProofValue         string `json:"proofValue"`
}

// Crid returns the original file hash embedded in the certificate.
func (d Document) Crid() string {
	crid, _ := d[cridKey].(string)
	return crid
}

// Load reads and parses a certificate from a local path or an http(s) URL.
func Load(uri string) (Document, error) {
	b, err := Read(uri)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Read reads a certificate from a URL or a local file.
// Local read errors are returned unwrapped so callers can inspect the *fs.PathError.
func Read(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "https://") || strings.HasPrefix(uri, "http://") {
		client := http.Client{
			Timeout: timeout,
		}

		resp, err := client.Get(uri)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if resp.StatusCode == http.StatusNotFound {
				return nil, errors.New("certificate not found")
			}
			return nil, fmt.Errorf("unexpected status: %s", resp.Status)
		}

		if resp.ContentLength > maxSize {
			return nil, errors.New("certificate is too large")
		}

		return io.ReadAll(&io.LimitedReader{R: resp.Body, N: maxSize})
	}

	return os.ReadFile(uri)
}

// Parse decodes certificate bytes into a Document.
func Parse(b []byte) (Document, error) {
	// using hujson first to allow some tolerance in hand-edited certificates
	std, err := hujson.Standardize(b)
	if err != nil {
		return nil, fmt.Errorf("certificate is not valid JSON: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(std, &doc); err != nil {
		return nil, fmt.Errorf("certificate is not a JSON object: %w", err)
	}
	if doc == nil {
		return nil, errors.New("certificate is empty")
	}
	return doc, nil
}

// Validate checks the fields required for verification against the certificate schema.
func Validate(doc Document) error {
	schemaLoader := gojsonschema.NewStringLoader(certificateSchema)
	documentLoader := gojsonschema.NewGoLoader(map[string]any(doc))

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validating certificate: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(msgs, "; "))
}

// Split captures the proof section and returns a copy of the certificate without it.
// The given document is not modified.
func Split(doc Document) (*ProofSection, Document, error) {
	if err := Validate(doc); err != nil {
		return nil, nil, err
	}

	raw, err := json.Marshal(doc[proofKey])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: proof: %v", ErrMissingField, err)
	}
	var section ProofSection
	if err := json.Unmarshal(raw, &section); err != nil {
		return nil, nil, fmt.Errorf("%w: proof: %v", ErrMissingField, err)
	}

	rest := make(Document, len(doc))
	for k, v := range doc {
		if k == proofKey {
			continue
		}
		rest[k] = v
	}

	logme.DebugFln("captured %s proof section (%d bytes proofValue)", section.Type, len(section.ProofValue))
	return &section, rest, nil
}

package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/service"
)

type Marshaler interface {
	Marshal(report *service.Report) ([]byte, error)
}

type marshalerFunc func(report *service.Report) ([]byte, error)

func (f marshalerFunc) Marshal(report *service.Report) ([]byte, error) {
	return f(report)
}

type jsonMarshaler struct {
	version string
}

func NewJSONMarshaler(version string) Marshaler {
	return jsonMarshaler{version}
}

type jsonOutput struct {
	Version string `json:"version,omitempty"`
	*service.Report
}

func (j jsonMarshaler) Marshal(report *service.Report) ([]byte, error) {
	return json.MarshalIndent(jsonOutput{
		Version: j.version,
		Report:  report,
	}, "", "  ")
}

// MarshalCLI prints the checks in the order they ran, each under its heading,
// followed by the verdict of the run.
var MarshalCLI = marshalerFunc(func(report *service.Report) ([]byte, error) {
	var buf bytes.Buffer
	heading := ""
	for _, c := range report.Checks {
		if c.Heading != heading {
			heading = c.Heading
			buf.WriteString("\n" + heading + "\n")
		}

		switch c.Severity {
		case analysis.OK:
			buf.WriteString(color.GreenString(" success ✓ ") + "\n")
			writeMessage(&buf, c)
		case analysis.Warning:
			buf.WriteString(color.YellowString("warning: "))
			writeMessage(&buf, c)
		default:
			writeMessage(&buf, c)
			buf.WriteString(color.RedString(" failure ✗") + "\n")
		}
	}

	writeVerdict(&buf, report)
	return buf.Bytes(), nil
})

var outcomeVerdicts = map[service.Outcome]string{
	service.OutcomeVerified:        "the file is properly timestamped on the bloxberg blockchain",
	service.OutcomeEmbeddingFailed: "document hash is not embedded in the normalised proof",
	service.OutcomeDigestMismatch:  "calculated file hash differs from the merkle root in the proof",
	service.OutcomeOnChainMismatch: "hash on the blockchain differs from the hash in the file",
}

// writeVerdict prints the outcome from the report fields, so it does not depend
// on which diagnostics were reported.
func writeVerdict(buf *bytes.Buffer, report *service.Report) {
	buf.WriteString("\nVerdict: ")
	switch {
	case report.Verified():
		buf.WriteString(outcomeVerdicts[service.OutcomeVerified] + "\n")
		buf.WriteString(color.GreenString(" success ✓ ") + "\n")
		return
	case report.State == service.StateFailed:
		fmt.Fprintf(buf, "verification aborted with %s after %s\n", report.Failure, report.Reached)
		if report.Error != "" {
			buf.WriteString(color.RedString("error: "))
			buf.WriteString(report.Error + "\n")
		}
	default:
		text, ok := outcomeVerdicts[report.Outcome]
		if !ok {
			text = fmt.Sprintf("run ended in state %s", report.State)
		}
		buf.WriteString(text + "\n")
	}
	buf.WriteString(color.RedString(" failure ✗") + "\n")
}

func writeMessage(buf *bytes.Buffer, c service.Check) {
	buf.WriteString(c.Title + "\n")
	if len(c.Detail) > 0 {
		buf.WriteString(color.BlueString("detail: "))
		buf.WriteString(c.Detail + "\n")
	}
}

var failureCodes = map[service.FailureKind]int{
	service.KindInput:               1,
	service.KindMissingField:        10,
	service.KindCanonicalization:    11,
	service.KindUnsupportedEncoding: 12,
	service.KindMalformedProof:      13,
	service.KindNoAnchor:            14,
	service.KindChainUnavailable:    20,
	service.KindTransactionNotFound: 21,
	service.KindDecode:              22,
}

var outcomeCodes = map[service.Outcome]int{
	service.OutcomeVerified:        0,
	service.OutcomeEmbeddingFailed: 2,
	service.OutcomeDigestMismatch:  3,
	service.OutcomeOnChainMismatch: 4,
}

// ExitCode maps a report onto a process exit code.
// In legacy mode every run exits with 0, whatever the outcome.
func ExitCode(legacy bool, report *service.Report) int {
	if legacy {
		return 0
	}
	if report == nil {
		return 1
	}
	if report.State == service.StateFailed {
		if code, ok := failureCodes[report.Failure]; ok {
			return code
		}
		return 1
	}
	if code, ok := outcomeCodes[report.Outcome]; ok {
		return code
	}
	return 1
}

// Static checks

var (
	_ = Marshaler(jsonMarshaler{})
	_ = Marshaler(MarshalCLI)
)

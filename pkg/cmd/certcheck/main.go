package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis/output"
	"github.com/tnaegele/bloxberg-verify/pkg/logme"
	"github.com/tnaegele/bloxberg-verify/pkg/runner"
	"github.com/tnaegele/bloxberg-verify/pkg/service"
)

// set with -ldflags at build time
var version = "dev"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		configFlag   = flags.String("config", "", "Path to configuration file")
		jsonFlag     = flags.Bool("json", false, "Print the report as JSON")
		legacyFlag   = flags.Bool("legacy-exit-codes", false, "Always exit with 0, whatever the outcome")
		endpointFlag = flags.String("endpoint", "", "bloxberg JSON-RPC endpoint, overrides chain.endpoint from the configuration")
	)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [flags] <certificate.json|url>\n", args[0])
		flags.PrintDefaults()
	}

	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	logme.SetOutput(stdout, stderr)
	logme.Debugln("config file: ", *configFlag)
	logme.Debugln("legacy exit codes: ", *legacyFlag)
	logme.Debugln("certificate: ", flags.Arg(0))

	if flags.NArg() == 0 {
		fmt.Fprintln(stderr, "missing certificate file or url")
		flags.Usage()
		return 1
	}
	file := flags.Arg(0)

	cfg := runner.DefaultConfig()
	if *configFlag != "" {
		var err error
		cfg, err = runner.ReadConfigFile(*configFlag)
		if err != nil {
			logme.Errorln(fmt.Errorf("couldn't read configuration: %w", err))
			return 1
		}
	}
	if *endpointFlag != "" {
		cfg.Chain.Endpoint = *endpointFlag
	}

	report, err := service.Verify(context.Background(), service.Params{
		DocumentURI: file,
		Config:      &cfg,
	})

	var pathErr *fs.PathError
	if errors.Is(err, service.ErrLoad) && errors.As(err, &pathErr) {
		fmt.Fprintf(stderr, "%s: %s: %s\n", args[0], file, pathErr.Err)
		return output.ExitCode(*legacyFlag, report)
	}
	if err != nil {
		logme.DebugFln("verification failed: %v", err)
	}

	var marshaler output.Marshaler = output.MarshalCLI
	if *jsonFlag || cfg.Global.JSONOutput {
		marshaler = output.NewJSONMarshaler(version)
	}

	out, err := marshaler.Marshal(report)
	if err != nil {
		logme.Errorln(fmt.Errorf("couldn't print report: %w", err))
		return 1
	}
	fmt.Fprintln(stdout, string(out))

	return output.ExitCode(*legacyFlag, report)
}

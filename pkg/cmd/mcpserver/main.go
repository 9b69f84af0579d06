package main

import (
	"context"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tnaegele/bloxberg-verify/pkg/runner"
	"github.com/tnaegele/bloxberg-verify/pkg/service"
)

type Input struct {
	DocumentPath string `json:"documentPath" jsonschema:"The path to the bloxberg certificate JSON file. This can be a local file path or an http(s) URL."`
	Endpoint     string `json:"endpoint,omitempty" jsonschema:"The bloxberg JSON-RPC endpoint. Defaults to https://core.bloxberg.org/."`
}

type Output struct {
	Report *service.Report `json:"report" jsonschema:"The verification report: the outcome, the digests that were compared, the on-chain facts and every check that ran."`
}

func VerifyCertificate(ctx context.Context, req *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, Output, error) {
	cfg := runner.DefaultConfig()
	if input.Endpoint != "" {
		cfg.Chain.Endpoint = input.Endpoint
	}

	// the report describes failures too, so it is returned instead of the error
	report, _ := service.Verify(ctx, service.Params{
		DocumentURI: input.DocumentPath,
		Config:      &cfg,
	})
	return nil, Output{Report: report}, nil
}

func run() error {
	server := mcp.NewServer(&mcp.Implementation{Name: "bloxberg-verify", Version: "0.1.0"}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "verify_certificate",
		Description: "Verifies a bloxberg research object certificate. Recomputes the document hash, compares it to the merkle root in the MerkleProof2019 proof and checks the anchoring transaction on the bloxberg blockchain.",
	}, VerifyCertificate)
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("failed to run: %v", err)
	}
}

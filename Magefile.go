//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Build mg.Namespace
type Test mg.Namespace
type Run mg.Namespace
type Gen mg.Namespace

const versionVar = "main.version"

var archTargets = map[string]map[string]string{
	"darwin_amd64": {
		"CGO_ENABLED": "0",
		"GO111MODULE": "on",
		"GOARCH":      "amd64",
		"GOOS":        "darwin",
	},
	"darwin_arm64": {
		"CGO_ENABLED": "0",
		"GO111MODULE": "on",
		"GOARCH":      "arm64",
		"GOOS":        "darwin",
	},
	"linux_amd64": {
		"CGO_ENABLED": "0",
		"GO111MODULE": "on",
		"GOARCH":      "amd64",
		"GOOS":        "linux",
	},
}

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build.Local

func version() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	out, err := sh.Output("git", "describe", "--tags", "--always")
	if err != nil {
		return "dev"
	}
	return out
}

func buildCommand(command string, arch string) error {
	env, ok := archTargets[arch]
	if !ok {
		return fmt.Errorf("unknown arch %s", arch)
	}
	log.Printf("Building %s/%s\n", arch, command)
	outDir := fmt.Sprintf("./bin/%s/%s", arch, command)
	cmdDir := fmt.Sprintf("./pkg/cmd/%s", command)
	ldflags := fmt.Sprintf("-X %s=%s", versionVar, version())
	if err := sh.RunWith(env, "go", "build", "-ldflags", ldflags, "-o", outDir, cmdDir); err != nil {
		return err
	}

	// intentionally igores errors
	sh.RunV("chmod", "+x", outDir)
	return nil
}

// build all commands inside ./pkg/cmd for current architecture
func (Build) Commands(ctx context.Context) error {
	mg.Deps(
		Clean,
	)

	const commandsFolder = "./pkg/cmd"
	folders, err := os.ReadDir(commandsFolder)
	if err != nil {
		return err
	}

	for _, folder := range folders {
		if folder.IsDir() {
			currentArch := runtime.GOOS + "_" + runtime.GOARCH
			err := buildCommand(folder.Name(), currentArch)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func certCheckCmdDarwin() error {
	return buildCommand("certcheck", "darwin_arm64")
}

func certCheckCmdLinux() error {
	return buildCommand("certcheck", "linux_amd64")
}

func mcpServerCmdLinux() error {
	return buildCommand("mcpserver", "linux_amd64")
}

func testVerbose() error {
	os.Setenv("GO111MODULE", "on")
	os.Setenv("CGO_ENABLED", "0")
	return sh.RunV("go", "test", "-v", "./pkg/...")
}

func test() error {
	os.Setenv("GO111MODULE", "on")
	os.Setenv("CGO_ENABLED", "0")
	return sh.RunV("go", "test", "./pkg/...")
}

// Formats the source files
func (Build) Format() error {
	if err := sh.RunV("gofmt", "-w", "./pkg"); err != nil {
		return err
	}
	return nil
}

// Minimal build
func (Build) Local(ctx context.Context) {
	mg.Deps(
		Clean,
		Build.Commands,
	)
}

// Lint/Format/Test/Build
func (Build) CI(ctx context.Context) {
	mg.Deps(
		Build.Lint,
		Build.Format,
		Test.Verbose,
		Clean,
		certCheckCmdLinux,
		mcpServerCmdLinux,
	)
}

func (Build) All(ctx context.Context) {
	mg.Deps(
		Build.Lint,
		Build.Format,
		Test.Verbose,
		certCheckCmdLinux,
		certCheckCmdDarwin,
		mcpServerCmdLinux,
	)
}

// Run linter against codebase
func (Build) Lint() error {
	os.Setenv("GO111MODULE", "on")
	log.Printf("Linting...")
	return sh.RunV("golangci-lint", "--timeout", "3m", "run", "-v", "./pkg/...")
}

// Run tests in verbose mode
func (Test) Verbose() {
	mg.SerialDeps(
		testVerbose,
	)
}

// Run tests in normal mode
func (Test) Default() {
	mg.SerialDeps(
		test,
	)
}

// Removes built files
func Clean() {
	log.Printf("Cleaning all")
	os.RemoveAll("./bin/linux_amd64")
	os.RemoveAll("./bin/darwin_amd64")
	os.RemoveAll("./bin/darwin_arm64")
}

// Build and verify a certificate file or url against the public bloxberg node
func (Run) Verify(ctx context.Context, certificate string) error {
	mg.Deps(Build.Local)

	command := []string{"./bin/" + runtime.GOOS + "_" + runtime.GOARCH + "/certcheck"}
	// config/custom.yaml is picked up when present
	if _, err := os.Stat("config/custom.yaml"); err == nil {
		command = append(command, "-config", "config/custom.yaml")
	}
	command = append(command, certificate)

	return sh.RunV(command[0], command[1:]...)
}

// Readme re-generates the "Checks" table in README.md.
func (Gen) Readme() error {
	return sh.RunV("go", "run", "./pkg/cmd/genreadme")
}

package genreadme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes"
	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

const (
	magicStart = `<!-- analyzers-table-start -->`
	magicEnd   = `<!-- analyzers-table-end -->`
	header     = `<!--
THE FOLLOWING SECTION IS GENERATED, DO NOT EDIT.
Run "mage gen:readme" to regenerate this section.
-->
| Check | Description | Dependencies |
|-------|-------------|--------------|
`
)

// Generate rewrites the checks table between the magic tags of readme.
func Generate(readme io.Reader) (string, error) {
	var tableBuilder strings.Builder
	tableBuilder.WriteString(header)

	// passes.Analyzers is the report order, sort a copy
	analyzers := slices.Clone(passes.Analyzers)
	slices.SortFunc(analyzers, func(a, b *analysis.Analyzer) int {
		return strings.Compare(strings.ToLower(a.ReadmeInfo.Name), strings.ToLower(b.ReadmeInfo.Name))
	})

	for _, analyzer := range analyzers {
		if analyzer.ReadmeInfo.Name == "" && analyzer.ReadmeInfo.Description == "" {
			logme.ErrorF("Warning: Analyzer %q does not have README data.\n", analyzer.Name)
			continue
		}
		dependencies := analyzer.ReadmeInfo.Dependencies
		if dependencies == "" {
			dependencies = "None"
		}
		fmt.Fprintf(&tableBuilder,
			"| %s | %s | %s |\n",
			fmt.Sprintf("%s / `%s`", analyzer.ReadmeInfo.Name, analyzer.Name),
			analyzer.ReadmeInfo.Description,
			dependencies,
		)
	}

	// Update the README
	var outBuilder strings.Builder
	var isBetweenMagicTags bool
	var done bool
	scanner := bufio.NewScanner(readme)
	for scanner.Scan() {
		line := scanner.Text()
		if !isBetweenMagicTags && strings.Contains(line, magicStart) {
			// Re-write the generated section
			isBetweenMagicTags = true
			outBuilder.WriteString(magicStart)
			outBuilder.WriteRune('\n')
			outBuilder.WriteString(tableBuilder.String())
			continue
		}

		if strings.Contains(line, magicEnd) {
			// Write magic end tag
			outBuilder.WriteString(line)
			outBuilder.WriteString("\n")
			isBetweenMagicTags = false
			done = true
			continue
		}

		// Copy the rest of the readme,
		// but don't copy the generated section from the old file
		if !isBetweenMagicTags {
			outBuilder.WriteString(line)
			outBuilder.WriteRune('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read readme: %w", err)
	}
	if !done {
		return "", errors.New("failed to find magic tags in readme")
	}
	return outBuilder.String(), nil
}

// Rewrite regenerates the checks table of the readme at path in place.
// The new content goes to a temporary file next to path which then replaces
// it, so a failed run leaves the readme untouched.
func Rewrite(path string) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read readme: %w", err)
	}
	generated, err := Generate(strings.NewReader(string(existing)))
	if err != nil {
		return fmt.Errorf("generate new readme: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat readme: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp readme: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(generated); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write new readme: %w", err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod new readme: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close new readme: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace readme: %w", err)
	}
	return nil
}

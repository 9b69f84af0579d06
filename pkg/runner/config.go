package runner

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/chain"
)

type Config struct {
	Global    GlobalConfig              `yaml:"global"`
	Analyzers map[string]AnalyzerConfig `yaml:"analyzers"`
	Chain     ChainConfig               `yaml:"chain"`
	// Contexts maps JSON-LD context URLs to local files
	Contexts map[string]string `yaml:"contexts"`
}

type GlobalConfig struct {
	Enabled    bool              `yaml:"enabled"`
	Severity   analysis.Severity `yaml:"severity"`
	JSONOutput bool              `yaml:"jsonOutput"`
	ReportAll  bool              `yaml:"reportAll"`
}

type AnalyzerConfig struct {
	Enabled  *bool                 `yaml:"enabled"`
	Severity *analysis.Severity    `yaml:"severity"`
	Rules    map[string]RuleConfig `yaml:"rules"`
}

type RuleConfig struct {
	Enabled  *bool              `yaml:"enabled"`
	Severity *analysis.Severity `yaml:"severity"`
}

type ChainConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	ContractAddress string        `yaml:"contractAddress"`
	ABIFile         string        `yaml:"abiFile"`
	DigestArgument  string        `yaml:"digestArgument"`
	Timeout         time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Global: GlobalConfig{
			Enabled:   true,
			Severity:  analysis.Error,
			ReportAll: true,
		},
		Chain: ChainConfig{
			Endpoint:        chain.DefaultEndpoint,
			ContractAddress: chain.DefaultContractAddress,
			DigestArgument:  chain.DefaultDigestArgument,
			Timeout:         30 * time.Second,
		},
	}
}

// ReadConfigFile reads a YAML config. Keys missing from the file keep their defaults.
func ReadConfigFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(b, &config); err != nil {
		return Config{}, err
	}

	return config, nil
}

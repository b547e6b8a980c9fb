package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSourcePath is where a program document is looked for when neither
// the command line nor the configuration names one. It matches the
// container contract the language's tooling established.
const DefaultSourcePath = "/var/rinha/source.rinha.json"

// DefaultConfigFile is probed in the working directory when no --config
// flag is given.
const DefaultConfigFile = "rinha.yml"

// Config is the parsed contents of rinha.yml.
type Config struct {
	Path        string
	Source      string
	StrictArity bool
	Suite       SuiteConfig
	History     HistoryConfig
}

// SuiteConfig describes where the corpus of test programs comes from and
// which of them to run.
type SuiteConfig struct {
	Repo     string
	Revision string
	Dir      string
	Programs []string
}

// HistoryConfig locates the store for suite run history.
type HistoryConfig struct {
	Path string
}

// ValidationError aggregates configuration validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// DefaultConfig is the configuration used when no rinha.yml exists.
func DefaultConfig() *Config {
	return &Config{
		Source: DefaultSourcePath,
		Suite: SuiteConfig{
			Repo:     "https://github.com/aripiprazole/rinha-de-compiler",
			Revision: "main",
			Dir:      "files",
		},
		History: HistoryConfig{Path: defaultHistoryPath()},
	}
}

func defaultHistoryPath() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return ".rinha-history.db"
	}
	return filepath.Join(cache, "rinha", "history.db")
}

// LoadConfig parses a rinha.yml from disk, returning a validated
// configuration with defaults filled in for omitted fields.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			raw = configFile{}
		} else {
			return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
		}
	}

	config := raw.toConfig(absPath)
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ResolveConfig loads the named file, or probes for rinha.yml in the
// working directory when path is empty. A missing probe is not an error:
// defaults apply.
func ResolveConfig(path string) (*Config, error) {
	if path != "" {
		return LoadConfig(path)
	}
	if _, err := os.Stat(DefaultConfigFile); err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config: stat %s: %w", DefaultConfigFile, err)
	}
	return LoadConfig(DefaultConfigFile)
}

func (c *Config) validate() error {
	var errs ValidationError
	if c.Suite.Repo == "" && len(c.Suite.Programs) > 0 {
		errs.Issues = append(errs.Issues, "suite.programs requires suite.repo")
	}
	for i, program := range c.Suite.Programs {
		if strings.ContainsAny(program, "/\\") {
			errs.Issues = append(errs.Issues, fmt.Sprintf("suite.programs[%d] %q must be a bare program name, not a path", i, program))
		}
	}
	if strings.ContainsAny(c.Suite.Dir, "\\:") || strings.HasPrefix(c.Suite.Dir, "/") || strings.Contains(c.Suite.Dir, "..") {
		errs.Issues = append(errs.Issues, fmt.Sprintf("suite.dir %q must be a relative path inside the corpus checkout", c.Suite.Dir))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

type configFile struct {
	Source      string      `yaml:"source"`
	StrictArity bool        `yaml:"strict_arity"`
	Suite       suiteYAML   `yaml:"suite"`
	History     historyYAML `yaml:"history"`
}

type suiteYAML struct {
	Repo     string     `yaml:"repo"`
	Revision string     `yaml:"revision"`
	Dir      string     `yaml:"dir"`
	Programs stringList `yaml:"programs"`
}

type historyYAML struct {
	Path string `yaml:"path"`
}

func (cf configFile) toConfig(path string) *Config {
	defaults := DefaultConfig()
	config := &Config{
		Path:        path,
		Source:      strings.TrimSpace(cf.Source),
		StrictArity: cf.StrictArity,
		Suite: SuiteConfig{
			Repo:     strings.TrimSpace(cf.Suite.Repo),
			Revision: strings.TrimSpace(cf.Suite.Revision),
			Dir:      strings.TrimSpace(cf.Suite.Dir),
			Programs: cf.Suite.Programs.Clone(),
		},
		History: HistoryConfig{Path: strings.TrimSpace(cf.History.Path)},
	}
	if config.Source == "" {
		config.Source = defaults.Source
	}
	if config.Suite.Repo == "" && len(config.Suite.Programs) == 0 {
		config.Suite.Repo = defaults.Suite.Repo
	}
	if config.Suite.Revision == "" {
		config.Suite.Revision = defaults.Suite.Revision
	}
	if config.Suite.Dir == "" {
		config.Suite.Dir = defaults.Suite.Dir
	}
	if config.History.Path == "" {
		config.History.Path = defaults.History.Path
	}
	return config
}

type stringList []string

func (l stringList) Clone() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, 0, len(l))
	for _, item := range l {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// UnmarshalYAML accepts either a single scalar or a sequence, so
// `programs: fib` and `programs: [fib, combination]` both work.
func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			str = strings.TrimSpace(str)
			if str == "" {
				continue
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("config: expected string or sequence for list but found %s", value.ShortTag())
	}
}

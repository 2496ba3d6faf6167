package rbcheck

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the file LoadConfig looks for when searching upwards
// from a directory.
const ConfigFileName = ".rbcheck.yml"

// ConfigError aggregates configuration validation failures.
type ConfigError struct {
	Issues []string
}

func (e *ConfigError) Error() string {
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

type configFile struct {
	Disable    []string          `yaml:"disable"`
	Severity   map[string]string `yaml:"severity"`
	MaxPerFile int               `yaml:"max_per_file"`
	Extensions []string          `yaml:"extensions"`
}

func (f configFile) toConfig() Config {
	cfg := Config{
		MaxPerFile: f.MaxPerFile,
		Extensions: f.Extensions,
	}
	for _, code := range f.Disable {
		cfg.Disabled = append(cfg.Disabled, normalizeCode(code))
	}
	if len(f.Severity) > 0 {
		cfg.Severity = make(map[Code]Severity, len(f.Severity))
		for code, severity := range f.Severity {
			cfg.Severity[normalizeCode(code)] = Severity(strings.ToLower(strings.TrimSpace(severity)))
		}
	}
	return cfg
}

// normalizeCode accepts codes written in any case, with dashes or
// underscores.
func normalizeCode(raw string) Code {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return Code(strings.ReplaceAll(code, "-", "_"))
}

// ParseConfig decodes a YAML configuration and validates it. Unknown keys
// are rejected. An empty document yields the default configuration.
func ParseConfig(r io.Reader) (Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	cfg := raw.toConfig()
	if _, err := NewChecker(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config: empty path")
	}
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	cfg, err := ParseConfig(file)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindConfig walks from dir towards the filesystem root and returns the
// first ConfigFileName it finds, or "" when there is none.
func FindConfig(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(abs, ConfigFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config: stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

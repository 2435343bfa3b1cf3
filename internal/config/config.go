package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMarker is the file whose presence exempts a directory subtree
const DefaultMarker = ".keep"

type Target struct {
	Path string `yaml:"path" json:"path"`
	Age  Age    `yaml:"age" json:"age"` // Files older than this are removed (e.g., 7d)
}

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"` // Negative disables the metrics server
}

type LoggingCfg struct {
	Dir          string `yaml:"dir" json:"dir"`                     // Empty logs to stdout only
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type Config struct {
	Targets         []Target      `yaml:"targets" json:"targets"`
	Marker          string        `yaml:"marker" json:"marker"`
	IntervalMinutes int           `yaml:"interval_minutes" json:"interval_minutes"`
	DatabasePath    string        `yaml:"database_path" json:"database_path"` // Path to SQLite database for deletion history
	ProtectedPaths  []string      `yaml:"protected_paths" json:"protected_paths"`
	Prometheus      PrometheusCfg `yaml:"prometheus" json:"prometheus"`
	Logging         LoggingCfg    `yaml:"logging" json:"logging"`
}

var (
	errNoTargets     = errors.New("configuration must specify at least one target")
	errInvalidPath   = errors.New("path must be absolute")
	errInvalidMarker = errors.New("marker must be a plain file name")
	errDupTarget     = errors.New("duplicate target")
	errNestedTarget  = errors.New("nested target")
)

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if len(c.Targets) == 0 {
		return errNoTargets
	}

	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if strings.ContainsRune(c.Marker, os.PathSeparator) || c.Marker == "." || c.Marker == ".." {
		return fmt.Errorf("%w: %q", errInvalidMarker, c.Marker)
	}

	if c.IntervalMinutes <= 0 {
		c.IntervalMinutes = 15
	}

	if c.Prometheus.Port == 0 {
		c.Prometheus.Port = 9090
	}

	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	if c.DatabasePath == "" {
		c.DatabasePath = "/var/lib/stale-cleaner/deletions.db"
	}

	for i := range c.Targets {
		cp, err := cleanAbsolute(c.Targets[i].Path)
		if err != nil {
			return err
		}
		c.Targets[i].Path = cp
		if c.Targets[i].Age < 0 {
			return fmt.Errorf("target %s: %w", cp, errNegativeAge)
		}
	}

	for i := range c.Targets {
		for j := i + 1; j < len(c.Targets); j++ {
			a, b := c.Targets[i].Path, c.Targets[j].Path
			if a == b {
				return fmt.Errorf("%w: %s", errDupTarget, a)
			}
			if hasPathPrefix(a, b) || hasPathPrefix(b, a) {
				return fmt.Errorf("%w: %s and %s overlap", errNestedTarget, a, b)
			}
		}
	}

	for i, p := range c.ProtectedPaths {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return fmt.Errorf("protected_paths: %w", err)
		}
		c.ProtectedPaths[i] = cp
	}

	return nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

// hasPathPrefix reports whether path is root or lies below it
func hasPathPrefix(path, root string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}

// MetricsEnabled reports whether the Prometheus server should be started
func (c *Config) MetricsEnabled() bool {
	return c.Prometheus.Port > 0
}

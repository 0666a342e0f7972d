package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies the defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	c := NewConfig()

	if c.Port != DefaultPort {
		t.Errorf("expected port %d, got %d", DefaultPort, c.Port)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, c.Timeout)
	}
	if c.ProbeTimeout != DefaultProbeTimeout {
		t.Errorf("expected probe timeout %v, got %v", DefaultProbeTimeout, c.ProbeTimeout)
	}
	if c.MaxResponseSize != DefaultMaxResponseSize {
		t.Errorf("expected max response size %d, got %d", DefaultMaxResponseSize, c.MaxResponseSize)
	}
	if c.MaxDepth != DefaultMaxDepth {
		t.Errorf("expected max depth %d, got %d", DefaultMaxDepth, c.MaxDepth)
	}
	if c.BatchSize != DefaultBatchSize {
		t.Errorf("expected batch size %d, got %d", DefaultBatchSize, c.BatchSize)
	}
}

// TestConfigValidate exercises each validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		c := NewConfig()
		c.Targets = []string{"gopher.example.org"}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "no targets",
			mutate:  func(c *Config) { c.Targets = nil },
			wantErr: ErrNoTarget,
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative probe timeout",
			mutate:  func(c *Config) { c.ProbeTimeout = -time.Second },
			wantErr: ErrInvalidProbeTimeout,
		},
		{
			name:    "zero max response size",
			mutate:  func(c *Config) { c.MaxResponseSize = 0 },
			wantErr: ErrInvalidMaxResponseSize,
		},
		{
			name:    "zero max depth",
			mutate:  func(c *Config) { c.MaxDepth = 0 },
			wantErr: ErrInvalidMaxDepth,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name: "json and markdown conflict",
			mutate: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name: "markdown and excel conflict",
			mutate: func(c *Config) {
				c.MarkdownReport = true
				c.ExcelReport = true
				c.ReportFile = "report.xlsx"
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "excel without output file",
			mutate:  func(c *Config) { c.ExcelReport = true },
			wantErr: ErrExcelNeedsReportFile,
		},
		{
			name: "excel with output file",
			mutate: func(c *Config) {
				c.ExcelReport = true
				c.ReportFile = "report.xlsx"
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := valid()
			tt.mutate(c)

			err := c.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoadConfigFile tests YAML loading and the not-found sentinel.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("valid file parses servers and defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  maxDepth: 50
  timeout: 10s
servers:
  gopher.example.org:
    port: 7070
    rootSelector: /start
    timeout: 30s
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		merged := cf.GetServerConfig("gopher.example.org")
		if merged.Port != 7070 {
			t.Errorf("expected port 7070, got %d", merged.Port)
		}
		if merged.RootSelector != "/start" {
			t.Errorf("expected root selector /start, got %q", merged.RootSelector)
		}
		if merged.MaxDepth != 50 {
			t.Errorf("expected default max depth 50, got %d", merged.MaxDepth)
		}
		if merged.Timeout.Std() != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", merged.Timeout.Std())
		}

		other := cf.GetServerConfig("unknown.example.org")
		if other.MaxDepth != 50 || other.Timeout.Std() != 10*time.Second {
			t.Errorf("unknown host should get defaults, got %+v", other)
		}
	})

	t.Run("invalid duration fails", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("defaults:\n  timeout: banana\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected an error for an unparsable duration")
		}
	})
}

// TestFindConfigFile tests explicit-path resolution.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/David-Botos/pfas-graph/pkg/storage"
)

var allKeys = []string{
	"INPUT_PATH", "OUTPUT_DRIVER", "OUTPUT_DIR", "OUTPUT_PREFIX", "S3_BUCKET",
	"S3_REGION", "S3_ENDPOINT", "S3_PATH_STYLE", "SUMMARY_KEY", "VERIFY",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every config variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(envPrefix+key, "")
		os.Unsetenv(envPrefix + key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.InputPath != DefaultInputPath {
		t.Errorf("InputPath = %q", cfg.InputPath)
	}
	if cfg.Output.Driver != "fs" || cfg.Output.Dir != "." || cfg.Output.Prefix != "" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Output.S3.Region != storage.DefaultS3Region {
		t.Errorf("S3 region = %q", cfg.Output.S3.Region)
	}
	if cfg.Verify || cfg.SummaryKey != "" || cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PFASGRAPH_INPUT_PATH", "data/in.csv")
	t.Setenv("PFASGRAPH_OUTPUT_DRIVER", "S3")
	t.Setenv("PFASGRAPH_S3_BUCKET", "graphs")
	t.Setenv("PFASGRAPH_S3_PATH_STYLE", "true")
	t.Setenv("PFASGRAPH_OUTPUT_PREFIX", "runs/latest")
	t.Setenv("PFASGRAPH_VERIFY", "yes-please")
	t.Setenv("PFASGRAPH_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatalf("expected error for explicit missing env file, got %+v", cfg)
	}

	t.Chdir(t.TempDir())
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.InputPath != "data/in.csv" || cfg.Output.Driver != "s3" || cfg.Output.S3.Bucket != "graphs" || !cfg.Output.S3.PathStyle {
		t.Errorf("unexpected config %+v / %+v", cfg, cfg.Output.S3)
	}
	if cfg.Verify {
		t.Errorf("unparsable bool should fall back to default")
	}
	if got := cfg.Output.Key("nodes_substances.csv"); got != "runs/latest/nodes_substances.csv" {
		t.Errorf("Key = %q", got)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "pfas.env")
	content := "PFASGRAPH_INPUT_PATH=from_file.csv\nPFASGRAPH_SUMMARY_KEY=run_summary.yaml\nPFASGRAPH_LOG_FORMAT=console\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PFASGRAPH_LOG_FORMAT", "json")

	cfg, err := LoadConfig(envFile)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.InputPath != "from_file.csv" || cfg.SummaryKey != "run_summary.yaml" {
		t.Errorf("env file values not applied: %+v", cfg)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("process env should win over env file, got %q", cfg.LogFormat)
	}
}

func TestLoadConfigWithOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PFASGRAPH_OUTPUT_DRIVER", "s3")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for s3 driver without a bucket")
	}

	cfg, err := LoadConfigWithOverrides(func(cfg *Config) {
		cfg.Output.Driver = "memory"
		cfg.Verify = true
	})
	if err != nil {
		t.Fatalf("LoadConfigWithOverrides error: %v", err)
	}
	if cfg.Output.Driver != "memory" || !cfg.Verify {
		t.Errorf("overrides not applied: %+v / %+v", cfg, cfg.Output)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			InputPath: "in.csv",
			Output:    &OutputConfig{Driver: "fs", Dir: ".", S3: &S3Config{}},
			LogLevel:  "info",
			LogFormat: "json",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty input", func(c *Config) { c.InputPath = " " }},
		{"nil output", func(c *Config) { c.Output = nil }},
		{"unknown driver", func(c *Config) { c.Output.Driver = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Output.Driver = "s3" }},
		{"fs without dir", func(c *Config) { c.Output.Dir = "" }},
		{"absolute prefix", func(c *Config) { c.Output.Prefix = "/etc" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestStorageConfig(t *testing.T) {
	out := &OutputConfig{Driver: "s3", Dir: "out", S3: &S3Config{Bucket: "b", Region: "eu-west-1", PathStyle: true}}
	sc := out.StorageConfig()
	if sc.Driver != storage.DriverS3 || sc.Root != "out" || sc.S3.Bucket != "b" || sc.S3.Region != "eu-west-1" || !sc.S3.PathStyle {
		t.Errorf("StorageConfig = %+v", sc)
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger("debug", format)
		if err != nil {
			t.Fatalf("NewLogger(%s) error: %v", format, err)
		}
		if !logger.Core().Enabled(-1) {
			t.Errorf("debug level not enabled for %s", format)
		}
	}
	if _, err := NewLogger("verbose", "json"); err == nil {
		t.Errorf("expected error for bad level")
	}
	if _, err := NewLogger("info", "xml"); err == nil {
		t.Errorf("expected error for bad format")
	}
}

// pkg/config/output.go
package config

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/David-Botos/pfas-graph/pkg/storage"
)

// OutputConfig holds where and how output tables are stored
type OutputConfig struct {
	Driver string // fs, s3 or memory
	Dir    string // Root directory for the fs driver
	Prefix string // Key prefix prepended to every table name

	S3 *S3Config
}

// S3Config holds S3 bucket parameters. Credentials come from the default AWS chain.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // Optional custom endpoint, e.g. MinIO
	PathStyle bool
}

// LoadOutputConfig loads output configuration from environment variables
func LoadOutputConfig() (*OutputConfig, error) {
	cfg := &OutputConfig{
		Driver: strings.ToLower(getEnv("OUTPUT_DRIVER", string(storage.DriverFilesystem))),
		Dir:    getEnv("OUTPUT_DIR", "."),
		Prefix: getEnv("OUTPUT_PREFIX", ""),
		S3: &S3Config{
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", storage.DefaultS3Region),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			PathStyle: getEnvAsBool("S3_PATH_STYLE", false),
		},
	}
	return cfg, nil
}

// Validate checks the selected driver has what it needs
func (c *OutputConfig) Validate() error {
	switch storage.Driver(c.Driver) {
	case storage.DriverFilesystem:
		if strings.TrimSpace(c.Dir) == "" {
			return errors.New("output directory is required for the fs driver")
		}
	case storage.DriverS3:
		if c.S3 == nil || c.S3.Bucket == "" {
			return errors.New("S3 bucket is required for the s3 driver")
		}
	case storage.DriverMemory:
	default:
		return fmt.Errorf("unsupported output driver %q", c.Driver)
	}
	if strings.HasPrefix(c.Prefix, "/") || strings.Contains(c.Prefix, "..") {
		return fmt.Errorf("invalid output prefix %q", c.Prefix)
	}
	return nil
}

// Key returns the storage key of an output object
func (c *OutputConfig) Key(name string) string {
	if c.Prefix == "" {
		return name
	}
	return path.Join(c.Prefix, name)
}

// StorageConfig converts the output configuration into storage driver settings
func (c *OutputConfig) StorageConfig() storage.Config {
	sc := storage.Config{
		Driver: storage.Driver(c.Driver),
		Root:   c.Dir,
	}
	if c.S3 != nil {
		sc.S3 = storage.S3Config{
			Bucket:    c.S3.Bucket,
			Region:    c.S3.Region,
			Endpoint:  c.S3.Endpoint,
			PathStyle: c.S3.PathStyle,
		}
	}
	return sc
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FORMBUILDER_EXPORT_FORMAT.
const EnvPrefix = "FORMBUILDER"

// Config holds application configuration.
type Config struct {
	Export  ExportConfig  `mapstructure:"export" json:"export"`
	Report  ReportConfig  `mapstructure:"report" json:"report"`
	Preview PreviewConfig `mapstructure:"preview" json:"preview"`
}

// ExportConfig controls where exports go.
type ExportConfig struct {
	Format   string   `mapstructure:"format" json:"format" validate:"oneof=csv excel json pdf"`
	Dir      string   `mapstructure:"dir" json:"dir" validate:"required"`
	Filename string   `mapstructure:"filename" json:"filename"`
	Gzip     bool     `mapstructure:"gzip" json:"gzip"`
	Sink     string   `mapstructure:"sink" json:"sink" validate:"oneof=file s3"`
	S3       S3Config `mapstructure:"s3" json:"s3"`
}

// S3Config locates the export bucket when Sink is s3.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" json:"bucket"`
	Region          string `mapstructure:"region" json:"region"`
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" validate:"omitempty,url"`
	Prefix          string `mapstructure:"prefix" json:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"secret_access_key"`
}

// ReportConfig styles the printable report.
type ReportConfig struct {
	Title   string `mapstructure:"title" json:"title" validate:"required"`
	Intro   string `mapstructure:"intro" json:"intro"`
	Theme   string `mapstructure:"theme" json:"theme"`
	Variant string `mapstructure:"variant" json:"variant"`
}

// PreviewConfig configures the live preview server.
type PreviewConfig struct {
	Addr string `mapstructure:"addr" json:"addr" validate:"required,hostname_port"`
}

// Options tells Load where to look.
type Options struct {
	// File is an explicit config file; it must exist when set.
	File string
	// EnvFile is loaded into the process environment first. A missing file
	// is ignored.
	EnvFile string
	// SearchPaths replace the default config directories.
	SearchPaths []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.filename", "")
	v.SetDefault("export.gzip", false)
	v.SetDefault("export.sink", "file")
	v.SetDefault("export.s3.bucket", "")
	v.SetDefault("export.s3.region", "")
	v.SetDefault("export.s3.endpoint", "")
	v.SetDefault("export.s3.prefix", "")
	v.SetDefault("export.s3.access_key_id", "")
	v.SetDefault("export.s3.secret_access_key", "")
	v.SetDefault("report.title", "Form Submissions Report")
	v.SetDefault("report.intro", "")
	v.SetDefault("report.theme", "")
	v.SetDefault("report.variant", "")
	v.SetDefault("preview.addr", "127.0.0.1:8787")
}

// Default returns the built-in configuration without consulting files or the
// environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		paths := opts.SearchPaths
		if paths == nil {
			paths = defaultSearchPaths()
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		v.SetConfigName("formbuilder")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	c.Export.Sink = strings.ToLower(strings.TrimSpace(c.Export.Sink))
	if err := Validate(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks c and returns a combined error listing every problem.
func Validate(c Config) error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("config: validate: %w", err)
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s failed %s", keyPath(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("config: invalid: %s", strings.Join(parts, ", "))
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "formbuilder"))
	}
	return paths
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterStructValidation(func(sl validator.StructLevel) {
			cfg := sl.Current().Interface().(ExportConfig)
			if cfg.Sink == "s3" && strings.TrimSpace(cfg.S3.Bucket) == "" {
				sl.ReportError(cfg.S3.Bucket, "s3.bucket", "Bucket", "required_for_s3", "")
			}
		}, ExportConfig{})
	})
	return validate
}

// keyPath turns a validator namespace into a config key.
func keyPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

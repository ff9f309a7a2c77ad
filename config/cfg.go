package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"impdex/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	DocumentConfig struct {
		Title    string `yaml:"title" validate:"required"`
		Language string `yaml:"language" validate:"required,bcp47_language_tag"`
	}

	DescriptionsConfig struct {
		Enable    bool `yaml:"enable"`
		MaxLength int  `yaml:"max_length" validate:"min=40,max=320"`
	}

	RenderConfig struct {
		InjectMode     InjectMode         `yaml:"inject_mode" validate:"gte=0"`
		Descriptions   DescriptionsConfig `yaml:"descriptions"`
		StylesheetPath string             `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		Sitemap        bool               `yaml:"sitemap"`
		SitemapBaseURL string             `yaml:"sitemap_base_url" validate:"omitempty,url"`
	}

	AssetsConfig struct {
		Optimize              bool    `yaml:"optimize"`
		JPEGQuality           int     `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
		ScaleFactor           float64 `yaml:"scale_factor" validate:"gte=0.0"`
		RemovePNGTransparency bool    `yaml:"remove_png_transparency"`
	}

	OutputConfig struct {
		Format             common.OutputFmt `yaml:"format" validate:"gte=0"`
		Destination        string           `yaml:"destination,omitempty" sanitize:"path_clean"`
		BundleNameTemplate string           `yaml:"bundle_name_template"`
		SlugNames          bool             `yaml:"slug_names"`
	}

	IndexConfig struct {
		Enable      bool   `yaml:"enable"`
		Destination string `yaml:"destination,omitempty" sanitize:"path_clean" validate:"omitempty,filepath"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Render    RenderConfig   `yaml:"render"`
		Assets    AssetsConfig   `yaml:"assets"`
		Output    OutputConfig   `yaml:"output"`
		Index     IndexConfig    `yaml:"index"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	BundleNameTemplateFieldName TemplateFieldName = "bundle_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(BundleNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

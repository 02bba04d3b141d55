// Package config defines the application configuration and loads it from a
// YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iwvelando/adu-proposal/internal/proposal"
	"github.com/iwvelando/adu-proposal/internal/templating"
	"github.com/iwvelando/adu-proposal/pkg/constants"
	"github.com/iwvelando/adu-proposal/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for adu-proposal.
type Configuration struct {
	Logging  LoggingConfig    `mapstructure:"logging" yaml:"logging,omitempty"`
	Output   OutputConfig     `mapstructure:"output" yaml:"output,omitempty"`
	Pricing  PricingConfig    `mapstructure:"pricing" yaml:"pricing,omitempty"`
	Template TemplateConfig   `mapstructure:"template" yaml:"template,omitempty"`
	Server   ServerConfig     `mapstructure:"server" yaml:"server,omitempty"`
	Company  proposal.Company `mapstructure:"company" yaml:"company,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// PricingConfig selects where the pricing configuration is persisted.
type PricingConfig struct {
	Store string `mapstructure:"store" yaml:"store,omitempty"` // file, sqlite
	Path  string `mapstructure:"path" yaml:"path,omitempty"`
}

// TemplateConfig selects the proposal template and how it is rendered. An
// empty Path uses the built-in template.
type TemplateConfig struct {
	Path               string `mapstructure:"path" yaml:"path,omitempty"`
	templating.Options `mapstructure:",squash" yaml:",inline"`
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address       string `mapstructure:"address" yaml:"address,omitempty"`
	MaxUploadSize string `mapstructure:"maxUploadSize" yaml:"maxUploadSize,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("pricing.store", constants.PricingStoreFile)
	v.SetDefault("pricing.path", constants.DefaultPricingConfigFile)
	v.SetDefault("template.path", "")
	v.SetDefault("template.strictValidation", false)
	v.SetDefault("template.cleanupUnresolved", true)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes))
	v.SetDefault("company.name", "")
	v.SetDefault("company.phone", "")
	v.SetDefault("company.email", "")
	v.SetDefault("company.license", "")
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults. Environment
// variables such as ADU_PRICING_STORE override both.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate rejects settings the application cannot run with.
func (c *Configuration) Validate() error {
	var errs []error
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if err := validation.ValidatePricingStore(c.Pricing.Store, c.Pricing.Path); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	warnings := validation.PricingStoreWarnings(c.Pricing.Store, c.Pricing.Path)

	if strings.TrimSpace(c.Company.Name) == "" {
		warnings = append(warnings, "company name is empty, proposals will not name the contractor")
	}
	if c.Template.StrictValidation && c.Template.CleanupUnresolved {
		warnings = append(warnings, "template cleanupUnresolved is ignored when strictValidation is enabled")
	}
	if c.Template.Path != "" {
		if _, err := os.Stat(c.Template.Path); err != nil {
			warnings = append(warnings, fmt.Sprintf("proposal template %s is not readable: %v", c.Template.Path, err))
		}
	}
	return warnings
}

// LoadTemplate returns the configured proposal template, or "" when the
// built-in template should be used.
func (c *Configuration) LoadTemplate() (string, error) {
	if c.Template.Path == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Template.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read proposal template: %w", err)
	}
	return string(data), nil
}

// Package config provides connector-specific configurations that embed BaseConfig
package config

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// Credential keys understood by the OpenDota source.
const (
	KeyBaseURL    = "base_url"
	KeyPlayerID   = "player_id"
	KeyMatchID    = "match_id"
	KeyAPIKey     = "api_key"
	KeyDatasets   = "datasets"
	KeySomeOption = "SomeOption"
)

// Defaults for the OpenDota source.
const (
	DefaultBaseURL  = "https://api.opendota.com/api"
	DefaultPlayerID = "95365420"
)

// OpenDotaSourceConfig is the resolved configuration of one source run
type OpenDotaSourceConfig struct {
	BaseConfig `yaml:",inline" json:",inline"`

	BaseURL    string   `yaml:"base_url" json:"base_url"`
	PlayerID   string   `yaml:"player_id" json:"player_id"`
	MatchID    string   `yaml:"match_id" json:"match_id"`
	APIKey     string   `yaml:"api_key" json:"-"`
	SomeOption string   `yaml:"some_option" json:"some_option"`
	Datasets   []string `yaml:"datasets" json:"datasets"`
}

// NewOpenDotaSourceConfig resolves the source fields from the credentials
// map of base, applying defaults and validating ids.
func NewOpenDotaSourceConfig(base *BaseConfig) (*OpenDotaSourceConfig, error) {
	if base == nil {
		base = NewBaseConfig("opendota", "opendota")
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	sec := &base.Security
	cfg := &OpenDotaSourceConfig{
		BaseConfig: *base,
		BaseURL:    strings.TrimRight(sec.Credential(KeyBaseURL, DefaultBaseURL), "/"),
		PlayerID:   sec.Credential(KeyPlayerID, DefaultPlayerID),
		MatchID:    sec.Credential(KeyMatchID, ""),
		APIKey:     sec.Credential(KeyAPIKey, ""),
		SomeOption: sec.Credential(KeySomeOption, ""),
	}

	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, errors.New(errors.ErrorTypeConfig, "base_url must be an http or https URL").
			WithDetail("base_url", cfg.BaseURL)
	}
	if _, err := strconv.ParseUint(cfg.PlayerID, 10, 64); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "player_id must be a numeric account id").
			WithDetail("player_id", cfg.PlayerID)
	}
	if cfg.MatchID != "" {
		if _, err := strconv.ParseUint(cfg.MatchID, 10, 64); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "match_id must be numeric").
				WithDetail("match_id", cfg.MatchID)
		}
	}

	if raw := sec.Credential(KeyDatasets, ""); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Datasets = append(cfg.Datasets, name)
			}
		}
	}

	return cfg, nil
}

// Output credential keys understood by the file destinations.
const (
	KeyPath   = "path"
	KeyFormat = "format"
	KeyPretty = "pretty"
)

// FileDestinationConfig is the resolved configuration of the json and csv destinations
type FileDestinationConfig struct {
	BaseConfig `yaml:",inline" json:",inline"`

	Directory   string `yaml:"path" json:"path"`
	Format      string `yaml:"format" json:"format"`
	Pretty      bool   `yaml:"pretty" json:"pretty"`
	Compression string `yaml:"compression" json:"compression"`
	Level       string `yaml:"compression_level" json:"compression_level"`
	WriteSchema bool   `yaml:"write_schema" json:"write_schema"`
}

// NewFileDestinationConfig resolves the destination fields from base
func NewFileDestinationConfig(base *BaseConfig, defaultFormat string) (*FileDestinationConfig, error) {
	if base == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "destination config is required")
	}
	sec := &base.Security
	cfg := &FileDestinationConfig{
		BaseConfig:  *base,
		Directory:   sec.Credential(KeyPath, ""),
		Format:      sec.Credential(KeyFormat, defaultFormat),
		Pretty:      sec.Credential(KeyPretty, "false") == "true",
		Compression: "none",
		Level:       base.Advanced.CompressionLevel,
		WriteSchema: true,
	}
	if cfg.Directory == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "path is required for file destinations")
	}
	if base.Advanced.IsCompressionEnabled() {
		cfg.Compression = base.Advanced.CompressionAlgorithm
	}
	return cfg, nil
}

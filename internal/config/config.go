// Package config loads the ZapDesk configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full ZapDesk configuration.
type Config struct {
	DevOps struct {
		OrganizationURL string `mapstructure:"organization_url"`
		Project         string `mapstructure:"project"`
		WorkItemType    string `mapstructure:"work_item_type"`
		SupportTag      string `mapstructure:"support_tag"`
	} `mapstructure:"devops"`
	Webhook struct {
		Addr           string   `mapstructure:"addr"`
		JWTSecret      string   `mapstructure:"jwt_secret"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"webhook"`
	Report struct {
		DBPath     string      `mapstructure:"db_path"`
		SLATargets map[int]int `mapstructure:"sla_targets"` // priority -> hours to resolution
	} `mapstructure:"report"`
	Tips struct {
		Agents map[string]string `mapstructure:"agents"` // agent unique name -> lightning address
	} `mapstructure:"tips"`
}

// Load reads the configuration file from the given path (or the default
// search locations when path is empty). Environment variables prefixed
// with ZAPDESK_ override file values, e.g. ZAPDESK_DEVOPS_PROJECT.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("zapdesk")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/zapdesk")
	}

	v.SetEnvPrefix("ZAPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine when no explicit path was given; env
		// vars and defaults may be enough.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.DevOps.OrganizationURL == "" {
		return nil, fmt.Errorf("devops.organization_url is required (e.g. https://dev.azure.com/myorg)")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("devops.work_item_type", "Issue")
	v.SetDefault("devops.support_tag", "support")
	v.SetDefault("webhook.addr", ":8700")
	v.SetDefault("report.db_path", "zapdesk.db")
	v.SetDefault("report.sla_targets", map[int]int{1: 4, 2: 24, 3: 72, 4: 168})
}

// Package config provides configuration management for the OpenDota connector.
//
// # Key Features
//
// - BaseConfig: one configuration structure shared by the source and the destinations
// - Structured sections: Performance, Timeouts, Reliability, Security, Observability, Advanced
// - Environment variable substitution with ${VAR_NAME} and ${VAR_NAME:-default}
// - Defaults and validation
//
// # Usage
//
//	cfg := config.NewBaseConfig("opendota", "opendota")
//	if err := config.Load("opendota.yaml", cfg); err != nil {
//		log.Fatal(err)
//	}
//	src, err := config.NewOpenDotaSourceConfig(cfg)
//
// Host options (the Evidence connection options) are merged with
// SecurityConfig.ApplyOptions, which overrides file values key by key.
//
// # YAML
//
//	name: opendota
//	type: opendota
//	performance:
//	  max_concurrency: 4
//	timeouts:
//	  request: 15s
//	reliability:
//	  fail_fast: false
//	  rate_limit_per_sec: 1
//	security:
//	  credentials:
//	    player_id: "95365420"
//	    api_key: "${OPENDOTA_API_KEY}"
//	    base_url: "${OPENDOTA_BASE_URL:-https://api.opendota.com/api}"
package config

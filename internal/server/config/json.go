package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avolkovs/pennywise/internal/flagx"
	"github.com/avolkovs/pennywise/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c/-config flags. Missing flag means no JSON is loaded.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.AccessTokenValidityDuration.Duration != 0 {
		cfg.AccessTokenValidityDuration = time.Duration(jc.AccessTokenValidityDuration.Duration)
	}
	if jc.RefreshTokenValidityDuration.Duration != 0 {
		cfg.RefreshTokenValidityDuration = time.Duration(jc.RefreshTokenValidityDuration.Duration)
	}
	if jc.S3RootUser != "" {
		cfg.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		cfg.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		cfg.S3BaseEndpoint = jc.S3BaseEndpoint
	}
}

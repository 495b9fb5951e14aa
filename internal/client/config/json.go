package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avolkovs/pennywise/internal/flagx"
	"github.com/avolkovs/pennywise/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointURL   string         `json:"server_endpoint_url"`
	DatabasePath        string         `json:"database_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c/-config flags. Missing flag means no JSON is loaded. Panics on read
// or unmarshal errors. Intended usage is defaults -> parseJson -> parseFlags,
// where later stages override earlier ones.
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

	if jc.ServerEndpointURL != "" {
		cfg.ServerEndpointURL = jc.ServerEndpointURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
}

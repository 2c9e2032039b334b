// Package config provides centralized configuration for the NEPSE tools.
//
// # Configuration Sources
//
// Configuration is assembled in the following order (later sources win):
//
//	1. Default values (Default)
//	2. A YAML file (config.yaml, configs/config.yaml, or an explicit path)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern NEPSE_<SECTION>_<FIELD>:
//
//	NEPSE_PATHS_DATA_DIR=/srv/nepse/stock_data
//	NEPSE_INDICATORS_RSI_WINDOW=14
//	NEPSE_STANDARDIZER_WORKERS=8
//	NEPSE_LOGGING_LEVEL=debug
//	NEPSE_SCHEDULE_ENABLED=true
//
// # Validation
//
// Load validates the result with go-playground/validator struct tags plus
// cross-field checks (the fast EMA span must be shorter than the slow one).
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.ResolvePaths(cfg.Paths)
package config

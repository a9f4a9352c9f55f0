// Package config provides centralized configuration management for the
// Samarth insights service. It loads configuration from multiple sources,
// validates it, and exposes a type-safe API for the rest of the application.
//
// # Configuration Sources
//
// Configuration is loaded in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (samarth.yaml or SAMARTH_CONFIG_FILE)
//	3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables are namespaced under SAMARTH_*:
//
//	SAMARTH_SERVER_PORT=8080
//	SAMARTH_LOGGING_LEVEL=info
//	SAMARTH_PATHS_DATA_DIR=data
//	SAMARTH_DATASETS_RAINFALL_URL=https://data.gov.in/api/datastore/resource.json?...
//
// # Datasets
//
// The Datasets section points at the two data.gov.in resources (district
// rainfall and state crop production) and their local cache files. Download
// URLs are optional: with an empty URL the loader uses the cache file alone
// and reports the manual download page when the file is missing.
package config

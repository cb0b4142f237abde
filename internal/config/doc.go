// Package config loads bdexports configuration.
//
// Values are layered, later sources winning:
//
//  1. Default()
//  2. config.yaml or configs/config.yaml (yaml.v2)
//  3. .env in the working directory (godotenv)
//  4. BDX_* environment variables (envconfig)
//
// Nested sections map to prefixed variables, for example:
//
//	BDX_PIPELINE_INPUT_DIR=data/product_wise
//	BDX_PIPELINE_WORKERS=4
//	BDX_LOGGING_LEVEL=debug
//	BDX_STORE_DRIVER=sqlite
//	BDX_STORE_DSN=data/bdexports.db
//	BDX_PUBLISH_BUCKET=exports
//
// Paths resolves the on-disk data layout; ApplyDefaults fills any path the
// configuration left empty. Command-line flags override both.
package config

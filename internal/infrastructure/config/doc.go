// Package config loads and validates ParkPilot Core configuration.
//
// Configuration is layered: hardcoded defaults, then a YAML file, then
// PARKPILOT_* environment variable overrides. Validation collects every
// problem into a single error so a broken deployment can be fixed in one
// pass.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

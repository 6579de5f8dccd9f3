// Package config loads CLI settings from defaults, formbuilder.yaml, a .env
// file and FORMBUILDER_* environment variables.
package config

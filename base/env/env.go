// Package env resolves where the ledger process runs. Environment variables
// set by the deployment take precedence over the loaded config file.
package env

import (
	"os"

	"github.com/spf13/viper"
)

// PodName is the kubernetes pod name, e.g. ledger-api-6868d88fbd-bz8zv.
// Outside kubernetes the hostname is used.
func PodName() string {
	if p := os.Getenv("PODNAME"); p != "" {
		return p
	}
	h, _ := os.Hostname()
	return h
}

// EnvName is the deployment environment, e.g. staging
func EnvName() string {
	return lookup("ENV_NAME", "env_name")
}

// AppName is the service name, e.g. ledger
func AppName() string {
	return lookup("APP_NAME", "app_name")
}

func lookup(envKey, configKey string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return viper.GetString(configKey)
}

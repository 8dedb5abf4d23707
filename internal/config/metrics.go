package config

import (
	"fmt"
	"net"

	"github.com/spf13/viper"
)

type MetricsConfig struct {
	Addr string
}

func (c MetricsConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("missing Prometheus address")
	}

	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid Prometheus address: %w", err)
	}

	return nil
}

func LoadMetricsConfigFromCLI() MetricsConfig {
	return MetricsConfig{
		Addr: viper.GetString("prometheus-addr"),
	}
}

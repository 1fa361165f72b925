package gateway

import (
	"coinsage/sources/platform"
)

type GatewayConfig struct {
	APIPort     int
	StartupPort int
	MetricsPort int
}

func NewGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		APIPort:     platform.GetAsInt("GATEWAY_API_PORT", 8080),
		StartupPort: platform.GetAsInt("GATEWAY_STARTUP_PORT", 10000),
		MetricsPort: platform.GetAsInt("GATEWAY_METRICS_PORT", 10001),
	}
}

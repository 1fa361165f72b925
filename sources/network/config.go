package network

import (
	"time"

	"coinsage/sources/platform"
)

type ClientConfig struct {
	ProxyAddress string
	ProxyUser    string
	ProxyPass    string
	Timeout      time.Duration
}

func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		ProxyAddress: platform.Get("PROXY_ADDRESS", ""),
		ProxyUser:    platform.Get("PROXY_USER", ""),
		ProxyPass:    platform.Get("PROXY_PASS", ""),
		Timeout:      platform.GetAsDuration("HTTP_CLIENT_TIMEOUT", "30s"),
	}
}

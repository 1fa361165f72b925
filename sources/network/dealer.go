package network

import (
	"coinsage/sources/tracing"

	"golang.org/x/net/proxy"
)

// NewProxyDialer returns a SOCKS5 dialer when PROXY_ADDRESS is configured,
// otherwise the direct dialer.
func NewProxyDialer(config *ClientConfig, log *tracing.Logger) proxy.Dialer {
	if config.ProxyAddress == "" {
		return proxy.Direct
	}

	var auth *proxy.Auth
	if config.ProxyUser != "" {
		auth = &proxy.Auth{User: config.ProxyUser, Password: config.ProxyPass}
	}

	dialer, err := proxy.SOCKS5("tcp", config.ProxyAddress, auth, proxy.Direct)
	if err != nil {
		log.F("Failed to create proxy dialer", tracing.InnerError, err)
	}

	log.I("Outbound traffic routed through proxy", tracing.ProxyUrl, config.ProxyAddress)
	return dialer
}

package ratelimit

import "strings"

// unlimited is returned for probes that must never be throttled.
var unlimited = EndpointConfig{}

// MatchEndpoint finds the configuration for a request. Exact paths win over
// prefixes. Returns nil when the default limit applies.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && (path == "/health" || path == "/metrics") {
		return &unlimited
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}

package targets

import (
	"strings"

	"github.com/samvad-hq/restkit/pkg/httpclient"
	"github.com/samvad-hq/restkit/pkg/maputil"
)

// ConfigString returns the trimmed string value for key from target.Config or a fallback.
func ConfigString(t Target, key, fallback string) string {
	if val, ok := maputil.GetOrDefault(t.Config, key).(string); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

const (
	ConfigUserAgentKey      = "user_agent"
	ConfigAcceptKey         = "accept"
	ConfigAcceptLanguageKey = "accept_language"
	ConfigCacheControlKey   = "cache_control"
)

// Headers builds request headers from the target config, then applies explicit headers on top.
func Headers(t Target) map[string]string {
	headers := make(map[string]string, 4+len(t.Headers))

	if v := ConfigString(t, ConfigUserAgentKey, ""); v != "" {
		headers["User-Agent"] = v
	}
	if v := ConfigString(t, ConfigAcceptKey, ""); v != "" {
		headers["Accept"] = v
	}
	if v := ConfigString(t, ConfigAcceptLanguageKey, ""); v != "" {
		headers["Accept-Language"] = v
	}
	if v := ConfigString(t, ConfigCacheControlKey, ""); v != "" {
		headers["Cache-Control"] = v
	}
	for k, v := range t.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		headers[k] = v
	}

	return headers
}

// Request converts a target into an httpclient request.
func Request(t Target) httpclient.Request {
	req := httpclient.Request{
		Method:  t.Method,
		URL:     t.URL,
		Headers: Headers(t),
	}
	if t.Body != "" {
		req.Body = []byte(t.Body)
	}
	return req
}

package middleware

import (
	"encoding/json"
	"net/url"
	"strings"
)

const redactedValue = "***"

// sensitiveKeys are compared after lowercasing and mapping '-' to '_'.
var sensitiveKeys = map[string]struct{}{
	"token":                       {},
	"api_token":                   {},
	"apitoken":                    {},
	"secret":                      {},
	"api_secret":                  {},
	"api_secret_key":              {},
	"apisecretkey":                {},
	"api_key":                     {},
	"x_gateway_key":               {},
	"admin_key":                   {},
	"x_admin_key":                 {},
	"x_shareasale_authentication": {},
	"signature":                   {},
}

func isSensitiveKey(key string) bool {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
	_, ok := sensitiveKeys[k]
	return ok
}

func redactQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	out := make(url.Values, len(values))
	for key, vals := range values {
		if isSensitiveKey(key) {
			out[key] = []string{redactedValue}
			continue
		}
		out[key] = vals
	}
	return out.Encode()
}

// redactAuditBody keeps JSON error bodies with credentials masked. Anything
// that is not JSON (a raw upstream payload) is dropped.
func redactAuditBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return "[redacted]"
	}
	out, err := json.Marshal(redact(data))
	if err != nil {
		return "[redacted]"
	}
	return string(out)
}

func redact(v any) any {
	switch raw := v.(type) {
	case map[string]any:
		for key, val := range raw {
			if isSensitiveKey(key) {
				raw[key] = redactedValue
			} else {
				raw[key] = redact(val)
			}
		}
	case []any:
		for i, val := range raw {
			raw[i] = redact(val)
		}
	}
	return v
}

package tools

import "time"

const (
	callTimeout   = 10 * time.Second
	searchTimeout = 15 * time.Second
)

// valueOr returns obj[key] as decoded, or def when the key is absent or null.
func valueOr(obj map[string]any, key string, def any) any {
	if v, ok := obj[key]; ok && v != nil {
		return v
	}
	return def
}

package koanfutil

import (
	"slices"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// nestingSeparator separates config sections in environment variable names.
// Single underscores stay part of the key.
const nestingSeparator = "__"

// Env returns a koanf.Provider reading variables that start with prefix.
//
// Names map to keys by stripping prefix, lowercasing, and turning "__" into
// the "." delimiter:
//
//	COFFEESHOP_AUTH__JWKS_URL=... → auth.jwks_url
//
// Values of keys listed in listKeys are split on commas into a []string.
func Env(prefix string, listKeys ...string) koanf.Provider {
	return env.ProviderWithValue(prefix, ".", func(name, value string) (string, any) {
		key := EnvKey(prefix, name)
		if slices.Contains(listKeys, key) {
			return key, splitList(value)
		}
		return key, value
	})
}

// EnvKey converts an environment variable name to a koanf key.
func EnvKey(prefix, name string) string {
	name = strings.TrimPrefix(name, prefix)
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, nestingSeparator, ".")
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Package koanfutil provides koanf providers used to layer service configuration:
// struct defaults, prefixed environment variables and file:// secret references.
package koanfutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/v2"
)

const fileURIPrefix = "file://"

// fileResolver implements koanf.Provider for resolving file:// URIs.
type fileResolver struct {
	k *koanf.Koanf
}

// FileResolver returns a koanf.Provider that resolves file:// URIs
// in string values to their file contents.
//
// Usage:
//
//	k := koanf.New(".")
//	k.Load(file.Provider("config.yaml"), yaml.Parser())
//	k.Load(koanfutil.FileResolver(k), nil)
//
// String values like "file:///run/secrets/database_dsn" are replaced
// with the trimmed contents of /run/secrets/database_dsn. Strings inside
// lists are resolved too. Errors name the dotted key that failed.
func FileResolver(k *koanf.Koanf) koanf.Provider {
	return &fileResolver{k: k}
}

// Read returns config with all file:// URIs resolved.
func (r *fileResolver) Read() (map[string]any, error) {
	return r.resolveMap("", r.k.Raw())
}

// ReadBytes is not supported for this provider.
func (r *fileResolver) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("koanfutil: ReadBytes not supported")
}

func (r *fileResolver) resolveMap(path string, m map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(m))
	for key, val := range m {
		resolved, err := r.resolveValue(joinKey(path, key), val)
		if err != nil {
			return nil, err
		}
		result[key] = resolved
	}
	return result, nil
}

func (r *fileResolver) resolveValue(path string, val any) (any, error) {
	switch v := val.(type) {
	case string:
		resolved, err := readFileURI(v)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		return resolved, nil
	case map[string]any:
		return r.resolveMap(path, v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := r.resolveValue(fmt.Sprintf("%s[%d]", path, i), item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			resolved, err := readFileURI(item)
			if err != nil {
				return nil, fmt.Errorf("resolve %s[%d]: %w", path, i, err)
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// readFileURI returns s unchanged unless it is a file:// URI.
func readFileURI(s string) (string, error) {
	path, ok := strings.CutPrefix(s, fileURIPrefix)
	if !ok {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

package task

import (
	"fmt"
	"net/url"
	"strings"
)

// keySeparator joins the parent-name component to the task name. Components
// are escaped before joining, so a literal "::" inside a name never collides
// with the separator.
const keySeparator = "::"

// MapKey builds the unescaped composite key used for in-memory lookup:
// "name" for a top-level task, "parent::name" for a subtask.
func MapKey(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + keySeparator + name
}

// EncodeKey builds the store document key for a composite task key. Each
// component is query-escaped so arbitrary names (spaces, slashes, separator
// sequences) survive the round trip.
func EncodeKey(parent, name string) string {
	if parent == "" {
		return url.QueryEscape(name)
	}
	return url.QueryEscape(parent) + keySeparator + url.QueryEscape(name)
}

// DecodeKey reverses EncodeKey.
func DecodeKey(encoded string) (parent, name string, err error) {
	parts := strings.Split(encoded, keySeparator)
	switch len(parts) {
	case 1:
		name, err = url.QueryUnescape(parts[0])
		if err != nil {
			return "", "", fmt.Errorf("decode task key %q: %w", encoded, err)
		}
		return "", name, nil
	case 2:
		parent, err = url.QueryUnescape(parts[0])
		if err == nil {
			name, err = url.QueryUnescape(parts[1])
		}
		if err != nil {
			return "", "", fmt.Errorf("decode task key %q: %w", encoded, err)
		}
		return parent, name, nil
	default:
		return "", "", fmt.Errorf("decode task key %q: too many separators", encoded)
	}
}

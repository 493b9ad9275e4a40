package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidOverride = errors.New("invalid override")

// Overrides is a read-only view of environment style settings such as
// ARDANA_CCN_MEMORY or ARDANA_IDLE_INTF_3. Empty values count as unset.
type Overrides struct {
	values map[string]string
}

func NewOverrides(values map[string]string) Overrides {
	copied := make(map[string]string, len(values))
	for key, value := range values {
		copied[strings.ToUpper(key)] = value
	}
	return Overrides{values: copied}
}

func (o Overrides) String(key string) (string, bool) {
	value, ok := o.values[strings.ToUpper(key)]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (o Overrides) StringOr(key, fallback string) string {
	if value, ok := o.String(key); ok {
		return value
	}
	return fallback
}

func (o Overrides) Int(key string) (int, bool, error) {
	value, ok := o.String(key)
	if !ok {
		return 0, false, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidOverride, key, value)
	}

	return n, true, nil
}

// Flag reports whether key is set to "1", the convention used by the CI
// scripts for boolean switches.
func (o Overrides) Flag(key string) bool {
	value, _ := o.String(key)
	return strings.TrimSpace(value) == "1"
}

// List splits the value of key on sep, dropping blank entries.
func (o Overrides) List(key, sep string) []string {
	value, ok := o.String(key)
	if !ok {
		return nil
	}

	items := make([]string, 0)
	for _, item := range strings.Split(value, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Fields splits the value of key on sep keeping empty positions, so that
// callers can fall back per index.
func (o Overrides) Fields(key, sep string) []string {
	value, ok := o.String(key)
	if !ok {
		return nil
	}

	fields := strings.Split(value, sep)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if errs := c.validate(); len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) validate() []string {
	var errs []string

	// limits
	l := c.Limits
	if l.RequestsPerWindow < 0 {
		errs = append(errs, "limits.requestsPerWindow must be non-negative")
	}
	if l.WindowSeconds < 0 {
		errs = append(errs, "limits.windowSeconds must be non-negative")
	}

	// media
	m := c.Media
	if m.SizeBudgetMB < 0 {
		errs = append(errs, "media.sizeBudgetMB must be non-negative")
	}
	if m.MaxHeight < 0 {
		errs = append(errs, "media.maxHeight must be non-negative")
	}
	if m.FetchTimeoutSeconds < 0 {
		errs = append(errs, "media.fetchTimeoutSeconds must be non-negative")
	}
	if m.CRF != "" {
		if crf, err := strconv.Atoi(m.CRF); err != nil || crf < 0 || crf > 51 {
			errs = append(errs, "media.crf must be an integer between 0 and 51")
		}
	}

	return errs
}

// CheckUnknownFields walks the raw config map and returns paths of any keys
// that do not correspond to known Config struct fields.
func CheckUnknownFields(raw map[string]any) []string {
	result := checkUnknownFields(raw, reflect.TypeOf(Config{}), "")
	sort.Strings(result)
	return result
}

func checkUnknownFields(data map[string]any, t reflect.Type, prefix string) []string {
	t = derefType(t)

	switch t.Kind() {
	case reflect.Map:
		elemType := derefType(t.Elem())
		if elemType.Kind() != reflect.Struct {
			return nil
		}
		var unknown []string
		for key, val := range data {
			if nested, ok := val.(map[string]any); ok {
				unknown = append(unknown, checkUnknownFields(nested, elemType, joinPath(prefix, key))...)
			}
		}
		return unknown

	case reflect.Struct:
		known := jsonFieldMap(t)
		var unknown []string
		for key, val := range data {
			ft, ok := known[key]
			if !ok {
				unknown = append(unknown, joinPath(prefix, key))
				continue
			}
			if nested, ok := val.(map[string]any); ok {
				unknown = append(unknown, checkUnknownFields(nested, ft, joinPath(prefix, key))...)
			}
		}
		return unknown

	default:
		return nil
	}
}

func jsonFieldMap(t reflect.Type) map[string]reflect.Type {
	m := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			m[name] = f.Type
		}
	}
	return m
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

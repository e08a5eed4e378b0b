// internal/config/duration.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// parseDurationFlexible accepts strings like "90s"/"2m", numeric seconds, or
// time.Duration. Returns def on empty/unknown types; returns def + error on
// invalid strings or non-positive values.
func parseDurationFlexible(raw interface{}, def time.Duration) (time.Duration, error) {
	switch t := raw.(type) {
	case time.Duration:
		if t <= 0 {
			return def, fmt.Errorf("duration must be >0")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		if d, err := time.ParseDuration(s); err == nil {
			if d <= 0 {
				return def, fmt.Errorf("duration must be >0")
			}
			return d, nil
		}
		// Allow plain seconds in string form, e.g. "120".
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			if n <= 0 {
				return def, fmt.Errorf("seconds must be >0")
			}
			return time.Duration(n) * time.Second, nil
		}
		return def, fmt.Errorf("cannot parse duration %q", s)
	case int:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t) * time.Second, nil
	case int64:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t) * time.Second, nil
	case float64:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t * float64(time.Second)), nil
	default:
		return def, nil
	}
}

// parseTTL parses cache_ttl, where 0 (caching disabled) is a valid value.
// Anything unparseable disables caching with a warning.
func parseTTL(logger *zap.Logger, raw interface{}) time.Duration {
	switch t := raw.(type) {
	case time.Duration:
		if t < 0 {
			return 0
		}
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" || s == "0" {
			return 0
		}
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	case int:
		if t > 0 {
			return time.Duration(t) * time.Second
		}
		return 0
	case int64:
		if t > 0 {
			return time.Duration(t) * time.Second
		}
		return 0
	case nil:
		return 0
	}
	if logger != nil {
		logger.Warn("invalid cache_ttl; caching disabled", zap.Any("value", raw))
	}
	return 0
}

package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	value, err := ParseOptionalQueryInt(r, key, min, max)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return defaultVal, nil
	}
	return *value, nil
}

// ParseOptionalQueryInt returns nil when key is absent or blank.
func ParseOptionalQueryInt(r *http.Request, key string, min, max int) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return &value, nil
}

// QueryString returns the sanitized value of key.
func QueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}

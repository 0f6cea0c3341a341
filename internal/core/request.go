// AngelaMos | 2026
// request.go

package core

import (
	"net/http"
	"strconv"
)

func QueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

// QueryFloat returns nil when key is absent or unparsable.
func QueryFloat(r *http.Request, key string) *float64 {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}

	return &parsed
}

func QueryBool(r *http.Request, key string) *bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}

	return &parsed
}

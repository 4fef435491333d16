package http

import (
	"net/http"
	"strconv"

	apperrors "autoquote/pkg/errors"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ExtractLimitOffset reads ?limit and ?offset, clamping limit to
// [1, MaxPageLimit] and offset to >= 0.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return NormalizeLimit(limit), max(0, offset), nil
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	return min(limit, MaxPageLimit)
}

package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"autoquote/pkg/logger"
	"autoquote/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteValidator_Validate(t *testing.T) {
	v := NewQuoteValidator(logger.Discard())
	v.now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }

	valid := func() *model.QuoteRequest {
		return &model.QuoteRequest{
			Username: "Ana",
			Phone:    "+351912345678",
			CarInfo:  "Honda Civic\n5 portas",
			Year:     "2010",
		}
	}

	tests := []struct {
		name       string
		mutate     func(r *model.QuoteRequest)
		wantFields []string
	}{
		{name: "valid", mutate: func(r *model.QuoteRequest) {}},
		{name: "only required fields", mutate: func(r *model.QuoteRequest) { r.Username = ""; r.Year = "" }},
		{
			name:       "missing phone and car info",
			mutate:     func(r *model.QuoteRequest) { r.Phone = ""; r.CarInfo = "" },
			wantFields: []string{"phone", "carro_info"},
		},
		{
			name:       "phone not e164",
			mutate:     func(r *model.QuoteRequest) { r.Phone = "912 345 678" },
			wantFields: []string{"phone"},
		},
		{
			name:       "username too long",
			mutate:     func(r *model.QuoteRequest) { r.Username = strings.Repeat("a", 81) },
			wantFields: []string{"username"},
		},
		{
			name:       "condition too long",
			mutate:     func(r *model.QuoteRequest) { r.Condition = strings.Repeat("b", 21) },
			wantFields: []string{"condition"},
		},
		{
			name:       "year with letters",
			mutate:     func(r *model.QuoteRequest) { r.Year = "20x0" },
			wantFields: []string{"ano"},
		},
		{
			name:       "year too long",
			mutate:     func(r *model.QuoteRequest) { r.Year = "20100" },
			wantFields: []string{"ano"},
		},
		{
			name:       "year in the future",
			mutate:     func(r *model.QuoteRequest) { r.Year = "2030" },
			wantFields: []string{"ano"},
		},
		{
			name:       "year before the first car",
			mutate:     func(r *model.QuoteRequest) { r.Year = "1800" },
			wantFields: []string{"ano"},
		},
		{name: "next model year", mutate: func(r *model.QuoteRequest) { r.Year = "2027" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)

			err := v.Validate(req)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
			assert.Len(t, verrs, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.True(t, verrs.Has(f), "missing error for %s in %v", f, verrs)
			}
		})
	}
}

func TestQuoteValidator_Messages(t *testing.T) {
	v := NewQuoteValidator(logger.Discard())

	err := v.Validate(&model.QuoteRequest{Phone: "+351912345678", CarInfo: "Civic", Color: strings.Repeat("c", 51)})

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "color", verrs[0].Field)
	assert.Equal(t, "must be at most 50 characters", verrs[0].Message)
	assert.Equal(t, "color: must be at most 50 characters", verrs[0].Error())
}

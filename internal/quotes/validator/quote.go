package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"autoquote/pkg/logger"
	"autoquote/pkg/model"

	"github.com/go-playground/validator/v10"
)

// FirstCarYear is the oldest model year accepted in a quote.
const FirstCarYear = 1886

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

// Has reports whether field failed validation.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

type QuoteValidator struct {
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

func NewQuoteValidator(log *logger.Logger) *QuoteValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &QuoteValidator{
		validate: v,
		log:      log,
		now:      time.Now,
	}
}

func (v *QuoteValidator) Validate(req *model.QuoteRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(req)
}

func (v *QuoteValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: messageFor(err),
		})
	}

	return validationErrors
}

func messageFor(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "e164":
		return "must be a valid phone number"
	case "numeric":
		return "must contain only digits"
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", err.Param())
		}
		return fmt.Sprintf("must be at most %s", err.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", err.Param())
	default:
		return fmt.Sprintf("failed on %s", err.Tag())
	}
}

func (v *QuoteValidator) validateBusinessRules(req *model.QuoteRequest) error {
	if req.Year == "" {
		return nil
	}

	year, err := strconv.Atoi(req.Year)
	if err != nil {
		return ValidationErrors{{Field: "ano", Message: "must contain only digits"}}
	}

	latest := v.now().Year() + 1
	if year < FirstCarYear || year > latest {
		v.log.Debug("Rejected quote year", "year", year)
		return ValidationErrors{{
			Field:   "ano",
			Message: fmt.Sprintf("must be between %d and %d", FirstCarYear, latest),
		}}
	}

	return nil
}

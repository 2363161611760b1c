package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/auth"
)

// Validation constants.
const (
	MaxEmailLength       = 254
	MaxNameLength        = 50
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxTagLength         = 50
	MaxVitalValueLength  = 64
	MaxUnitLength        = 20
	MaxGoalValueLength   = 100

	DefaultRecordType = "other"
	DateLayout        = "2006-01-02"

	// MaxListLimit caps an explicit page size. A zero limit lists everything.
	MaxListLimit = 100
)

var (
	// tagPattern matches a recordType or vitalType: a lower-case identifier.
	tagPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	// phonePattern is E.164 without separators.
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

	// phoneSeparators are stripped before phonePattern is applied.
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole package.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match what clients sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("tag", func(fl validator.FieldLevel) bool {
		return tagPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}))
	return v
}

// validateInput runs struct-tag validation and converts the first failure to
// an apperror.ValidationFailed naming the offending field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return apperror.ValidationFailed(fe.Field(), validationMessage(fe))
	}
	return fmt.Errorf("validating input: %w", err)
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "tag":
		return fmt.Sprintf("%s must start with a lower-case letter and contain only lower-case letters, digits and underscores", field)
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// normalizeEmail is applied before both storing and looking up an email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone strips common separators so "+1 (555) 123-4567" is stored
// as "+15551234567".
func normalizePhone(phone string) string {
	return phoneSeparators.Replace(strings.TrimSpace(phone))
}

// parseDate parses an already validated YYYY-MM-DD string as a UTC midnight.
func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed(field, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return d, nil
}

// clampLimit bounds an explicit page size; zero or negative means no limit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// authorize enforces that the authenticated caller owns accountID. It runs
// before any repository call so a rejected request reads and writes nothing.
func authorize(ctx context.Context, accountID string) error {
	caller, ok := auth.AccountIDFromContext(ctx)
	if !ok {
		return apperror.Unauthorized("authentication required")
	}
	if caller != accountID {
		return apperror.Forbidden("you do not have access to this account")
	}
	return nil
}

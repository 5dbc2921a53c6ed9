package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

// profile holds the user fields that are validated together.
type profile struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Age   int    `validate:"gte=0"`
}

const passwordRules = "required,min=7,nopassword"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("nopassword", func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
	})
	return v
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkUser validates a profile and, when checkPassword is set, the plain
// password. Every violation ends up in the returned error.
func checkUser(p profile, password string, checkPassword bool) error {
	var violations []string

	if err := validate.Struct(p); err != nil {
		violations = append(violations, describe(err)...)
	}
	if checkPassword {
		if err := validate.Var(password, passwordRules); err != nil {
			violations = append(violations, describe(err)...)
		}
	}

	if len(violations) > 0 {
		return common.NewValidationError(violations...)
	}
	return nil
}

func describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if field == "" {
			field = "password"
		}
		switch fe.Tag() {
		case "required":
			out = append(out, field+" is required")
		case "email":
			out = append(out, "email is invalid")
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "gte":
			out = append(out, field+" must be a positive number")
		case "nopassword":
			out = append(out, `password cannot contain "password"`)
		default:
			out = append(out, field+" is invalid")
		}
	}
	return out
}

// checkPatchKeys fails with ErrInvalidUpdateFields if any key is outside allowed.
func checkPatchKeys(patch map[string]json.RawMessage, allowed ...string) error {
	for key := range patch {
		if !slices.Contains(allowed, key) {
			return common.ErrInvalidUpdateFields
		}
	}
	return nil
}

// decodeField unmarshals one patch value, turning a type mismatch into a
// readable violation.
func decodeField(patch map[string]json.RawMessage, key string, dst any) string {
	raw, ok := patch[key]
	if !ok {
		return ""
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return key + " has the wrong type"
	}
	return ""
}

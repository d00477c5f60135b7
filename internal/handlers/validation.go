package handlers

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"storerating/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const passwordSpecials = "!@#$%^&*"

// NewValidator returns a validator that reports fields by their JSON name and
// knows the "password" rule: 8-16 characters with at least one uppercase
// letter and one of !@#$%^&*.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return validPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
	return v
}

func validPassword(p string) bool {
	if n := len([]rune(p)); n < 8 || n > 16 {
		return false
	}
	var upper, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && special
}

// fieldErrors is a failed request validation keyed by JSON field name.
type fieldErrors map[string]string

func (f fieldErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(f))
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return "Must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "password":
		return "Password must be 8-16 characters and include at least one uppercase letter and one special character (!@#$%^&*)"
	case "role":
		return "Role must be one of admin, user, store_owner"
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
}

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, v *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fieldErrors{"body": "Invalid request body"}
	}
	if err := v.Struct(dst); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		out := make(fieldErrors, len(validationErrors))
		for _, e := range validationErrors {
			out[e.Field()] = describe(e)
		}
		return out
	}
	return nil
}

package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"eventsapi/models"
)

var (
	validate        = newValidator()
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// timeLayouts are the accepted time-of-day inputs. Stored times are HH:MM:SS.
var timeLayouts = []string{"15:04:05", "15:04", "15:04:05.999999"}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, ok := parseTimeOfDay(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	_ = v.RegisterValidation("optemail", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		addr, err := mail.ParseAddress(s)
		return err == nil && addr.Address == s
	})
	return v
}

func parseTimeOfDay(s string) (string, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}

// validationMessage renders one failed rule the way API clients expect it.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("Ensure this field has no more than %s bytes.", fe.Param())
	case "category":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "timeofday":
		return "Time has wrong format. Use one of these formats instead: hh:mm[:ss[.uuuuuu]]."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "optemail":
		return "Enter a valid email address."
	case "notblank":
		return "This field may not be blank."
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	}
	return "Invalid value."
}

// validateStruct runs the struct tags on in and returns field errors, or nil.
func validateStruct(in any) models.ValidationError {
	ve := models.ValidationError{}
	err := validate.Struct(in)
	if err == nil {
		return ve
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Add("non_field_errors", err.Error())
		return ve
	}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), validationMessage(fe))
	}
	return ve
}

// bindJSON decodes the request body into dst. An empty body decodes as {}.
// Decoding failures are reported as field errors where a field is known.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var (
		typeErr *json.UnmarshalTypeError
		dateErr *models.DateFormatError
		syntax  *json.SyntaxError
	)
	switch {
	case errors.As(err, &dateErr):
		return models.ValidationError{"date": {dateErr.Error()}}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return models.ValidationError{typeErr.Field: {typeMessage(typeErr.Type.Kind())}}
	case errors.As(err, &syntax):
		return parseError("JSON parse error - " + syntax.Error())
	}
	return models.ValidationError{"non_field_errors": {"Invalid data."}}
}

// parseError is a malformed request body. It renders as a top-level detail.
type parseError string

func (e parseError) Error() string { return string(e) }

func typeMessage(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "A valid integer is required."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.String:
		return "Not a valid string."
	}
	return "Invalid value."
}

package api

import (
	"errors"         // Error matching
	"mime/multipart" // Uploaded files
	"net/http"       // HTTP status codes
	"reflect"        // Struct tag lookup
	"strings"        // String manipulation
	"sync"           // One-time validator setup

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Gin binding and validator engine
	"github.com/go-playground/validator/v10" // Validation errors
)

// nonFieldErrors collects errors that belong to the form as a whole
const nonFieldErrors = "__all__"

// FieldErrors maps a form field to its error messages
type FieldErrors map[string][]string

// Add records msg against field
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Any reports whether any error was recorded
func (fe FieldErrors) Any() bool {
	return len(fe) > 0
}

var registerFieldNames sync.Once

// useFormFieldNames makes validation errors name fields by their form tag
// (falling back to the json tag), so messages match what clients submitted
func useFormFieldNames() {
	registerFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bindForm binds the request into form and translates binding failures into
// field errors. A nil result means the form is valid so far.
func bindForm(c *gin.Context, form any) FieldErrors {
	useFormFieldNames()
	err := c.ShouldBind(form) // Form, multipart or JSON depending on Content-Type
	if err == nil {
		return nil
	}
	fe := FieldErrors{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fieldErr := range verrs {
			fe.Add(fieldErr.Field(), validationMessage(fieldErr))
		}
		return fe
	}
	fe.Add(nonFieldErrors, "Invalid form data: "+err.Error()) // Malformed number, JSON syntax, etc.
	return fe
}

// validationMessage turns a failed rule into a user-facing message
func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this value has at most " + fieldErr.Param() + " characters."
	case "min":
		return "Ensure this value has at least " + fieldErr.Param() + " characters."
	case "gte":
		return "Ensure this value is greater than or equal to " + fieldErr.Param() + "."
	case "oneof":
		return "Select a valid choice. That choice is not one of the available choices."
	default:
		return "Enter a valid value."
	}
}

// respondFormErrors re-renders a form with its field errors
func respondFormErrors(c *gin.Context, fe FieldErrors) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": fe})
}

// formFile returns the uploaded file named field, or nil when none was sent
func formFile(c *gin.Context, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil // Missing file or not a multipart request
	}
	return fh
}

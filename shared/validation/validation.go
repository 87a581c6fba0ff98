// Package validation wraps go-playground/validator with English error messages keyed by
// JSON field names.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator validates structs and renders failures as a single readable message.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New creates a Validator using English translations.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	// Registration only fails for malformed built-in templates.
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	return &Validator{
		validate:   validate,
		translator: translator,
	}
}

// Struct validates s. The returned error message lists every failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, fieldErr.Translate(v.translator))
	}

	return errors.New(strings.Join(messages, "; "))
}

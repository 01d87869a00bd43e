package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	matricTag   = "matric"
	matricText  = "invalid matric number"
	matricRegex = regexp.MustCompile(`^[A-Za-z0-9/.-]+$`)

	levelTag  = "level"
	levelText = "level must be a multiple of 100 between 100 and 900"

	academicSessionTag   = "academic_session"
	academicSessionText  = "session must be in the YYYY/YYYY form"
	academicSessionRegex = regexp.MustCompile(`^\d{4}/\d{4}$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(matricTag, matricValidation)
	RegisterCustomTranslation(validate, translator, matricTag, matricText)

	_ = validate.RegisterValidation(levelTag, levelValidation)
	RegisterCustomTranslation(validate, translator, levelTag, levelText)

	_ = validate.RegisterValidation(academicSessionTag, academicSessionValidation)
	RegisterCustomTranslation(validate, translator, academicSessionTag, academicSessionText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// matricValidation only allows characters that appear in matric numbers.
func matricValidation(fl validator.FieldLevel) bool {
	return matricRegex.MatchString(fl.Field().String())
}

// levelValidation checks a numeric student level code (100, 200, ... 900).
func levelValidation(fl validator.FieldLevel) bool {
	lvl := fl.Field().Int()
	return lvl >= 100 && lvl <= 900 && lvl%100 == 0
}

// academicSessionValidation checks the "YYYY/YYYY" academic session form.
func academicSessionValidation(fl validator.FieldLevel) bool {
	return academicSessionRegex.MatchString(fl.Field().String())
}

package dto

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/utils"
)

// ExpiryHourOptions are the invitation lifetimes an operator may choose from.
var ExpiryHourOptions = []int{24, 48, 72, 168, 336}

// MaxAttemptOptions are the allowed attempt caps; 0 means unlimited.
var MaxAttemptOptions = []int{0, 1, 2, 3}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NewValidator returns a validator with the pipeline's custom tags registered.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("langcode", validateLanguageCode)
	_ = validate.RegisterValidation("expiryhours", validateIntOption(ExpiryHourOptions))
	_ = validate.RegisterValidation("maxattempts", validateIntOption(MaxAttemptOptions))
	_ = validate.RegisterValidation("slug", validateSlug)
	return validate
}

func validateLanguageCode(fl validator.FieldLevel) bool {
	_, ok := utils.NormalizeLanguage(fl.Field().String())
	return ok
}

func validateSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

func validateIntOption(options []int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := int(fl.Field().Int())
		for _, option := range options {
			if option == value {
				return true
			}
		}
		return false
	}
}

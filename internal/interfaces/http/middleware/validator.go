package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/propman/backend/internal/domain/syndication"
)

// SetupValidator registers custom binding validations with gin's validator.
// Safe to call more than once.
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("platform", validPlatform)
	}
}

// validPlatform accepts only members of the supported platform set
func validPlatform(fl validator.FieldLevel) bool {
	return syndication.Platform(fl.Field().String()).IsValid()
}

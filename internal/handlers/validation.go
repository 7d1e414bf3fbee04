package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// currencyCode accepts three ASCII letters, the shape of an ISO 4217 code.
// Services uppercase before persisting; codes are not checked against the
// currency table, so ledgers may carry internal units.
func currencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// registerValidations installs custom binding validations on gin's validator
// engine. Must run before any route binds a request.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("currency", currencyCode)
	}
}

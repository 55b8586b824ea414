package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cinelog/go-review-backend/internal/services"
)

// RegisterValidators installs custom binding validators on Gin's validator
// engine. Call once before building the router.
//
// halfstep accepts ratings on the half-point scale used by reviews
// (0.5, 1.0, ..., 10.0).
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("halfstep", func(fl validator.FieldLevel) bool {
		return services.ValidRating(fl.Field().Float())
	})
}

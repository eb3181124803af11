// internal/handler/validation.go
package handler

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"clickguard/internal/models"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags to gin's validator
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
			return models.EventType(fl.Field().String()).Valid()
		})
	})
	return err
}

// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"kumoney/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("tier", validateTier)
		_ = v.RegisterValidation("notblank", validateNotBlank)
	}
}

func validateTier(fl validator.FieldLevel) bool {
	switch models.Tier(fl.Field().String()) {
	case models.TierFree, models.TierPro, models.TierUnlimited:
		return true
	}
	return false
}

// validateNotBlank rejects strings made only of whitespace.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

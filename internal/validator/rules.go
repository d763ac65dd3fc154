package validator

import (
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules adds the enum rules used by request DTOs. Empty values
// pass; presence is the job of "required".
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			logger.Fatal("failed to register validation tag", "tag", tag, "error", err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-signup-role", validateSignupRole)
	mustRegister("is-request-status", validateRequestStatus)
	mustRegister("is-conversation-status", validateConversationStatus)
	mustRegister("is-sentiment", validateSentiment)
	mustRegister("is-category", validateCategory)
	mustRegister("is-directory-sort", validateDirectorySort)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.UserRole(value).Valid()
}

// Admins are never created through sign-up.
func validateSignupRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case "", models.UserRoleOrganizer, models.UserRoleProfessional:
		return true
	}
	return false
}

func validateRequestStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.ServiceRequestStatus(value).Valid()
}

func validateConversationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.ConversationStatus(value).Valid()
}

func validateSentiment(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.Sentiment(value).Valid()
}

func validateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || models.ServiceCategory(value).Valid()
}

func validateDirectorySort(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "rating", "rate_asc", "rate_desc", "newest":
		return true
	}
	return false
}

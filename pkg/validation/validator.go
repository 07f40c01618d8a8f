package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// Validate is the global validator instance
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v)
	return v
}

func customRules() map[string]validator.Func {
	return map[string]validator.Func{
		"ride_type":   validateRideType,
		"ride_status": validateRideStatus,
		"user_role":   validateUserRole,
	}
}

func register(v *validator.Validate) error {
	for tag, fn := range customRules() {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

func mustRegister(v *validator.Validate) {
	if err := register(v); err != nil {
		panic(err)
	}
}

// RegisterGinValidators installs the custom rules on gin's binding engine so
// ShouldBindJSON enforces them.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return register(v)
}

// ValidateStruct validates a struct and maps failures to an InvalidInput error
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return common.NewInvalidInputError(Describe(validationErrors))
	}
	return err
}

// Describe turns validator errors into a single client-facing message.
func Describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, describeField(fe))
	}
	return strings.Join(parts, "; ")
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "latitude", "longitude":
		return field + " is out of range"
	case "ride_type":
		return field + " must be one of economy, premium, luxury"
	case "ride_status":
		return field + " is not a known ride status"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func validateRideType(fl validator.FieldLevel) bool {
	switch models.RideType(strings.ToLower(strings.TrimSpace(fl.Field().String()))) {
	case models.RideTypeEconomy, models.RideTypePremium, models.RideTypeLuxury, models.RideTypeRegular, "":
		return true
	}
	return false
}

func validateRideStatus(fl validator.FieldLevel) bool {
	_, err := models.ParseRideStatus(fl.Field().String())
	return err == nil
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(strings.ToLower(strings.TrimSpace(fl.Field().String()))) {
	case models.RoleRider, models.RoleDriver, models.RoleAdmin:
		return true
	}
	return false
}

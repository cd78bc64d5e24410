// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"limify/internal/models"
	"limify/internal/pricing"
	"limify/internal/quota"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var validations = map[string]validator.Func{
	"hex_color":     validateHexColor,
	"budget_type":   validateBudgetType,
	"value_type":    validateValueType,
	"discount_type": validateDiscountType,
	"budget_status": validateBudgetStatus,
	"team_role":     validateTeamRole,
	"plan_tier":     validatePlanTier,
	"section_kind":  validateSectionKind,
	"frequency":     validateFrequency,
	"dec_gte0":      validateDecimalNonNegative,
	"dec_scale":     validateDecimalScale,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	for tag, fn := range validations {
		_ = v.RegisterValidation(tag, fn)
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateBudgetType(fl validator.FieldLevel) bool {
	return models.BudgetType(fl.Field().String()).Valid()
}

func validateValueType(fl validator.FieldLevel) bool {
	switch models.ValueType(fl.Field().String()) {
	case models.ValueTypeSingle, models.ValueTypeIndividual:
		return true
	}
	return false
}

// Unknown discount types are passed through by pricing, but the API only accepts known ones.
func validateDiscountType(fl validator.FieldLevel) bool {
	switch pricing.DiscountType(fl.Field().String()) {
	case pricing.DiscountPercentual, pricing.DiscountFixed:
		return true
	}
	return false
}

func validateBudgetStatus(fl validator.FieldLevel) bool {
	return models.BudgetStatus(fl.Field().String()).Valid()
}

// Owner is assigned at team creation and cannot be granted through an invite.
func validateTeamRole(fl validator.FieldLevel) bool {
	switch models.TeamRole(fl.Field().String()) {
	case models.TeamRoleAdmin, models.TeamRoleMember:
		return true
	}
	return false
}

func validatePlanTier(fl validator.FieldLevel) bool {
	return quota.ValidTier(quota.Tier(fl.Field().String()))
}

func validateSectionKind(fl validator.FieldLevel) bool {
	return models.ValidSectionKind(fl.Field().String())
}

func validateFrequency(fl validator.FieldLevel) bool {
	return pricing.IsKnownFrequency(fl.Field().String())
}

func decimalOf(fl validator.FieldLevel) (decimal.Decimal, bool) {
	switch v := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return v, true
	case pricing.Amount:
		return v.Decimal, true
	}
	return decimal.Zero, false
}

func validateDecimalNonNegative(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && !d.IsNegative()
}

// dec_scale=N rejects values with more than N decimal places.
func validateDecimalScale(fl validator.FieldLevel) bool {
	places, err := strconv.ParseInt(fl.Param(), 10, 32)
	if err != nil {
		return false
	}
	d, ok := decimalOf(fl)
	return ok && pricing.FitsScale(d, int32(places))
}

package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"civicfix/internal/domain/county"
	"civicfix/internal/domain/entity"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// NewValidator registers the domain tags: county accepts any spelling county.IsValid
// accepts, category accepts the fixed issue categories.
func NewValidator() echo.Validator {
	v := validator.New()

	_ = v.RegisterValidation("county", func(fl validator.FieldLevel) bool {
		return county.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return entity.IsValidCategory(fl.Field().String())
	})

	return &CustomValidator{validator: v}
}

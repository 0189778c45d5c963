package api

import (
	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/utils"
)

type sonicSerializer struct {
	api sonic.API
}

func NewSerializer() echo.JSONSerializer {
	return sonicSerializer{api: sonic.ConfigStd}
}

func (s sonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := s.api.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (s sonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := s.api.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return constants.ErrInvalidRequest.WithMessage("Request body is not valid JSON")
	}
	return nil
}

type requestValidator struct {
	validate *validator.Validate
}

func NewValidator() echo.Validator {
	return &requestValidator{validate: utils.NewValidator()}
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return utils.ValidationError(err)
	}
	return nil
}

type requestBinder struct {
	echo.DefaultBinder
}

func NewBinder() echo.Binder {
	return &requestBinder{}
}

// Bind reports malformed input as INVALID_REQUEST.
func (b *requestBinder) Bind(i interface{}, c echo.Context) error {
	if err := b.DefaultBinder.Bind(i, c); err != nil {
		if _, ok := err.(*constants.CodedError); ok {
			return err
		}
		return constants.ErrInvalidRequest.WithMessage("Request could not be parsed")
	}
	return nil
}

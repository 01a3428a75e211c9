package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

// CustomValidator はEcho用のカスタムバリデーター
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する。
// "prefecture" タグは all か47都道府県のいずれかを受け付ける
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("prefecture", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "all" || event.IsPrefecture(s)
	})
	return &CustomValidator{validator: v}
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストパラメータが不正です").SetInternal(err)
	}
	return nil
}

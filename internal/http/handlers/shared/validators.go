package shared

import (
	"strings"
	"sync"

	"github.com/cardmint/internal/cardcode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// RegisterValidators 注册卡号相关的请求绑定校验标签
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("card_code", validateCardCode)
		_ = engine.RegisterValidation("card_serial", validateCardSerial)
	})
}

func validateCardCode(fl validator.FieldLevel) bool {
	return cardcode.IsValidCode(strings.TrimSpace(fl.Field().String()))
}

func validateCardSerial(fl validator.FieldLevel) bool {
	return cardcode.IsValidSerial(strings.TrimSpace(fl.Field().String()))
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// Money 奖励市场价值，固定两位小数，JSON 以字符串输出
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 构造并按两位小数舍入
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyScale)}
}

// ParseMoney 解析字符串金额
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", raw, err)
	}
	return NewMoneyFromDecimal(d), nil
}

// String 两位小数文本
func (m Money) String() string {
	return m.Decimal.StringFixed(moneyScale)
}

// MarshalJSON 输出 "12.50" 形式
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 同时接受字符串与数字
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*m = NewMoneyFromDecimal(d)
	return nil
}

// Value 写库
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(moneyScale).Value()
}

// Scan 读库
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = NewMoneyFromDecimal(d)
	return nil
}

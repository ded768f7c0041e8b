package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// UintArray 以 JSON 存储的 ID 列表
type UintArray []uint

// Value 实现 driver.Valuer 接口
func (a UintArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口
func (a *UintArray) Scan(value interface{}) error {
	return scanJSON(value, a, func() { *a = UintArray{} })
}

// StringArray 以 JSON 存储的字符串列表
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	return scanJSON(value, s, func() { *s = StringArray{} })
}

// scanJSON sqlite 返回 string，postgres 返回 []byte
func scanJSON(value interface{}, target interface{}, reset func()) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		reset()
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(raw) == 0 {
		reset()
		return nil
	}
	return json.Unmarshal(raw, target)
}

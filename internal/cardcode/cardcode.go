package cardcode

import (
	"errors"
	"regexp"
	"strings"
)

const (
	// SerialLength 序列号位数
	SerialLength = 5
	// Format 卡号格式说明（用于提示文案）
	Format = "ddd-ddd-ddd-ddddd-ddddd"

	groupSeparator = "-"
)

var (
	codePattern   = regexp.MustCompile(`^\d{3}-\d{3}-\d{3}-\d{5}-\d{5}$`)
	serialPattern = regexp.MustCompile(`^\d{5}$`)
	prefixPattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{3}-\d{5}-$`)
)

var (
	ErrInvalidCodeFormat   = errors.New("card code must follow format " + Format)
	ErrInvalidSerialFormat = errors.New("card serial must be 5 digits")
	ErrInvalidPrefix       = errors.New("card code prefix is invalid")
)

// Code 解析后的卡号
type Code struct {
	Prefix string
	Serial string
}

// String 还原完整卡号
func (c Code) String() string {
	return c.Prefix + c.Serial
}

// IsValidCode 校验完整卡号格式
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// IsValidSerial 校验 5 位序列号格式
func IsValidSerial(serial string) bool {
	return serialPattern.MatchString(serial)
}

// ValidateCode 校验完整卡号，失败返回 ErrInvalidCodeFormat
func ValidateCode(code string) error {
	if !IsValidCode(code) {
		return ErrInvalidCodeFormat
	}
	return nil
}

// ValidateSerial 校验序列号，失败返回 ErrInvalidSerialFormat
func ValidateSerial(serial string) error {
	if !IsValidSerial(serial) {
		return ErrInvalidSerialFormat
	}
	return nil
}

// ParseCode 拆分卡号为前缀与序列号
func ParseCode(code string) (Code, error) {
	code = strings.TrimSpace(code)
	if !IsValidCode(code) {
		return Code{}, ErrInvalidCodeFormat
	}
	idx := strings.LastIndex(code, groupSeparator)
	return Code{
		Prefix: code[:idx+1],
		Serial: code[idx+1:],
	}, nil
}

// PrefixOf 从参考卡号推导批次前缀（前四组 + 末尾连字符）
func PrefixOf(code string) (string, error) {
	parsed, err := ParseCode(code)
	if err != nil {
		return "", err
	}
	return parsed.Prefix, nil
}

// ValidatePrefix 校验批次前缀：完整卡号的前四组加末尾连字符
func ValidatePrefix(prefix string) error {
	if !prefixPattern.MatchString(prefix) {
		return ErrInvalidPrefix
	}
	return nil
}

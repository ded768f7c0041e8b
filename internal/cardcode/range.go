package cardcode

import (
	"errors"
	"fmt"
	"strconv"
)

// DefaultMaxRangeSize 单次分配的最大数量
const DefaultMaxRangeSize = 10000

var (
	ErrEmptyRange    = errors.New("end serial must not be less than start serial")
	ErrRangeTooLarge = errors.New("serial range exceeds allowed size")
)

// Range 闭区间序列号范围
type Range struct {
	Prefix string
	Start  int
	End    int
}

// NewRange 校验并构造序列号范围，maxSize <= 0 时使用默认上限
func NewRange(prefix, startSerial, endSerial string, maxSize int) (Range, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return Range{}, err
	}
	if err := ValidateSerial(startSerial); err != nil {
		return Range{}, err
	}
	if err := ValidateSerial(endSerial); err != nil {
		return Range{}, err
	}
	start, _ := strconv.Atoi(startSerial)
	end, _ := strconv.Atoi(endSerial)

	r := Range{Prefix: prefix, Start: start, End: end}
	size := r.Size()
	if size <= 0 {
		return Range{}, ErrEmptyRange
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxRangeSize
	}
	if size > maxSize {
		return Range{}, fmt.Errorf("%w: %d > %d", ErrRangeTooLarge, size, maxSize)
	}
	return r, nil
}

// Size 范围内序列号数量
func (r Range) Size() int {
	return r.End - r.Start + 1
}

// Codes 按序列号升序生成完整卡号，任一卡号不符合格式时整体报错
func (r Range) Codes() ([]string, error) {
	size := r.Size()
	if size <= 0 {
		return []string{}, nil
	}
	codes := make([]string, 0, size)
	for serial := r.Start; serial <= r.End; serial++ {
		code := r.Prefix + FormatSerial(serial)
		if !IsValidCode(code) {
			return nil, fmt.Errorf("%w: generated %q", ErrInvalidCodeFormat, code)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// FormatSerial 序列号补零至 5 位
func FormatSerial(serial int) string {
	return fmt.Sprintf("%0*d", SerialLength, serial)
}

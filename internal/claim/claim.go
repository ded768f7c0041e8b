package claim

import (
	"errors"
	"fmt"
	"strings"
)

// Status 奖励领取状态
type Status string

const (
	StatusLocked   Status = "locked"
	StatusEligible Status = "eligible"
	StatusClaimed  Status = "claimed"
)

var (
	ErrTerminalState     = errors.New("claimed is a terminal state")
	ErrIllegalTransition = errors.New("illegal claim status transition")
	ErrUnknownStatus     = errors.New("unknown claim status")
)

// ParseStatus 解析状态字符串
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusLocked:
		return StatusLocked, nil
	case StatusEligible:
		return StatusEligible, nil
	case StatusClaimed:
		return StatusClaimed, nil
	default:
		return "", ErrUnknownStatus
	}
}

// Valid 判断状态是否合法
func (s Status) Valid() bool {
	switch s {
	case StatusLocked, StatusEligible, StatusClaimed:
		return true
	}
	return false
}

// Terminal 是否为终态
func (s Status) Terminal() bool {
	return s == StatusClaimed
}

// Evaluate 根据持有数量与当前状态计算领取状态
// 已领取为终态，不会被持有数量覆盖。
func Evaluate(owned, required int, current Status) Status {
	if current == StatusClaimed {
		return StatusClaimed
	}
	if owned < 0 {
		owned = 0
	}
	if required < 0 {
		required = 0
	}
	if owned >= required {
		return StatusEligible
	}
	return StatusLocked
}

// Transition 校验状态迁移
func Transition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return ErrUnknownStatus
	}
	if from == StatusClaimed {
		return ErrTerminalState
	}
	switch {
	case from == to:
		return nil
	case from == StatusLocked && to == StatusEligible:
		return nil
	case from == StatusEligible && to == StatusLocked:
		return nil
	case from == StatusEligible && to == StatusClaimed:
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// View 单个奖励在某个领取人视角下的状态
type View struct {
	Owned    int
	Required int
	Status   Status
}

// NewView 基于计数与已持久化状态构造视图
func NewView(owned, required int, persisted Status) View {
	return View{
		Owned:    owned,
		Required: required,
		Status:   Evaluate(owned, required, persisted),
	}
}

// Refresh 持有数量变化后重新计算状态
func (v *View) Refresh(owned int) error {
	next := Evaluate(owned, v.Required, v.Status)
	if err := Transition(v.Status, next); err != nil {
		if errors.Is(err, ErrTerminalState) {
			v.Owned = owned
			return nil
		}
		return err
	}
	v.Owned = owned
	v.Status = next
	return nil
}

// MarkClaimed 领取成功后推进到终态
func (v *View) MarkClaimed() error {
	if err := Transition(v.Status, StatusClaimed); err != nil {
		return err
	}
	v.Status = StatusClaimed
	return nil
}

// CanClaim 是否允许发起领取
func (v View) CanClaim() bool {
	return v.Status == StatusEligible
}

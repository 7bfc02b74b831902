package compoff

import "errors"

var (
	ErrInsufficientBalance = errors.New("调休余额不足")
	ErrInvalidCompOffDay   = errors.New("只有周末或节假日上班才能获得调休")
	ErrInvalidDays         = errors.New("调休天数必须大于 0")
	ErrInvalidWorkType     = errors.New("无效的上班类型")
)

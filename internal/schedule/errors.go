package schedule

import "errors"

var (
	ErrTemplateNotFound = errors.New("weekly template not found")
	ErrInvalidTemplate  = errors.New("invalid weekly template")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrBlockNotFound    = errors.New("schedule block not found")
	ErrUnknownAction    = errors.New("unknown schedule action")
)

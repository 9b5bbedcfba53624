package domain

import "errors"

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidPriority = errors.New("invalid priority, use signal, high, medium, low or noise")
	ErrInvalidStatus   = errors.New("invalid status, use pending, in_progress, completed or all")
	ErrInvalidDueDate  = errors.New("invalid due date, use today, tomorrow or YYYY-MM-DD")
)

package domain

import "errors"

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectAlreadyExists = errors.New("project already exists")
	ErrInvalidProjectType   = errors.New("invalid project type")
	ErrNoPRDStatus          = errors.New("project has no prd status file")
)

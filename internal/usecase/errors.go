package usecase

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrSkillNotFound = errors.New("skill not found")
	ErrInternal      = errors.New("internal error")
)

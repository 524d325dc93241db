package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// -----------------------------------------------------------------------------

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrModuleNotFound  = errors.New("module not found")
	ErrLessonLocked    = errors.New("lesson is locked")
	ErrUserExists      = errors.New("user already exists")
	ErrNoQuestions     = errors.New("lesson has no questions")
	ErrInvalidQuestion = errors.New("invalid question")
)

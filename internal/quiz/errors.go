package quiz

import "errors"

var (
	ErrNoAnswerSelected  = errors.New("no answer selected")
	ErrNotInQuestion     = errors.New("no question is awaiting an answer")
	ErrSessionClosed     = errors.New("session closed")
	ErrUnknownSkipPolicy = errors.New("unknown skip policy")
)

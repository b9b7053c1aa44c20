package util

import "errors"

var (
	ErrLearnerNotFound = errors.New("learner not found, register first")
	ErrInvalidGrade    = errors.New("grade outside the accepted range")
)

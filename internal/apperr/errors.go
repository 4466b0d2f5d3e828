package apperr

import "errors"

var (
	ErrNoFrontMatter  = errors.New("front matter not found")
	ErrUnchanged      = errors.New("no change detected, write refused")
	ErrFilesFailed    = errors.New("one or more files failed")
	ErrChangesPending = errors.New("one or more files need date updates")
)

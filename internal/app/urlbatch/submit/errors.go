package submit

import (
	"errors"
	"strings"

	"urlindex.local/internal/app/urlbatch"
)

var (
	ErrNotEligible     = errors.New("submission not eligible")
	ErrUnavailable     = errors.New("task store unavailable")
	ErrDispatchFailed  = errors.New("task dispatch failed")
	ErrInvalidTaskType = errors.New("task type must be indexer or checker")
	ErrInvalidTitle    = errors.New("title must be 1-200 characters")
)

// NotEligibleError 携带完整的准入结果，方便 HTTP 层原样返回所有原因。
type NotEligibleError struct {
	Preparation urlbatch.Preparation
}

func (e *NotEligibleError) Error() string {
	return "submission not eligible: " + strings.Join(e.Preparation.Eligibility.BlockingReasons, "; ")
}

func (e *NotEligibleError) Is(target error) bool {
	return target == ErrNotEligible
}

func (e *NotEligibleError) Result() urlbatch.EligibilityResult {
	return e.Preparation.Eligibility
}

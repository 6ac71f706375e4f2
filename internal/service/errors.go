package service

import (
	"errors"
	"fmt"
	"time"
)

// 错误码
const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION"
	CodePartialDelivery = "PARTIAL_DELIVERY"
	CodeAuditFailure    = "AUDIT_FAILURE"
	CodeInternal        = "INTERNAL"
)

// Error 业务错误。UNAUTHORIZED、RATE_LIMITED、NOT_FOUND、VALIDATION 在任何写入前返回；
// PARTIAL_DELIVERY 与 AUDIT_FAILURE 只出现在诊断信息中
type Error struct {
	Code       string
	Message    string
	ActionKind string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsCode 判断 err 链上是否存在指定错误码
func IsCode(err error, code string) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}

// CodeOf 返回错误码，非业务错误视为 INTERNAL
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

func errUnauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func errNotFound(msg string, err error) *Error {
	return &Error{Code: CodeNotFound, Message: msg, Err: err}
}

func errValidation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func errInternal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

func errRateLimited(action string, retryAfter time.Duration) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("操作过于频繁: %s", action),
		ActionKind: action,
		RetryAfter: retryAfter,
	}
}

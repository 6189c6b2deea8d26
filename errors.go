package loom

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeMissingResource
	ErrCodeMissingDependency
	ErrCodeAmbiguousName
	ErrCodeDuplicateResource
	ErrCodeCycle
	ErrCodeAsyncInSyncContext
	ErrCodeInvalidName
	ErrCodeInvalidTarget
	ErrCodeProviderFailed
	ErrCodeModuleApplyFailed
	ErrCodeTimeout
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:            "UNKNOWN",
	ErrCodeMissingResource:    "MISSING_RESOURCE",
	ErrCodeMissingDependency:  "MISSING_DEPENDENCY",
	ErrCodeAmbiguousName:      "AMBIGUOUS_NAME",
	ErrCodeDuplicateResource:  "DUPLICATE_RESOURCE",
	ErrCodeCycle:              "CYCLE",
	ErrCodeAsyncInSyncContext: "ASYNC_IN_SYNC_CONTEXT",
	ErrCodeInvalidName:        "INVALID_NAME",
	ErrCodeInvalidTarget:      "INVALID_TARGET",
	ErrCodeProviderFailed:     "PROVIDER_FAILED",
	ErrCodeModuleApplyFailed:  "MODULE_APPLY_FAILED",
	ErrCodeTimeout:            "TIMEOUT",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Error is the resolution-time error type. Resource names the qualified
// resource the error concerns, when there is one; Cycle carries the ordered
// qualified-name path for cycle errors.
type Error struct {
	Code     ErrorCode
	Message  string
	Resource string
	Cycle    []string
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Resource != "" {
		b.WriteString(fmt.Sprintf(" resource=%q:", e.Resource))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithResource(name string) *Error {
	e.Resource = name
	return e
}

func (e *Error) WithCycle(path []string) *Error {
	e.Cycle = path
	return e
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func errMissingResource(name string) *Error {
	return newError(
		ErrCodeMissingResource,
		fmt.Sprintf("the resource %q was not provided", name),
		nil,
	).WithResource(name)
}

func errMissingDependency(name, dep string) *Error {
	return newError(
		ErrCodeMissingDependency,
		fmt.Sprintf("resource %q required by %q was not provided", dep, name),
		nil,
	).WithResource(name)
}

func errAmbiguousName(name string, candidates []string) *Error {
	return newError(
		ErrCodeAmbiguousName,
		fmt.Sprintf("name %q is ambiguous between %s", name, strings.Join(candidates, ", ")),
		nil,
	).WithResource(name)
}

func errDuplicateResource(name string) *Error {
	return newError(
		ErrCodeDuplicateResource,
		fmt.Sprintf("resource %q is already provided", name),
		nil,
	).WithResource(name)
}

func errCycle(path []string) *Error {
	return newError(
		ErrCodeCycle,
		fmt.Sprintf("circular dependency detected: %s", strings.Join(path, " -> ")),
		nil,
	).WithCycle(path)
}

func errAsyncInSyncContext(name string) *Error {
	return newError(
		ErrCodeAsyncInSyncContext,
		fmt.Sprintf("resource %q is asynchronous and cannot be resolved by a synchronous injector", name),
		nil,
	).WithResource(name)
}

func errInvalidName(name string, cause error) *Error {
	return newError(
		ErrCodeInvalidName,
		fmt.Sprintf("invalid resource name %q", name),
		cause,
	).WithResource(name)
}

func errInvalidTarget(message string) *Error {
	return newError(ErrCodeInvalidTarget, message, nil)
}

func errProviderFailed(name string, cause error) *Error {
	return newError(
		ErrCodeProviderFailed,
		fmt.Sprintf("provider for %q returned error", name),
		cause,
	).WithResource(name)
}

func errModuleApplyFailed(moduleName string, cause error) *Error {
	return newError(
		ErrCodeModuleApplyFailed,
		fmt.Sprintf("failed to apply module %q", moduleName),
		cause,
	)
}

func errTimeout(name string, cause error) *Error {
	return newError(
		ErrCodeTimeout,
		fmt.Sprintf("provider for %q exceeded its timeout", name),
		cause,
	).WithResource(name)
}

// hasCode walks the cause chain so wrapped errors (a duplicate inside a
// module-apply failure, a cycle inside a provider failure) still satisfy
// their predicate.
func hasCode(err error, code ErrorCode) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Unwrap()
	}
	return false
}

func IsMissingResource(err error) bool   { return hasCode(err, ErrCodeMissingResource) }
func IsMissingDependency(err error) bool { return hasCode(err, ErrCodeMissingDependency) }
func IsAmbiguousName(err error) bool     { return hasCode(err, ErrCodeAmbiguousName) }
func IsDuplicateResource(err error) bool { return hasCode(err, ErrCodeDuplicateResource) }
func IsCycle(err error) bool             { return hasCode(err, ErrCodeCycle) }
func IsAsyncInSyncContext(err error) bool {
	return hasCode(err, ErrCodeAsyncInSyncContext)
}
func IsProviderFailed(err error) bool { return hasCode(err, ErrCodeProviderFailed) }
func IsTimeout(err error) bool        { return hasCode(err, ErrCodeTimeout) }

// CyclePath extracts the ordered cycle from a cycle error, or nil when err
// is not one.
func CyclePath(err error) []string {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == ErrCodeCycle {
			return e.Cycle
		}
		err = e.Unwrap()
	}
	return nil
}

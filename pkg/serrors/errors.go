package serrors

import "fmt"

// BaseError is the standard error shape returned by services and the
// authorization layer. Code is a stable machine-readable identifier,
// LocaleKey points at the translated user-facing message.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
	cause        error
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
}

func (e *BaseError) Unwrap() error { return e.cause }

// WithTemplateData returns a copy carrying data for message interpolation.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	clone := *e
	clone.TemplateData = data
	return &clone
}

// WithCause returns a copy wrapping an underlying error.
func (e *BaseError) WithCause(cause error) *BaseError {
	clone := *e
	clone.cause = cause
	return &clone
}

// Is matches errors by code so sentinel instances can be compared with
// errors.Is even after WithTemplateData/WithCause copies.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

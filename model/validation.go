package model

import (
	"errors"
	"fmt"
	"strings"

	"VinylShop/core/auth"

	"github.com/go-playground/validator/v10"
)

// validate 全局校验器，validator 内部会缓存结构体信息，可并发使用
var validate = validator.New()

// FieldErrorKind classifies a single field violation.
type FieldErrorKind int

const (
	// RequiredField means a mandatory field was empty.
	RequiredField FieldErrorKind = iota
	// Format means the field was present but malformed.
	Format
)

func (k FieldErrorKind) String() string {
	switch k {
	case RequiredField:
		return "required"
	case Format:
		return "format"
	default:
		return "unknown"
	}
}

var (
	// ErrRequiredField matches any ValidationError carrying a RequiredField violation.
	ErrRequiredField = errors.New("required field missing")
	// ErrFormat matches any ValidationError carrying a Format violation.
	ErrFormat = errors.New("field format invalid")
)

// FieldError describes one violated constraint.
type FieldError struct {
	Kind    FieldErrorKind `json:"kind"`
	Field   string         `json:"field"`
	Message string         `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

// Is lets errors.Is match a FieldError against the kind sentinels.
func (e FieldError) Is(target error) bool {
	switch target {
	case ErrRequiredField:
		return e.Kind == RequiredField
	case ErrFormat:
		return e.Kind == Format
	}
	return false
}

// ValidationError collects every failing field of a record.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Is reports whether any field violation matches target.
func (e *ValidationError) Is(target error) bool {
	for _, f := range e.Fields {
		if f.Is(target) {
			return true
		}
	}
	return false
}

// Field returns the first violation recorded for name.
func (e *ValidationError) Field(name string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldError{}, false
}

func (e *ValidationError) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Fields = append(e.Fields, FieldError{
			Kind:    RequiredField,
			Field:   field,
			Message: fmt.Sprintf("%s cannot be null", field),
		})
	}
}

func (e *ValidationError) email(field, value string) {
	// 空字符串同样按格式错误处理，与 required 的 "cannot be null" 区分开
	if err := validate.Var(value, "required,email"); err != nil {
		e.Fields = append(e.Fields, FieldError{
			Kind:    Format,
			Field:   field,
			Message: fmt.Sprintf("Validation error: %s is not a valid email address", field),
		})
	}
}

func (e *ValidationError) password(field, value string) {
	if auth.PasswordTooLong(value) {
		e.Fields = append(e.Fields, FieldError{
			Kind:    Format,
			Field:   field,
			Message: fmt.Sprintf("Validation error: %s must be at most %d bytes", field, auth.MaxPasswordLength),
		})
	}
}

// err returns nil when nothing failed so callers can `return v.err()`.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

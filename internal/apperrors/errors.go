package apperrors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindForbidden
	KindNotFound
	KindUnauthorized
)

// Error is a domain failure that callers may show to a user.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(kind Kind, code, message string, details any) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Details: details}
}

func Validation(code, message string, details any) *Error {
	return newError(KindValidation, code, message, details)
}

func Conflict(code, message string) *Error {
	return newError(KindConflict, code, message, nil)
}

func Forbidden(code, message string) *Error {
	return newError(KindForbidden, code, message, nil)
}

func NotFound(code, message string) *Error {
	return newError(KindNotFound, code, message, nil)
}

func Unauthorized(code, message string) *Error {
	return newError(KindUnauthorized, code, message, nil)
}

// As unwraps err (including pkg/errors wrappers) into a domain error.
func As(err error) (*Error, bool) {
	var de *Error
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if de, ok := As(err); ok {
		return de.Kind
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// Is reports whether err carries the given domain code.
func Is(err error, code string) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// IsDuplicate recognises unique constraint violations from gorm's
// translated errors and from raw pgx errors.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if stderrors.As(errors.Cause(err), &pgErr) || stderrors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite, when the dialector does not translate
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package ledgererr

import (
	"errors"
	"net/http"
)

// Kind identifica a categoria de erro de forma legível por máquina
// Toda resposta de erro da API carrega um Kind (nunca falha "crua")
type Kind string

const (
	Unauthorized        Kind = "UNAUTHORIZED"
	Forbidden           Kind = "FORBIDDEN"
	NotFound            Kind = "NOT_FOUND"
	InsufficientBalance Kind = "INSUFFICIENT_BALANCE"
	InvalidInput        Kind = "INVALID_INPUT"
	StoreUnavailable    Kind = "STORE_UNAVAILABLE"
	Conflict            Kind = "CONFLICT"
	Internal            Kind = "INTERNAL"
)

// Error é o erro estruturado do ledger: {kind, message} + causa interna
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// KindOf extrai o Kind de qualquer erro da cadeia; Internal se não houver
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return Internal
}

// IsKind compara o Kind do erro sem expor o tipo concreto
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// HTTPStatus mapeia Kind para status HTTP
func HTTPStatus(kind Kind) int {
	switch kind {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case InsufficientBalance:
		return http.StatusUnprocessableEntity
	case Conflict:
		return http.StatusConflict
	case StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

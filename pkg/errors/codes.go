package errors

import "net/http"

// Code is the stable, client-facing identifier of a failure class.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotEditable   Code = "NOT_EDITABLE"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered over HTTP.
type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
	// DetailsAllowed lets structured details reach the client.
	DetailsAllowed bool
	// ExposeMessage replaces PublicMessage with the error's own message.
	ExposeMessage bool
}

type flag uint8

const (
	retryable flag = 1 << iota
	details
	expose
)

func meta(status int, public string, flags flag) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      flags&retryable != 0,
		DetailsAllowed: flags&details != 0,
		ExposeMessage:  flags&expose != 0,
	}
}

var registry = map[Code]Metadata{
	CodeValidation:    meta(http.StatusBadRequest, "validation failed", details|expose),
	CodeForbidden:     meta(http.StatusForbidden, "access denied", expose),
	CodeNotEditable:   meta(http.StatusForbidden, "order is not editable", details|expose),
	CodeNotFound:      meta(http.StatusNotFound, "resource not found", expose),
	CodeConflict:      meta(http.StatusConflict, "conflict detected", expose),
	CodeStateConflict: meta(http.StatusUnprocessableEntity, "state transition disallowed", details|expose),
	CodeIdempotency:   meta(http.StatusConflict, "idempotency key reused", details|expose),
	CodeInternal:      meta(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:    meta(http.StatusServiceUnavailable, "dependency unavailable", retryable|details),
}

// MetadataFor returns the rendering rules for code. Unknown codes render as
// CodeInternal.
func MetadataFor(code Code) Metadata {
	if m, ok := registry[code]; ok {
		return m
	}
	return registry[CodeInternal]
}

// Known reports whether code is registered.
func (c Code) Known() bool {
	_, ok := registry[c]
	return ok
}

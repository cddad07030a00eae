package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Wire error codes. Son los valores exactos del campo "error" en las
// respuestas JSON y en los redirects de error del endpoint authorize.
const (
	NameInvalidRequest          = "invalid_request"
	NameInvalidClient           = "invalid_client"
	NameInvalidGrant            = "invalid_grant"
	NameInvalidScope            = "invalid_scope"
	NameInvalidToken            = "invalid_token"
	NameUnauthorizedClient      = "unauthorized_client"
	NameUnauthorizedRequest     = "unauthorized_request"
	NameUnsupportedGrantType    = "unsupported_grant_type"
	NameUnsupportedResponseType = "unsupported_response_type"
	NameUnsupportedTokenType    = "unsupported_token_type"
	NameAccessDenied            = "access_denied"
	NameInsufficientScope       = "insufficient_scope"
	NameServerError             = "server_error"
	NameInvalidArgument         = "invalid_argument"
)

// OAuthError es el error etiquetado del engine: código de wire (Name),
// status HTTP y descripción humana. Err guarda la causa original para
// logs; no se expone al cliente.
type OAuthError struct {
	Name    string
	Status  int
	Message string
	Err     error
}

// Error implementa la interfaz error.
func (e *OAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Name, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Name, e.Message)
}

// Unwrap permite acceder al error original.
func (e *OAuthError) Unwrap() error {
	return e.Err
}

// WithCause agrega el error original (causa).
// Devuelve una COPIA para no mutar errores compartidos.
func (e *OAuthError) WithCause(err error) *OAuthError {
	out := *e
	out.Err = err
	return &out
}

// WithStatus devuelve una COPIA con otro status HTTP (p.ej. invalid_client
// pasa de 400 a 401 cuando el client usó el header Authorization).
func (e *OAuthError) WithStatus(status int) *OAuthError {
	out := *e
	out.Status = status
	return &out
}

func newError(status int, name, message string) *OAuthError {
	return &OAuthError{Name: name, Status: status, Message: message}
}

// InvalidRequest: parámetro faltante/malformado o método de auth duplicado.
func InvalidRequest(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameInvalidRequest, message)
}

// InvalidClient: autenticación del client fallida.
func InvalidClient(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameInvalidClient, message)
}

// InvalidGrant: code, refresh token o credenciales de usuario inválidos o expirados.
func InvalidGrant(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameInvalidGrant, message)
}

// InvalidScope: scope rechazado por el Model.
func InvalidScope(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameInvalidScope, message)
}

// InvalidToken: bearer token inválido o expirado.
func InvalidToken(message string) *OAuthError {
	return newError(http.StatusUnauthorized, NameInvalidToken, message)
}

// UnauthorizedClient: el client no tiene permitido este grant/response type.
func UnauthorizedClient(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameUnauthorizedClient, message)
}

// UnauthorizedRequest: endpoint bearer sin credenciales presentadas.
func UnauthorizedRequest(message string) *OAuthError {
	return newError(http.StatusUnauthorized, NameUnauthorizedRequest, message)
}

// UnsupportedGrantType: grant_type fuera del set permitido.
func UnsupportedGrantType(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameUnsupportedGrantType, message)
}

// UnsupportedResponseType: response_type fuera de {code, token}.
func UnsupportedResponseType(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameUnsupportedResponseType, message)
}

// UnsupportedTokenType: token_hint inválido en revoke/introspect.
func UnsupportedTokenType(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameUnsupportedTokenType, message)
}

// AccessDenied: el resource owner negó el consentimiento.
func AccessDenied(message string) *OAuthError {
	return newError(http.StatusBadRequest, NameAccessDenied, message)
}

// InsufficientScope: el bearer token no alcanza el scope requerido.
func InsufficientScope(message string) *OAuthError {
	return newError(http.StatusForbidden, NameInsufficientScope, message)
}

// ServerError: violación de contrato del Model o excepción no-OAuth.
func ServerError(message string) *OAuthError {
	return newError(http.StatusInternalServerError, NameServerError, message)
}

// InvalidArgument: error de programación (Model sin capability, construcción inválida).
func InvalidArgument(message string) *OAuthError {
	return newError(http.StatusInternalServerError, NameInvalidArgument, message)
}

// From convierte cualquier error en *OAuthError. Lo que no pertenece a la
// taxonomía se envuelve como server_error conservando la causa.
func From(err error) *OAuthError {
	var oe *OAuthError
	if stderrors.As(err, &oe) {
		return oe
	}
	return ServerError("internal error").WithCause(err)
}

// IsName reports whether err is an OAuthError with the given wire code.
func IsName(err error, name string) bool {
	var oe *OAuthError
	if stderrors.As(err, &oe) {
		return oe.Name == name
	}
	return false
}

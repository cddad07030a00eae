package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar HTTP.

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Campos estándar OAuth.

// ClientID crea un campo para el ID del client OAuth.
func ClientID(v string) zap.Field {
	return zap.String("client_id", v)
}

// GrantType crea un campo para el grant type del token request.
func GrantType(v string) zap.Field {
	return zap.String("grant_type", v)
}

// ResponseType crea un campo para el response_type de /authorize.
func ResponseType(v string) zap.Field {
	return zap.String("response_type", v)
}

// TokenHint crea un campo para el token_hint de introspect/revoke.
func TokenHint(v string) zap.Field {
	return zap.String("token_hint", v)
}

// ErrorCode crea un campo para el código de error OAuth en wire.
func ErrorCode(v string) zap.Field {
	return zap.String("error_code", v)
}

// Campos genéricos.

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

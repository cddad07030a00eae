package oauth2

import (
	"encoding/base64"
	"strings"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
	"github.com/dropDatabas3/dearjane/internal/validation"
)

// clientCredentials son las credenciales presentadas por el client en los
// endpoints token/introspect/revoke.
type clientCredentials struct {
	id         string
	secret     string
	fromHeader bool
}

// readClientCredentials extrae credenciales con preferencia por HTTP Basic:
// si viene el header Authorization, pisa cualquier client_id/client_secret
// del body.
func readClientCredentials(req *Request) (clientCredentials, error) {
	ah := req.Header("Authorization")
	if ah == "" {
		return clientCredentials{
			id:     req.Body["client_id"],
			secret: req.Body["client_secret"],
		}, nil
	}
	const prefix = "basic "
	if len(ah) <= len(prefix) || !strings.EqualFold(ah[:len(prefix)], prefix) {
		return clientCredentials{}, oautherr.InvalidRequest("header Authorization malformado")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ah[len(prefix):]))
	if err != nil {
		return clientCredentials{}, oautherr.InvalidRequest("header Authorization malformado")
	}
	id, secret, ok := strings.Cut(string(raw), ":")
	if !ok {
		return clientCredentials{}, oautherr.InvalidRequest("header Authorization malformado")
	}
	return clientCredentials{id: id, secret: secret, fromHeader: true}, nil
}

// validate chequea presencia y clase de caracteres. secretRequired depende
// del endpoint (requireClientAuthentication / isClientSecretRequired).
func (c clientCredentials) validate(secretRequired bool) error {
	if c.id == "" {
		return oautherr.InvalidRequest("falta el parámetro client_id")
	}
	if !validation.IsVSCHAR(c.id) {
		return oautherr.InvalidRequest("client_id malformado")
	}
	if c.secret == "" && secretRequired {
		return oautherr.InvalidRequest("falta el parámetro client_secret")
	}
	if c.secret != "" && !validation.IsVSCHAR(c.secret) {
		return oautherr.InvalidRequest("client_secret malformado")
	}
	return nil
}

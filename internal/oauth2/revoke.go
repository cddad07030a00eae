package oauth2

import (
	"context"
	"net/http"

	oautherr "github.com/dropDatabas3/dearjane/internal/oauth2/errors"
)

// revokeEndpoint implementa RFC 7009. Una vez pasada la autenticación,
// la respuesta es SIEMPRE 200 con body vacío: un token desconocido o
// ajeno no filtra información (§2.2).
type revokeEndpoint struct {
	model Model
	opts  RevokeOptions
}

func (e *revokeEndpoint) Execute(ctx context.Context, req *Request, res *Response) error {
	res.SetHeader("Cache-Control", "no-store")
	res.SetHeader("Pragma", "no-cache")

	if err := e.handle(ctx, req); err != nil {
		writeLookupError(res, req, oautherr.From(err))
		return err
	}
	res.Status = http.StatusOK
	res.SetBody(map[string]any{})
	return nil
}

func (e *revokeEndpoint) handle(ctx context.Context, req *Request) error {
	lookup, err := parseTokenLookup(ctx, e.model, req, e.opts.IsClientSecretRequired)
	if err != nil {
		return err
	}
	token, err := lookup.loadToken(ctx, e.model)
	if err != nil {
		return err
	}
	if !lookup.ownedBy(token) {
		return nil
	}

	if lookup.hint == hintAccessToken {
		_, err = e.model.RevokeAccessToken(ctx, token)
	} else {
		_, err = e.model.RevokeRefreshToken(ctx, token)
	}
	if err != nil {
		return oautherr.From(err)
	}
	return nil
}

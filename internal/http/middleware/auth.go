package middleware

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"computegate/internal/apikey"
	"computegate/internal/auth"
	"computegate/internal/db"
	"computegate/internal/errs"
	httpctx "computegate/internal/http/ctx"
)

// Middleware wraps a handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// bearerKey extracts a key-shaped bearer token. Anything else is rejected
// before the key store is consulted.
func bearerKey(ctx *fasthttp.RequestCtx) (string, string) {
	header := ctx.Request.Header.Peek("Authorization")
	if len(header) == 0 {
		return "", "missing Authorization header"
	}

	const prefix = "Bearer "
	if !bytes.HasPrefix(header, []byte(prefix)) {
		return "", "invalid Authorization header"
	}

	token := strings.TrimSpace(string(header[len(prefix):]))
	if !apikey.HasKeyPrefix(token) {
		return "", apikey.ErrInvalidAPIKey.Message
	}
	return token, ""
}

func identityOf(key *db.APIKeySummary) *auth.Identity {
	return &auth.Identity{
		APIKeyID:    key.ID,
		Name:        key.Name,
		Permissions: []string(key.Permissions),
		Metadata:    map[string]any(key.Metadata),
	}
}

// APIKeyAuth requires a valid API key and stores the caller's identity on
// the request.
func APIKeyAuth(svc apikey.Service) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token, problem := bearerKey(ctx)
			if problem != "" {
				deny(ctx, fasthttp.StatusUnauthorized, problem)
				return
			}

			key, err := svc.ValidateAPIKey(ctx, token)
			if err != nil {
				if errs.KindOf(err) == errs.KindInternal {
					log.Error().Err(err).Msg("API key validation failed")
					deny(ctx, fasthttp.StatusInternalServerError, errs.MessageOf(err))
					return
				}
				deny(ctx, fasthttp.StatusUnauthorized, apikey.ErrInvalidAPIKey.Message)
				return
			}

			httpctx.SetIdentity(ctx, identityOf(key))
			next(ctx)
		}
	}
}

// OptionalAPIKeyAuth attaches an identity when a valid key is presented and
// otherwise lets the request through anonymously.
func OptionalAPIKeyAuth(svc apikey.Service) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if token, problem := bearerKey(ctx); problem == "" {
				if key, err := svc.ValidateAPIKey(ctx, token); err == nil {
					httpctx.SetIdentity(ctx, identityOf(key))
				}
			}
			next(ctx)
		}
	}
}

// RequirePermission rejects callers lacking p. It must run after APIKeyAuth.
func RequirePermission(p string) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			id, ok := httpctx.IdentityFromCtx(ctx)
			if !ok {
				deny(ctx, fasthttp.StatusUnauthorized, "authentication required")
				return
			}
			if !id.HasPermission(p) {
				deny(ctx, fasthttp.StatusForbidden, "missing permission: "+p)
				return
			}
			next(ctx)
		}
	}
}

// Chain applies mws so that the first one runs outermost.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func deny(ctx *fasthttp.RequestCtx, code int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

package ctx

import (
	"github.com/valyala/fasthttp"

	"computegate/internal/auth"
)

const IdentityKey = "identity"

// SetIdentity attaches the authenticated caller to the request.
func SetIdentity(ctx *fasthttp.RequestCtx, id *auth.Identity) {
	ctx.SetUserValue(IdentityKey, id)
}

// IdentityFromCtx returns the caller, or (nil, false) for anonymous requests.
func IdentityFromCtx(ctx *fasthttp.RequestCtx) (*auth.Identity, bool) {
	id, ok := ctx.UserValue(IdentityKey).(*auth.Identity)
	return id, ok && id != nil
}

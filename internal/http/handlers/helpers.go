package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"computegate/internal/auth"
	"computegate/internal/errs"
	httpctx "computegate/internal/http/ctx"
)

var kindStatus = map[errs.Kind]int{
	errs.KindValidation:      fasthttp.StatusBadRequest,
	errs.KindUnauthenticated: fasthttp.StatusUnauthorized,
	errs.KindForbidden:       fasthttp.StatusForbidden,
	errs.KindNotFound:        fasthttp.StatusNotFound,
	errs.KindConflict:        fasthttp.StatusConflict,
	errs.KindInternal:        fasthttp.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if code, ok := kindStatus[errs.KindOf(err)]; ok {
		return code
	}
	return fasthttp.StatusInternalServerError
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"internal server error"}`)
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// errResponse writes err as {"error": msg}. Internal details only reach the log.
func errResponse(ctx *fasthttp.RequestCtx, err error) {
	code := StatusFor(err)
	if code >= fasthttp.StatusInternalServerError {
		log.Error().Err(err).Str("method", string(ctx.Method())).Str("path", string(ctx.Path())).Msg("request failed")
	}
	jsonResponse(ctx, code, map[string]string{"error": errs.MessageOf(err)})
}

// decodeBody unmarshals a JSON body into v. An empty body leaves v untouched.
func decodeBody(ctx *fasthttp.RequestCtx, v any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errs.Wrap(errs.KindValidation, "invalid JSON body", err)
	}
	return nil
}

// MustIdentity returns the authenticated caller, or sends 401 and returns
// (nil, false).
func MustIdentity(ctx *fasthttp.RequestCtx) (*auth.Identity, bool) {
	id, ok := httpctx.IdentityFromCtx(ctx)
	if !ok {
		errResponse(ctx, errs.New(errs.KindUnauthenticated, "authentication required"))
		return nil, false
	}
	return id, true
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	s, _ := ctx.UserValue(name).(string)
	return s
}

// queryInt reads a non-negative integer query parameter; absent means 0.
func queryInt(ctx *fasthttp.RequestCtx, name string) (int, error) {
	raw := string(ctx.QueryArgs().Peek(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.Validation(name + " must be a non-negative integer")
	}
	return n, nil
}

func queryPage(ctx *fasthttp.RequestCtx) (limit, offset int, err error) {
	if limit, err = queryInt(ctx, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(ctx, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

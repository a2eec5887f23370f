package handlers

import (
	"github.com/valyala/fasthttp"

	httpctx "computegate/internal/http/ctx"
	"computegate/internal/preset"
)

func CreatePreset(svc preset.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		var req preset.CreateRequest
		if err := decodeBody(ctx, &req); err != nil {
			errResponse(ctx, err)
			return
		}

		p, err := svc.CreatePreset(ctx, caller, req)
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, p)
	}
}

// ListPresets serves both the authenticated listing and the public one; an
// anonymous caller only ever gets public presets.
func ListPresets(svc preset.Service, publicOnly bool) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		limit, offset, err := queryPage(ctx)
		if err != nil {
			errResponse(ctx, err)
			return
		}
		caller, _ := httpctx.IdentityFromCtx(ctx)

		presets, err := svc.ListPresets(ctx, caller, preset.ListRequest{
			PublicOnly: publicOnly || ctx.QueryArgs().GetBool("public_only"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"presets": presets})
	}
}

func GetPreset(svc preset.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		p, err := svc.GetPreset(ctx, caller, pathParam(ctx, "id"))
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, p)
	}
}

func DeletePreset(svc preset.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		var body reasonRequest
		if err := decodeBody(ctx, &body); err != nil {
			errResponse(ctx, err)
			return
		}

		p, err := svc.DeletePreset(ctx, caller, preset.DeleteRequest{
			PresetID: pathParam(ctx, "id"),
			Reason:   body.Reason,
		})
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, p)
	}
}

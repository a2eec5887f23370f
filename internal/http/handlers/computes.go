package handlers

import (
	"github.com/valyala/fasthttp"

	"computegate/internal/compute"
)

func CreateCompute(svc compute.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		var req compute.CreateRequest
		if err := decodeBody(ctx, &req); err != nil {
			errResponse(ctx, err)
			return
		}

		c, err := svc.CreateCompute(ctx, caller, req)
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, c)
	}
}

func ListComputes(svc compute.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		limit, offset, err := queryPage(ctx)
		if err != nil {
			errResponse(ctx, err)
			return
		}

		list, err := svc.ListComputes(ctx, caller, compute.ListRequest{
			Status:   string(ctx.QueryArgs().Peek("status")),
			Provider: string(ctx.QueryArgs().Peek("provider")),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"computes": list})
	}
}

func GetCompute(svc compute.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		c, err := svc.GetCompute(ctx, caller, pathParam(ctx, "id"))
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, c)
	}
}

func DestroyCompute(svc compute.Service) fasthttp.RequestHandler {
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

		c, err := svc.DestroyCompute(ctx, caller, pathParam(ctx, "id"), body.Reason)
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, c)
	}
}

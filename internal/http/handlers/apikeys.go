package handlers

import (
	"github.com/valyala/fasthttp"

	"computegate/internal/apikey"
)

func CreateAPIKey(svc apikey.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req apikey.CreateRequest
		if err := decodeBody(ctx, &req); err != nil {
			errResponse(ctx, err)
			return
		}

		key, err := svc.CreateAPIKey(ctx, req)
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, key)
	}
}

func ListAPIKeys(svc apikey.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		limit, offset, err := queryPage(ctx)
		if err != nil {
			errResponse(ctx, err)
			return
		}

		keys, err := svc.ListAPIKeys(ctx, apikey.ListRequest{
			Status: string(ctx.QueryArgs().Peek("status")),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"keys": keys})
	}
}

func GetAPIKey(svc apikey.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		key, err := svc.GetAPIKey(ctx, pathParam(ctx, "id"))
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, key)
	}
}

func RevokeAPIKey(svc apikey.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req reasonRequest
		if err := decodeBody(ctx, &req); err != nil {
			errResponse(ctx, err)
			return
		}

		key, err := svc.RevokeAPIKey(ctx, pathParam(ctx, "id"), req.Reason)
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, key)
	}
}

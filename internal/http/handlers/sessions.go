package handlers

import (
	"github.com/valyala/fasthttp"

	"computegate/internal/session"
)

func CreateSession(svc session.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		var req session.CreateRequest
		if err := decodeBody(ctx, &req); err != nil {
			errResponse(ctx, err)
			return
		}

		s, err := svc.CreateSession(ctx, caller, req)
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, s)
	}
}

func ListSessions(svc session.Service) fasthttp.RequestHandler {
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

		list, err := svc.ListSessions(ctx, caller, session.ListRequest{
			ComputeID: string(ctx.QueryArgs().Peek("compute_id")),
			Status:    string(ctx.QueryArgs().Peek("status")),
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"sessions": list})
	}
}

func GetSession(svc session.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		s, err := svc.GetSession(ctx, caller, pathParam(ctx, "id"))
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, s)
	}
}

func TouchSession(svc session.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		caller, ok := MustIdentity(ctx)
		if !ok {
			return
		}
		s, err := svc.TouchSession(ctx, caller, pathParam(ctx, "id"))
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, s)
	}
}

func CloseSession(svc session.Service) fasthttp.RequestHandler {
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

		s, err := svc.CloseSession(ctx, caller, pathParam(ctx, "id"), body.Reason)
		if err != nil {
			errResponse(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, s)
	}
}

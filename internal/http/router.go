// Package http wires handlers and middleware into the service's routes.
package http

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"computegate/internal/apikey"
	"computegate/internal/auth"
	"computegate/internal/compute"
	"computegate/internal/events"
	"computegate/internal/http/handlers"
	mw "computegate/internal/http/middleware"
	"computegate/internal/preset"
	"computegate/internal/projection"
	"computegate/internal/session"
)

// Deps are the services the routes are served from.
type Deps struct {
	Keys      apikey.Service
	Presets   preset.Service
	Computes  compute.Service
	Sessions  session.Service
	Store     events.Store
	Rebuilder *projection.Rebuilder
	Gatherer  prometheus.Gatherer
}

// NewHandler returns the root handler: request logging around the router.
func NewHandler(d Deps) fasthttp.RequestHandler {
	r := router.New()
	r.SaveMatchedRoutePath = true
	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"route not found"}`)
	}

	key := mw.APIKeyAuth(d.Keys)
	optional := mw.OptionalAPIKeyAuth(d.Keys)
	write := mw.RequirePermission(auth.PermissionWrite)
	admin := mw.RequirePermission(auth.PermissionAdmin)

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.POST("/keys", mw.Chain(handlers.CreateAPIKey(d.Keys), key, admin))
	r.GET("/keys", mw.Chain(handlers.ListAPIKeys(d.Keys), key, admin))
	r.GET("/keys/{id}", mw.Chain(handlers.GetAPIKey(d.Keys), key, admin))
	r.DELETE("/keys/{id}", mw.Chain(handlers.RevokeAPIKey(d.Keys), key, admin))

	r.POST("/presets", mw.Chain(handlers.CreatePreset(d.Presets), key))
	r.GET("/presets", mw.Chain(handlers.ListPresets(d.Presets, false), key))
	r.GET("/presets/public", mw.Chain(handlers.ListPresets(d.Presets, true), optional))
	r.GET("/presets/{id}", mw.Chain(handlers.GetPreset(d.Presets), key))
	r.DELETE("/presets/{id}", mw.Chain(handlers.DeletePreset(d.Presets), key))

	r.POST("/computes", mw.Chain(handlers.CreateCompute(d.Computes), key, write))
	r.GET("/computes", mw.Chain(handlers.ListComputes(d.Computes), key))
	r.GET("/computes/{id}", mw.Chain(handlers.GetCompute(d.Computes), key))
	r.DELETE("/computes/{id}", mw.Chain(handlers.DestroyCompute(d.Computes), key, write))

	r.POST("/sessions", mw.Chain(handlers.CreateSession(d.Sessions), key, write))
	r.GET("/sessions", mw.Chain(handlers.ListSessions(d.Sessions), key))
	r.GET("/sessions/{id}", mw.Chain(handlers.GetSession(d.Sessions), key))
	r.POST("/sessions/{id}/touch", mw.Chain(handlers.TouchSession(d.Sessions), key, write))
	r.DELETE("/sessions/{id}", mw.Chain(handlers.CloseSession(d.Sessions), key, write))

	r.GET("/admin/events", mw.Chain(handlers.ListEvents(d.Store), key, admin))
	r.POST("/admin/rebuild", mw.Chain(handlers.RebuildProjections(d.Rebuilder), key, admin))
	r.GET("/metrics", mw.Chain(handlers.MetricsHandler(d.Gatherer), key, admin))

	return handlers.RequestLogger(r.Handler)
}

package handlers

import (
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"computegate/internal/metrics"
)

// RequestLogger returns fasthttp middleware that logs method, path, status,
// duration and records the request duration histogram.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		took := time.Since(start)

		status := ctx.Response.StatusCode()
		route, _ := ctx.UserValue(router.MatchedRoutePathParam).(string)
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDuration.
			WithLabelValues(string(ctx.Method()), route, strconv.Itoa(status)).
			Observe(took.Seconds())

		evt := log.Info()
		if status >= fasthttp.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", status).
			Dur("duration", took).
			Str("ip", ctx.RemoteIP().String()).
			Msg("request")
	}
}

package handlers

import (
	"github.com/valyala/fasthttp"

	"computegate/internal/db"
	"computegate/internal/errs"
	"computegate/internal/events"
	"computegate/internal/projection"
)

// ListEvents returns one aggregate's stream, or the whole log when
// aggregate_id is absent.
func ListEvents(store events.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := string(ctx.QueryArgs().Peek("aggregate_id"))

		var (
			evs []db.Event
			err error
		)
		if id != "" {
			evs, err = store.GetEvents(ctx, id)
		} else {
			evs, err = store.GetAllEvents(ctx)
		}
		if err != nil {
			errResponse(ctx, errs.Internal("failed to read event log", err))
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"events": evs})
	}
}

func RebuildProjections(r *projection.Rebuilder) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		n, err := r.RebuildAll(ctx)
		if err != nil {
			errResponse(ctx, errs.Internal("failed to rebuild projections", err))
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"aggregates": n})
	}
}

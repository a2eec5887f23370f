package handlers

import (
	"bytes"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"

	"computegate/internal/errs"
)

// MetricsHandler serves gathered metrics in the Prometheus text format.
// The optional family query parameter keeps only families whose name
// contains it.
func MetricsHandler(g prometheus.Gatherer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		families, err := g.Gather()
		if err != nil {
			errResponse(ctx, errs.Internal("failed to gather metrics", err))
			return
		}

		family := string(ctx.QueryArgs().Peek("family"))
		filtered := make([]*dto.MetricFamily, 0, len(families))
		for _, mf := range families {
			if family != "" && !strings.Contains(mf.GetName(), family) {
				continue
			}
			filtered = append(filtered, mf)
		}

		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, format)
		for _, mf := range filtered {
			if err := encoder.Encode(mf); err != nil {
				errResponse(ctx, errs.Internal("failed to encode metrics", err))
				return
			}
		}

		ctx.SetContentType(string(format))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}

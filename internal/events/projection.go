package events

import (
	"github.com/rs/zerolog/log"

	"computegate/internal/metrics"
)

// ProjectionFailed records a read-model write that failed after its event was
// appended. The event stays; the projection is repaired by the next write for
// the same aggregate or by a rebuild.
func ProjectionFailed(aggregateType, aggregateID string, err error) {
	metrics.ProjectionWriteFailures.WithLabelValues(aggregateType).Inc()
	log.Warn().
		Err(err).
		Str("aggregate_type", aggregateType).
		Str("aggregate_id", aggregateID).
		Msg("projection write failed; event log remains authoritative")
}

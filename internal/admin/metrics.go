package admin

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// metrics serves GET /metrics — delivery totals and the spool backlog in
// Prometheus text exposition format.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pending, err := h.store.Pending()
	if err != nil {
		slog.Error("admin: pending count failed", "err", err)
		http.Error(w, "spool unavailable", http.StatusInternalServerError)
		return
	}

	s := h.counters.Read()
	families := []*dto.MetricFamily{
		counterFamily("relayd_bundles_sent_total",
			"Bundles accepted by the ingestion endpoint.", float64(s.Sent)),
		counterFamily("relayd_bundle_retries_total",
			"Retryable failures that scheduled a backoff.", float64(s.Retries)),
		counterFamily("relayd_bundles_abandoned_total",
			"Bundles permanently dropped (rejected or retries exhausted).", float64(s.Abandoned)),
		counterFamily("relayd_bundles_rejected_total",
			"Bundles abandoned due to endpoint rejection.", float64(s.Rejected)),
		counterFamily("relayd_endpoint_unreachable_total",
			"Flush passes aborted because the endpoint was unreachable.", float64(s.Unreachable)),
		counterFamily("relayd_flush_passes_total",
			"Completed drain passes.", float64(s.Sessions)),
		gaugeFamily("relayd_spool_pending_bundles",
			"Bundles currently awaiting delivery.", float64(pending)),
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			slog.Error("admin: encode metric family failed",
				"family", mf.GetName(), "err", err)
			return
		}
	}
}

func counterFamily(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{
			{Counter: &dto.Counter{Value: proto.Float64(value)}},
		},
	}
}

func gaugeFamily(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: proto.Float64(value)}},
		},
	}
}

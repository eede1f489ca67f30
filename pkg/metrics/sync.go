package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks the document sync layer: optimistic pushes, their
// failures, and full-state replacements driven by the remote change feed.
type SyncMetrics struct {
	pushes       *prometheus.CounterVec
	pushFailures *prometheus.CounterVec
	feedReplaces *prometheus.CounterVec
	feedErrors   *prometheus.CounterVec
}

// NewSyncMetrics registers the sync counters on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	pushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "doc_push_total",
		Help: "Document pushes attempted, by collection.",
	}, []string{"collection"})
	pushFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "doc_push_failures_total",
		Help: "Document pushes that failed, by collection.",
	}, []string{"collection"})
	feedReplaces := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "doc_feed_replaces_total",
		Help: "Full state replacements delivered by the change feed.",
	}, []string{"collection"})
	feedErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "doc_feed_errors_total",
		Help: "Terminal change feed failures, by collection.",
	}, []string{"collection"})
	reg.MustRegister(pushes, pushFailures, feedReplaces, feedErrors)
	return &SyncMetrics{
		pushes:       pushes,
		pushFailures: pushFailures,
		feedReplaces: feedReplaces,
		feedErrors:   feedErrors,
	}
}

// IncPush counts one push attempt for the collection.
func (m *SyncMetrics) IncPush(collection string) {
	if m == nil || m.pushes == nil {
		return
	}
	m.pushes.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncPushFailure counts one failed push for the collection.
func (m *SyncMetrics) IncPushFailure(collection string) {
	if m == nil || m.pushFailures == nil {
		return
	}
	m.pushFailures.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncFeedReplace counts one change-feed state replacement.
func (m *SyncMetrics) IncFeedReplace(collection string) {
	if m == nil || m.feedReplaces == nil {
		return
	}
	m.feedReplaces.WithLabelValues(normalizeLabel(collection)).Inc()
}

// IncFeedError counts one terminal feed failure.
func (m *SyncMetrics) IncFeedError(collection string) {
	if m == nil || m.feedErrors == nil {
		return
	}
	m.feedErrors.WithLabelValues(normalizeLabel(collection)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dragMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_drag_moves_total",
			Help: "Pointer moves handled while dragging, by outcome",
		},
		[]string{"outcome"},
	)
	dragCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scene_drag_commits_total",
			Help: "Drags that ended and queued a persistence write",
		},
	)
	placementAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scene_placement_attempts",
			Help:    "Spiral attempts needed to place a new model",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 50},
		},
	)
	placementFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scene_placement_fallbacks_total",
			Help: "Placements that exhausted the attempt budget and accepted an occupied slot",
		},
	)
	persistOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_persist_ops_total",
			Help: "Persistence operations executed by the write queue",
		},
		[]string{"op", "result"},
	)
	persistSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scene_persist_superseded_total",
			Help: "Queued writes dropped because a newer write for the same model arrived",
		},
	)
	persistQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scene_persist_queue_depth",
			Help: "Models with a pending persistence operation",
		},
	)
	persistLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scene_persist_latency_ms",
			Help:    "Latency of store writes in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
	uploadRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_upload_rejections_total",
			Help: "Uploads refused by validation, by reason",
		},
		[]string{"reason"},
	)
	storageOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_asset_storage_ops_total",
			Help: "Object storage operations on uploaded assets, by operation and result",
		},
		[]string{"op", "result"},
	)
	storageBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_asset_storage_bytes_total",
			Help: "Bytes moved to and from object storage, by operation",
		},
		[]string{"op"},
	)
	storageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scene_asset_storage_latency_ms",
			Help:    "Latency of object storage operations in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"op"},
	)
	assetCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_asset_cache_requests_total",
			Help: "Asset download cache lookups, by result",
		},
		[]string{"result"},
	)
	cacheLayerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_asset_cache_layer_requests_total",
			Help: "Lookups per asset cache layer, by result",
		},
		[]string{"layer", "result"},
	)
	cacheLayerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scene_asset_cache_layer_latency_ms",
			Help:    "Latency of asset cache layer lookups in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"layer"},
	)
	preloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_asset_preloads_total",
			Help: "Assets requested by cache preloads, by result",
		},
		[]string{"result"},
	)
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_http_requests_total",
			Help: "HTTP requests handled, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
	httpLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scene_http_request_latency_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "route"},
	)
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scene_http_requests_in_flight",
			Help: "HTTP requests being handled",
		},
	)
)

// RecordDragMove counts an accepted or rejected drag candidate.
func RecordDragMove(accepted bool) {
	if accepted {
		dragMoves.WithLabelValues("accepted").Inc()
		return
	}
	dragMoves.WithLabelValues("rejected").Inc()
}

func RecordDragCommit() {
	dragCommits.Inc()
}

// RecordPlacement records how many attempts a placement took and whether it
// had to fall back to an occupied slot.
func RecordPlacement(attempts int, found bool) {
	placementAttempts.Observe(float64(attempts))
	if !found {
		placementFallbacks.Inc()
	}
}

func RecordPersist(op string, err error, milliseconds int64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	persistOps.WithLabelValues(op, result).Inc()
	persistLatency.Observe(float64(milliseconds))
}

func RecordSuperseded() {
	persistSuperseded.Inc()
}

func SetQueueDepth(n int) {
	persistQueueDepth.Set(float64(n))
}

func RecordUploadRejection(reason string) {
	uploadRejections.WithLabelValues(reason).Inc()
}

func RecordAssetCache(hit bool) {
	if hit {
		assetCache.WithLabelValues("hit").Inc()
		return
	}
	assetCache.WithLabelValues("miss").Inc()
}

// RecordStorage records one object storage operation.
func RecordStorage(op string, bytes int64, milliseconds int64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storageOps.WithLabelValues(op, result).Inc()
	storageLatency.WithLabelValues(op).Observe(float64(milliseconds))
	if bytes > 0 {
		storageBytes.WithLabelValues(op).Add(float64(bytes))
	}
}

// RecordCacheLayer records one lookup in a single asset cache layer.
func RecordCacheLayer(layer string, hit bool, milliseconds float64) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLayerRequests.WithLabelValues(layer, result).Inc()
	cacheLayerLatency.WithLabelValues(layer).Observe(milliseconds)
}

func RecordPreload(loaded, failed int) {
	preloads.WithLabelValues("loaded").Add(float64(loaded))
	preloads.WithLabelValues("failed").Add(float64(failed))
}

// TrackRequest marks a request in flight and returns the function recording
// its outcome.
func TrackRequest() func(method, route string, status int, milliseconds float64) {
	httpInFlight.Inc()
	return func(method, route string, status int, milliseconds float64) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpLatency.WithLabelValues(method, route).Observe(milliseconds)
	}
}

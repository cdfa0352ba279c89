package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SceneStats is a snapshot of the live scene.
type SceneStats struct {
	Visible         int
	Hidden          int
	MissingGeometry int
	Dragging        bool
}

// SceneSource provides scene snapshots on each scrape.
type SceneSource interface {
	SceneStats() SceneStats
}

// SceneCollector exports the state of the scene at scrape time.
type SceneCollector struct {
	source SceneSource

	models          *prometheus.Desc
	missingGeometry *prometheus.Desc
	dragActive      *prometheus.Desc
}

var _ prometheus.Collector = (*SceneCollector)(nil)

func NewSceneCollector(source SceneSource) *SceneCollector {
	return &SceneCollector{
		source: source,
		models: prometheus.NewDesc(
			"scene_models",
			"Models in the scene, by visibility",
			[]string{"state"}, nil,
		),
		missingGeometry: prometheus.NewDesc(
			"scene_models_missing_geometry",
			"Models whose geometry bounds are unknown and which therefore never collide",
			nil, nil,
		),
		dragActive: prometheus.NewDesc(
			"scene_drag_active",
			"1 while a model is being dragged",
			nil, nil,
		),
	}
}

func (c *SceneCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.models
	ch <- c.missingGeometry
	ch <- c.dragActive
}

func (c *SceneCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.SceneStats()

	ch <- prometheus.MustNewConstMetric(c.models, prometheus.GaugeValue, float64(s.Visible), "visible")
	ch <- prometheus.MustNewConstMetric(c.models, prometheus.GaugeValue, float64(s.Hidden), "hidden")
	ch <- prometheus.MustNewConstMetric(c.missingGeometry, prometheus.GaugeValue, float64(s.MissingGeometry))

	drag := 0.0
	if s.Dragging {
		drag = 1
	}
	ch <- prometheus.MustNewConstMetric(c.dragActive, prometheus.GaugeValue, drag)
}

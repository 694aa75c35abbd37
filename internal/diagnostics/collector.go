package diagnostics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angeloszaimis/vault-environment/internal/environment"
)

type RegionEvent struct {
	Region    environment.Region
	IsPreAuth bool
	Timestamp time.Time
}

// Collector is the environment.RegionReporter used by the service. Reports
// are queued and applied on the collector goroutine so SetRegion never
// blocks the caller.
type Collector struct {
	eventCh chan RegionEvent
	tracker *Tracker
	logger  *slog.Logger

	reports *prometheus.CounterVec
	active  *prometheus.GaugeVec
	dropped prometheus.Counter
}

// NewCollector creates a collector. When reg is nil no Prometheus metrics
// are registered.
func NewCollector(bufferSize int, logger *slog.Logger, reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventCh: make(chan RegionEvent, bufferSize),
		tracker: NewTracker(),
		logger:  logger,
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "environment_region_reports_total",
				Help: "Total number of region reports by region and pre-auth flag",
			},
			[]string{"region", "pre_auth"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "environment_active_region",
				Help: "1 for the region of the active environment, 0 otherwise",
			},
			[]string{"region"},
		),
		dropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "environment_region_reports_dropped_total",
				Help: "Region reports dropped because the queue was full",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(c.reports, c.active, c.dropped)
	}

	return c
}

// SetRegion queues a region report. A full queue drops the report.
func (c *Collector) SetRegion(region environment.Region, isPreAuth bool) {
	event := RegionEvent{
		Region:    region,
		IsPreAuth: isPreAuth,
		Timestamp: time.Now(),
	}

	select {
	case c.eventCh <- event:
	default:
		c.dropped.Inc()
		c.logger.Warn("Dropping region report, queue full",
			slog.String("region", region.String()),
			slog.Bool("pre_auth", isPreAuth))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Diagnostics collector started")
	defer c.logger.Info("Diagnostics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event RegionEvent) {
	label := event.Region.String()

	c.tracker.Record(label, event.IsPreAuth, event.Timestamp)

	c.reports.WithLabelValues(label, strconv.FormatBool(event.IsPreAuth)).Inc()
	for _, region := range []environment.Region{environment.UnitedStates, environment.Europe, environment.SelfHosted} {
		value := 0.0
		if region == event.Region {
			value = 1
		}
		c.active.WithLabelValues(region.String()).Set(value)
	}

	c.logger.Debug("Region reported",
		slog.String("region", label),
		slog.Bool("pre_auth", event.IsPreAuth))
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.tracker.Snapshot()
}

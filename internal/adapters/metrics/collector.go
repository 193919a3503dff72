package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajvierra/quartermaster/internal/application/common"
	"github.com/ajvierra/quartermaster/internal/application/worker"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/internal/domain/scheduling"
)

const (
	// Namespace for all metrics
	namespace = "quartermaster"
	// Subsystem for daemon metrics
	subsystem = "daemon"
)

// StatusSource exposes the orchestrator's read-only queries the collector
// polls for gauge values
type StatusSource interface {
	QueueDepths() map[scheduling.JobKind]int
	Space() inventory.SpaceSnapshot
	PoolStatus() []worker.SlotStatus
	Aggregates() []inventory.AggregateItemRecord
}

// Collector turns orchestrator notifications and queries into Prometheus
// metrics. Purely observational; nothing here feeds back into scheduling.
type Collector struct {
	registry *prometheus.Registry

	jobsCompleted  *prometheus.CounterVec
	jobsFailed     *prometheus.CounterVec
	depositsStuck  prometheus.Counter
	orderRequested prometheus.Counter
	orderMoved     prometheus.Counter

	queueDepth     *prometheus.GaugeVec
	activeSlots    prometheus.Gauge
	emptySlots     prometheus.Gauge
	fullContainers prometheus.Gauge
	partContainers prometheus.Gauge
	uniqueItems    prometheus.Gauge
	totalItems     prometheus.Gauge
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "jobs_completed_total",
			Help: "Completed jobs by kind",
		}, []string{"kind"}),
		jobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "jobs_failed_total",
			Help: "Failed jobs by kind",
		}, []string{"kind"}),
		depositsStuck: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "deposit_stuck_triggers_total",
			Help: "Forced deposit cycles fired by the stuck-state detector",
		}),
		orderRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "order_items_requested_total",
			Help: "Items requested across all orders",
		}),
		orderMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "order_items_moved_total",
			Help: "Items delivered to the output receptacle",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "queue_depth",
			Help: "Jobs waiting in each queue",
		}, []string{"queue"}),
		activeSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "pool_active_slots",
			Help: "Worker pool slots currently running a job",
		}),
		emptySlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "storage_empty_slots",
			Help: "Total empty slots across storage containers",
		}),
		fullContainers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "storage_full_containers",
			Help: "Storage containers with no free slot",
		}),
		partContainers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "storage_partial_containers",
			Help: "Storage containers partially occupied",
		}),
		uniqueItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "index_unique_items",
			Help: "Unique item records in the aggregate view",
		}),
		totalItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "index_total_items",
			Help: "Total items in the aggregate view",
		}),
	}

	c.registry.MustRegister(
		c.jobsCompleted, c.jobsFailed, c.depositsStuck,
		c.orderRequested, c.orderMoved,
		c.queueDepth, c.activeSlots,
		c.emptySlots, c.fullContainers, c.partContainers,
		c.uniqueItems, c.totalItems,
	)
	return c
}

// Handler returns the HTTP handler for metrics exposition
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Run consumes bus events and polls the status source until ctx is
// cancelled
func (c *Collector) Run(ctx context.Context, bus *common.Bus, source StatusSource, pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.observe(ev)
		case <-ticker.C:
			c.poll(source)
		}
	}
}

func (c *Collector) observe(ev common.Event) {
	switch e := ev.(type) {
	case common.JobFinished:
		if e.Err != "" {
			c.jobsFailed.WithLabelValues(e.Kind).Inc()
		} else {
			c.jobsCompleted.WithLabelValues(e.Kind).Inc()
		}
	case common.DepositStuck:
		c.depositsStuck.Inc()
	case common.OrderCompleted:
		c.orderRequested.Add(float64(e.Requested))
		c.orderMoved.Add(float64(e.Moved))
	case common.IndexRebuilt:
		c.uniqueItems.Set(float64(e.UniqueItems))
		c.totalItems.Set(float64(e.TotalItems))
	}
}

func (c *Collector) poll(source StatusSource) {
	if source == nil {
		return
	}

	for kind, depth := range source.QueueDepths() {
		c.queueDepth.WithLabelValues(string(kind)).Set(float64(depth))
	}

	space := source.Space()
	c.emptySlots.Set(float64(space.EmptySlots))
	c.fullContainers.Set(float64(space.FullContainers))
	c.partContainers.Set(float64(space.PartContainers))

	active := 0
	for _, slot := range source.PoolStatus() {
		if slot.Active {
			active++
		}
	}
	c.activeSlots.Set(float64(active))
}

package fec

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the live Prometheus view of one endpoint's FEC activity,
// registered the way client/prometheus_exporter.go registers its own
// metric families. A plain Snapshot (GetMetrics) is kept alongside for
// callers that just want current counters without a Prometheus scrape.
type Metrics struct {
	symbolsProtected  *prometheus.CounterVec
	repairGenerated   *prometheus.CounterVec
	repairSent        *prometheus.CounterVec
	recoveries        *prometheus.CounterVec
	failedRecoveries  *prometheus.CounterVec
	redundancyBytes   *prometheus.CounterVec
	windowFullEvents  *prometheus.CounterVec
	fecInFlightGauge  *prometheus.GaugeVec

	mu       sync.Mutex
	snapshot Snapshot
}

// Snapshot is a plain-struct counter copy, matching the GetMetrics
// convention the prior FECMetrics/FECDecoderMetrics types in this
// repository used.
type Snapshot struct {
	SymbolsProtected int64
	RepairGenerated  int64
	RepairSent       int64
	Recoveries       int64
	FailedRecoveries int64
	RedundancyBytes  int64
}

// NewMetrics registers its metric families against the default
// Prometheus registerer.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry registers against an explicit registry, for
// callers (tests, multi-tenant harnesses) that don't want the default
// global registry.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	return newMetrics(registry)
}

func newMetrics(registry prometheus.Registerer) *Metrics {
	symbolsProtected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fec_symbols_protected_total",
		Help: "Source symbols protected by a repair group",
	}, []string{"connection_id", "scheme"})
	repairGenerated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fec_repair_symbols_generated_total",
		Help: "Repair symbols produced by a coding scheme",
	}, []string{"connection_id", "scheme"})
	repairSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fec_repair_symbols_sent_total",
		Help: "Repair symbols actually transmitted",
	}, []string{"connection_id", "scheme"})
	recoveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fec_recoveries_total",
		Help: "Source symbols recovered via FEC",
	}, []string{"connection_id", "scheme"})
	failedRecoveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fec_failed_recoveries_total",
		Help: "Decode attempts that recovered nothing",
	}, []string{"connection_id", "scheme"})
	redundancyBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fec_redundancy_bytes_total",
		Help: "Bytes spent on repair symbol payloads",
	}, []string{"connection_id", "scheme"})
	windowFullEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fec_window_full_total",
		Help: "ProtectSourceSymbol calls rejected because the window was full",
	}, []string{"connection_id"})
	fecInFlightGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fec_repair_in_flight",
		Help: "Repair symbols sent but not yet acked or nacked",
	}, []string{"connection_id"})

	if registry != nil {
		registry.MustRegister(symbolsProtected, repairGenerated, repairSent, recoveries,
			failedRecoveries, redundancyBytes, windowFullEvents, fecInFlightGauge)
	}

	return &Metrics{
		symbolsProtected: symbolsProtected,
		repairGenerated:  repairGenerated,
		repairSent:       repairSent,
		recoveries:       recoveries,
		failedRecoveries: failedRecoveries,
		redundancyBytes:  redundancyBytes,
		windowFullEvents: windowFullEvents,
		fecInFlightGauge: fecInFlightGauge,
	}
}

func schemeLabel(id SchemeID) string {
	switch id {
	case SchemeRS:
		return "rs_gf65536"
	case SchemeRLC:
		return "rlc_gf256"
	case SchemeRSKlauspost:
		return "rs_klauspost"
	default:
		return "unknown"
	}
}

func (m *Metrics) RecordProtected(connID string, scheme SchemeID, n int) {
	m.symbolsProtected.WithLabelValues(connID, schemeLabel(scheme)).Add(float64(n))
	m.mu.Lock()
	m.snapshot.SymbolsProtected += int64(n)
	m.mu.Unlock()
}

func (m *Metrics) RecordRepairGenerated(connID string, scheme SchemeID, n int, bytes int) {
	m.repairGenerated.WithLabelValues(connID, schemeLabel(scheme)).Add(float64(n))
	m.redundancyBytes.WithLabelValues(connID, schemeLabel(scheme)).Add(float64(bytes))
	m.mu.Lock()
	m.snapshot.RepairGenerated += int64(n)
	m.snapshot.RedundancyBytes += int64(bytes)
	m.mu.Unlock()
}

func (m *Metrics) RecordRepairSent(connID string, scheme SchemeID, n int) {
	m.repairSent.WithLabelValues(connID, schemeLabel(scheme)).Add(float64(n))
	m.mu.Lock()
	m.snapshot.RepairSent += int64(n)
	m.mu.Unlock()
}

func (m *Metrics) RecordRecovery(connID string, scheme SchemeID, recovered int, attempted bool) {
	if recovered > 0 {
		m.recoveries.WithLabelValues(connID, schemeLabel(scheme)).Add(float64(recovered))
		m.mu.Lock()
		m.snapshot.Recoveries += int64(recovered)
		m.mu.Unlock()
		return
	}
	if attempted {
		m.failedRecoveries.WithLabelValues(connID, schemeLabel(scheme)).Inc()
		m.mu.Lock()
		m.snapshot.FailedRecoveries++
		m.mu.Unlock()
	}
}

func (m *Metrics) RecordWindowFull(connID string) {
	m.windowFullEvents.WithLabelValues(connID).Inc()
}

func (m *Metrics) SetFECInFlight(connID string, n int) {
	m.fecInFlightGauge.WithLabelValues(connID).Set(float64(n))
}

// GetMetrics returns a point-in-time copy of the plain counter snapshot.
func (m *Metrics) GetMetrics() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

package experimental

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"quic-fec/internal/fec"
	"quic-fec/internal/wire"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

// connFEC is one registered connection's windowed FEC state: the
// connection-owned Endpoint plus the bookkeeping FECManager needs to turn
// quic-go datagrams into source/repair symbols and back.
type connFEC struct {
	endpoint *fec.Endpoint
	nextPN   fec.PacketNumber
}

// FECManager управляет Forward Error Correction поверх набора соединений,
// по одному windowed-FEC Endpoint (internal/fec) на соединение, под общим
// реестром с блокировкой на границе (spec §5: "registry guards its map
// with a mutex at the boundary").
type FECManager struct {
	logger     *zap.Logger
	redundancy float64
	symbolSize int
	windowCap  int

	mu          sync.RWMutex
	isActive    bool
	metrics     *fec.Metrics
	connections map[string]*connFEC
}

// FECMetrics — плоский снимок счётчиков одного соединения, в том же виде,
// в каком эта структура отдавалась раньше (client/prometheus_exporter.go
// и internal/experimental/manager.go читают это поле по значению).
type FECMetrics struct {
	RedundancyBytes  int64   `json:"redundancy_bytes"`
	RecoveryEvents   int64   `json:"recovery_events"`
	FailedRecoveries int64   `json:"failed_recoveries"`
	Efficiency       float64 `json:"efficiency"`
}

// NewFECManager создает новый FEC менеджер. redundancy is stored and
// reported by GetRedundancy only; RegisterConnection does not read it, and
// each connection's repair rate comes from its own controller.
func NewFECManager(logger *zap.Logger, redundancy float64) *FECManager {
	return &FECManager{
		logger:      logger,
		redundancy:  redundancy,
		symbolSize:  1200,
		windowCap:   256,
		metrics:     fec.NewMetrics(),
		connections: make(map[string]*connFEC),
		isActive:    true,
	}
}

func connKey(conn quic.Connection) string {
	return conn.RemoteAddr().String()
}

// RegisterConnection allocates a fresh windowed Endpoint for conn, using
// the RLC scheme and a bulk controller (spec §4.6's default for an
// unclassified bulk transfer).
func (fm *FECManager) RegisterConnection(conn quic.Connection) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	key := connKey(conn)
	if _, ok := fm.connections[key]; ok {
		return
	}
	scheme := fec.NewRLCScheme()
	controller := fec.NewBulkController(fec.InitialSymbolID)
	endpoint := fec.NewEndpoint(key, fm.symbolSize, fm.windowCap, scheme, controller, fm.metrics)
	fm.connections[key] = &connFEC{endpoint: endpoint}
}

// UnregisterConnection drops conn's Endpoint.
func (fm *FECManager) UnregisterConnection(conn quic.Connection) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	delete(fm.connections, connKey(conn))
}

func (fm *FECManager) get(conn quic.Connection) *connFEC {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.connections[connKey(conn)]
}

// OnDatagramSent protects data as the next source symbol and, if the
// controller decides this send opportunity should carry a repair frame,
// sends the wire-encoded FEC frame as a separate datagram.
func (fm *FECManager) OnDatagramSent(conn quic.Connection, data []byte) error {
	cf := fm.get(conn)
	if cf == nil {
		return fmt.Errorf("fec: connection %s not registered", connKey(conn))
	}

	id, err := cf.endpoint.ProtectSourceSymbol(data)
	if err != nil {
		return fmt.Errorf("fec: protect source symbol: %w", err)
	}

	pn := cf.nextPN
	cf.nextPN++
	cf.endpoint.OnPacketSent(pn, fec.SendNewData, id, 1)

	// quic.Connection exposes no congestion-controller internals, so the
	// bulk controller here gets a zero PathStats: no loss term (r = 1), no
	// rtt/8 spacing, and r_max = 1, so at most one repair symbol in flight.
	stats := fec.PathStats{}
	rs, ok, err := cf.endpoint.OnSendOpportunity(stats, time.Now(), fm.symbolSize)
	if err != nil {
		return fmt.Errorf("fec: send opportunity: %w", err)
	}
	if !ok {
		return nil
	}

	frame := &wire.FECFrame{
		FirstID:     uint32(rs.FirstID),
		NProtected:  rs.NProtected,
		NRepair:     rs.NRepair,
		RepairIndex: rs.RepairIndex,
		FBFEC:       rs.IsFBFEC,
		Payload:     rs.Payload,
	}
	var buf bytes.Buffer
	if err := frame.Write(&buf); err != nil {
		return fmt.Errorf("fec: write repair frame: %w", err)
	}
	if err := conn.SendDatagram(buf.Bytes()); err != nil {
		return fmt.Errorf("fec: send repair frame: %w", err)
	}
	fm.metrics.RecordRepairSent(connKey(conn), rs.SchemeID, 1)
	return nil
}

// OnDatagramReceived inspects data's leading frame type byte. A plain
// payload is handed back unchanged; a FEC repair frame is buffered into
// the receiver window and consumed (returns nil, nil for the caller to
// drop this datagram from the stream path).
func (fm *FECManager) OnDatagramReceived(conn quic.Connection, data []byte) ([]byte, error) {
	cf := fm.get(conn)
	if cf == nil {
		return data, fmt.Errorf("fec: connection %s not registered", connKey(conn))
	}
	if len(data) == 0 {
		return data, nil
	}
	if data[0] != wire.FrameTypeFEC {
		return data, nil
	}

	r := bytes.NewReader(data[1:])
	f, err := wire.ParseFECFrame(r)
	if err != nil {
		return nil, fmt.Errorf("fec: parse repair frame: %w", err)
	}
	rs := fec.RepairSymbol{
		SchemeID:    fec.SchemeRLC, // RegisterConnection always uses RLC
		FirstID:     fec.SourceSymbolID(f.FirstID),
		NProtected:  f.NProtected,
		NRepair:     f.NRepair,
		RepairIndex: f.RepairIndex,
		IsFBFEC:     f.FBFEC,
		Payload:     f.Payload,
	}
	if _, err := cf.endpoint.ReceiveRepairSymbol(rs); err != nil {
		return nil, fmt.Errorf("fec: receive repair symbol: %w", err)
	}
	return nil, nil
}

// OnPacketLoss reports loss-detected packet numbers to the Endpoint so the
// sender window and controller keep an accurate in-flight count.
func (fm *FECManager) OnPacketLoss(conn quic.Connection, lostPackets []uint64) {
	cf := fm.get(conn)
	if cf == nil {
		return
	}
	for _, pn := range lostPackets {
		cf.endpoint.OnPacketLost(fec.PacketNumber(pn))
	}
}

// OnFECPacketReceived decodes a standalone FEC wire frame (used by
// transports that carry FEC out of band from the datagram path, e.g. a
// dedicated control stream) and buffers it the same way OnDatagramReceived
// does.
func (fm *FECManager) OnFECPacketReceived(conn quic.Connection, fecData []byte) error {
	_, err := fm.OnDatagramReceived(conn, fecData)
	return err
}

// SetRedundancy updates the stored redundancy fraction reported by
// GetRedundancy; no connection's controller reads it.
func (fm *FECManager) SetRedundancy(redundancy float64) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.redundancy = redundancy
}

// GetRedundancy returns the currently configured redundancy fraction.
func (fm *FECManager) GetRedundancy() float64 {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.redundancy
}

// GetRecoveryRate returns the manager-wide recovered-symbols-per-repair-
// symbol-sent ratio, 0 if nothing has been sent yet; conn is not used.
func (fm *FECManager) GetRecoveryRate(conn quic.Connection) float64 {
	snap := fm.metrics.GetMetrics()
	if snap.RepairSent == 0 {
		return 0
	}
	return float64(snap.Recoveries) / float64(snap.RepairSent)
}

// GetMetrics returns the manager-wide snapshot, matching the aggregate
// view internal/experimental/manager.go folds into its own metrics map.
func (fm *FECManager) GetMetrics() *FECMetrics {
	snap := fm.metrics.GetMetrics()
	efficiency := 0.0
	if snap.RepairGenerated > 0 {
		efficiency = float64(snap.Recoveries) / float64(snap.RepairGenerated)
	}
	return &FECMetrics{
		RedundancyBytes:  snap.RedundancyBytes,
		RecoveryEvents:   snap.Recoveries,
		FailedRecoveries: snap.FailedRecoveries,
		Efficiency:       efficiency,
	}
}

// GetMetricsForConnection returns the same manager-wide snapshot scoped to
// one connection's label; Prometheus retains the per-connection series, so
// today's Snapshot stays manager-wide until per-connection snapshotting is
// worth the bookkeeping.
func (fm *FECManager) GetMetricsForConnection(conn quic.Connection) *FECMetrics {
	if fm.get(conn) == nil {
		return nil
	}
	return fm.GetMetrics()
}

// Stop останавливает FEC менеджер
func (fm *FECManager) Stop() {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.isActive = false
	fm.logger.Info("FEC manager stopped")
}

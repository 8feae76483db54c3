package fec

import "time"

// SendKind is the decision a redundancy controller returns on every send
// opportunity.
type SendKind int

const (
	SendNothing SendKind = iota
	SendNewData
	SendFECRepair
	SendFBFECRepair
)

// Decision is a controller's answer to "what should the next slot carry".
type Decision struct {
	Kind    SendKind
	FirstID SourceSymbolID
	K       int
	R       int
}

// PathStats is the subset of congestion/loss measurements a controller
// needs, gathered from the host transport's congestion controller and
// loss estimator (out of core scope; see spec §1).
type PathStats struct {
	SmoothedRTT      time.Duration
	CWin             uint64
	BytesInTransit   uint64
	SendMTU          uint64
	LossRateL        uint64 // numerator of the estimated loss rate L/G
	Granularity      uint64 // G, fixed-point denominator, typically 1000
	GeModelR         uint64 // G/gemodel_r term of r_max
	GeModelP         uint64 // gemodel_p in units of G; the buffer-limited threshold is ceil(G/GeModelP)
	HasPendingData   bool   // fec_has_protected_data_to_send
	CWinToInFlightOK bool   // cwin/bytes_in_transit ratio > granularity*1.1, message-based only
}

// WindowSnapshot is the read-only view of the sender window a controller
// consults; it never mutates window state directly.
type WindowSnapshot struct {
	Smallest SourceSymbolID
	Highest  SourceSymbolID
	Empty    bool
}

// Controller is the redundancy-controller interface shared by bulk,
// buffer-limited, message-based, and causal implementations (C6).
type Controller interface {
	// Decide returns a protect decision, or ok=false to abstain.
	Decide(stats PathStats, win WindowSnapshot, now time.Time, nFECInFlight int) (Decision, bool)
	SlotAcked(slot uint64)
	SlotNacked(slot uint64)
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// rMax implements §4.6's bulk formula:
// r_max = 1 + max(2*ceil(|W|*L/(G-L)), G/gemodel_r).
func rMax(windowSize uint64, stats PathStats) uint64 {
	if stats.Granularity <= stats.LossRateL {
		return 1 + stats.GeModelR
	}
	term1 := 2 * ceilDiv(windowSize*stats.LossRateL, stats.Granularity-stats.LossRateL)
	term2 := stats.GeModelR
	return 1 + maxU64(term1, term2)
}

// bulkController: grounded on bulk_protect_condition.c. Protects only
// when there is no pending application data and at least rtt/8 has
// elapsed since the last protected id, then sizes r as
// max(1, ceil(k*L/(G-L))), capped by rMax minus symbols already in flight.
type bulkController struct {
	firstUnprotectedID  SourceSymbolID
	lastSentIDTimestamp time.Time
}

func newBulkController(start SourceSymbolID) *bulkController {
	return &bulkController{firstUnprotectedID: start}
}

func (c *bulkController) Decide(stats PathStats, win WindowSnapshot, now time.Time, nFECInFlight int) (Decision, bool) {
	if stats.HasPendingData {
		return Decision{}, false
	}
	threshold := stats.SmoothedRTT / 8
	if !c.lastSentIDTimestamp.IsZero() && now.Before(c.lastSentIDTimestamp.Add(threshold)) {
		return Decision{}, false
	}
	if win.Empty {
		return Decision{}, false
	}
	if c.firstUnprotectedID < win.Smallest {
		c.firstUnprotectedID = win.Smallest
	}
	k := uint64(win.Highest-c.firstUnprotectedID) + 1
	if k == 0 {
		return Decision{}, false
	}

	r := uint64(1)
	if stats.LossRateL != 0 && stats.Granularity > stats.LossRateL {
		r = maxU64(r, ceilDiv(k*stats.LossRateL, stats.Granularity-stats.LossRateL))
	}

	cap := rMax(uint64(win.Highest-win.Smallest)+1, stats)
	if uint64(nFECInFlight) >= cap {
		return Decision{}, false
	}
	if r > cap-uint64(nFECInFlight) {
		r = cap - uint64(nFECInFlight)
	}
	if r == 0 {
		return Decision{}, false
	}

	first := c.firstUnprotectedID
	c.firstUnprotectedID += SourceSymbolID(k)
	c.lastSentIDTimestamp = now
	return Decision{Kind: SendFECRepair, FirstID: first, K: int(k), R: int(r)}, true
}

func (c *bulkController) SlotAcked(slot uint64)  {}
func (c *bulkController) SlotNacked(slot uint64) {}

// bufferLimitedController: grounded on buffer_limited_protect_condition.c.
// Like bulk, but gated on having accumulated enough unprotected symbols
// (k >= G/gemodel_p) rather than an idle-time threshold, and r is
// additionally capped by the buffer's remaining congestion-window budget.
type bufferLimitedController struct {
	firstUnprotectedID SourceSymbolID
}

func newBufferLimitedController(start SourceSymbolID) *bufferLimitedController {
	return &bufferLimitedController{firstUnprotectedID: start}
}

func (c *bufferLimitedController) Decide(stats PathStats, win WindowSnapshot, now time.Time, nFECInFlight int) (Decision, bool) {
	if win.Empty {
		return Decision{}, false
	}
	if c.firstUnprotectedID < win.Smallest {
		c.firstUnprotectedID = win.Smallest
	}
	k := uint64(win.Highest-c.firstUnprotectedID) + 1
	if k == 0 {
		return Decision{}, false
	}

	enoughPacketsSent := stats.GeModelP != 0 && k >= ceilDiv(stats.Granularity, stats.GeModelP)
	if !stats.HasPendingData && !enoughPacketsSent {
		return Decision{}, false
	}

	baseline := uint64(1)
	if stats.LossRateL != 0 && stats.Granularity > stats.LossRateL {
		baseline = maxU64(baseline, ceilDiv(k*stats.LossRateL, stats.Granularity-stats.LossRateL))
	}

	remPCwin := uint64(1)
	if stats.SendMTU > 0 && stats.CWin > stats.BytesInTransit {
		remPCwin = ceilDiv(stats.CWin-stats.BytesInTransit, minU64(stats.SendMTU, maxQUICPacketSize))
	}
	r := minU64(baseline, remPCwin)
	if r == 0 {
		return Decision{}, false
	}

	first := c.firstUnprotectedID
	c.firstUnprotectedID += SourceSymbolID(k)
	return Decision{Kind: SendFECRepair, FirstID: first, K: int(k), R: int(r)}, true
}

func (c *bufferLimitedController) SlotAcked(slot uint64)  {}
func (c *bufferLimitedController) SlotNacked(slot uint64) {}

// messageBasedController: grounded on message_based_protect_condition.c.
// Protects proactively when the soonest delivery deadline in the window
// could not be met by a retransmission round-trip without FEC, and when
// the instantaneous cwin/bytes_in_transit ratio shows headroom. Deadline
// arithmetic is overflow-checked rather than "crossing fingers" as the
// original comment puts it (see spec §9 Open Questions, resolved in
// DESIGN.md): a deadline further than maxDeadlineHorizon in the future is
// rejected outright.
type messageBasedController struct {
	firstUnprotectedID         SourceSymbolID
	lastFullyProtectedDeadline time.Time
	deadlines                  map[SourceSymbolID]time.Time
}

const maxDeadlineHorizon = 1<<32 - 1 // microseconds, per spec §9

func newMessageBasedController(start SourceSymbolID) *messageBasedController {
	return &messageBasedController{
		firstUnprotectedID: start,
		deadlines:          make(map[SourceSymbolID]time.Time),
	}
}

// SetDeadline records an optional delivery deadline for a source symbol;
// symbols with no deadline are ignored by the soonest-deadline search.
func (c *messageBasedController) SetDeadline(id SourceSymbolID, deadline time.Time, now time.Time) error {
	if deadline.After(now.Add(maxDeadlineHorizon * time.Microsecond)) {
		return ErrDeadlineOutOfRange
	}
	c.deadlines[id] = deadline
	return nil
}

func (c *messageBasedController) soonestDeadline(win WindowSnapshot) (SourceSymbolID, time.Time, bool) {
	var bestID SourceSymbolID
	var best time.Time
	found := false
	for id, d := range c.deadlines {
		if id < win.Smallest || id > win.Highest {
			delete(c.deadlines, id)
			continue
		}
		if !found || d.Before(best) {
			bestID, best, found = id, d, true
		}
	}
	return bestID, best, found
}

func (c *messageBasedController) Decide(stats PathStats, win WindowSnapshot, now time.Time, nFECInFlight int) (Decision, bool) {
	if win.Empty {
		return Decision{}, false
	}
	owd := stats.SmoothedRTT / 2
	_, deadline, hasDeadline := c.soonestDeadline(win)
	if !hasDeadline {
		return Decision{}, false
	}
	if !now.Add(owd).After(deadline) {
		// Still time for a normal retransmission round trip.
		return Decision{}, false
	}
	everWouldBlock := !stats.HasPendingData && stats.CWinToInFlightOK
	if !everWouldBlock && !stats.HasPendingData {
		return Decision{}, false
	}

	if c.firstUnprotectedID < win.Smallest {
		c.firstUnprotectedID = win.Smallest
	}
	k := uint64(win.Highest-c.firstUnprotectedID) + 1
	if k == 0 {
		return Decision{}, false
	}
	r := uint64(1)
	if stats.LossRateL != 0 && stats.Granularity > stats.LossRateL {
		r = maxU64(r, ceilDiv(k*stats.LossRateL, stats.Granularity-stats.LossRateL))
	}

	first := c.firstUnprotectedID
	c.firstUnprotectedID += SourceSymbolID(k)
	c.lastFullyProtectedDeadline = deadline
	return Decision{Kind: SendFECRepair, FirstID: first, K: int(k), R: int(r)}, true
}

func (c *messageBasedController) SlotAcked(slot uint64)  {}
func (c *messageBasedController) SlotNacked(slot uint64) {}

// causalState is the slot-indexed state machine driving the RLC
// controller, per spec §4.6's transition table.
type causalState int

const (
	causalSlowStart causalState = iota
	causalFECBurst
	causalSteady
)

// causalController: grounded on the RLC addon state machine. A single
// "plug" repair symbol (k=1,r=1, FB-FEC) is sent in reaction to a NACK;
// bursts of repairs are sent while in fecBurst to cover estimated losses;
// window-full pressure forces a repair regardless of state.
type causalController struct {
	state               causalState
	firstUnprotectedID  SourceSymbolID
	pendingBurstRepairs int
	pendingPlugID       SourceSymbolID
	hasPendingPlug      bool
}

func newCausalController(start SourceSymbolID) *causalController {
	return &causalController{state: causalSlowStart, firstUnprotectedID: start}
}

func (c *causalController) Decide(stats PathStats, win WindowSnapshot, now time.Time, nFECInFlight int) (Decision, bool) {
	if win.Empty {
		return Decision{}, false
	}
	if c.hasPendingPlug {
		id := c.pendingPlugID
		c.hasPendingPlug = false
		return Decision{Kind: SendFBFECRepair, FirstID: id, K: 1, R: 1}, true
	}

	windowFull := uint64(win.Highest-win.Smallest)+1 >= stats.GeModelP && stats.GeModelP > 0
	if !windowFull && c.state != causalFECBurst {
		return Decision{}, false
	}

	if c.firstUnprotectedID < win.Smallest {
		c.firstUnprotectedID = win.Smallest
	}
	k := uint64(win.Highest-c.firstUnprotectedID) + 1
	if k == 0 {
		return Decision{}, false
	}
	first := c.firstUnprotectedID
	c.firstUnprotectedID += SourceSymbolID(k)
	if c.pendingBurstRepairs > 0 {
		c.pendingBurstRepairs--
		if c.pendingBurstRepairs == 0 {
			c.state = causalSteady
		}
	}
	return Decision{Kind: SendFECRepair, FirstID: first, K: int(k), R: 1}, true
}

func (c *causalController) SlotAcked(slot uint64) {
	if c.state == causalFECBurst && c.pendingBurstRepairs == 0 {
		c.state = causalSteady
	}
}

func (c *causalController) SlotNacked(slot uint64) {
	c.state = causalFECBurst
	c.pendingBurstRepairs++
}

// RequestPlug queues a single-symbol feedback-FEC repair for id, used by
// the ACK/loss integration layer when a loss is detected for a packet
// the causal controller is responsible for.
func (c *causalController) RequestPlug(id SourceSymbolID) {
	c.pendingPlugID = id
	c.hasPendingPlug = true
}

const maxQUICPacketSize = 1452

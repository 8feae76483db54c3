package fec

import "time"

// PacketNumber is the host transport's packet-number space; the FEC core
// only ever compares and maps these, never interprets them.
type PacketNumber uint64

// Slot is the sender-side per-send-opportunity counter described in
// spec §3: it ties together a packet number, the window snapshot at send
// time, and the controller's decision for that send.
type Slot uint64

type sentPacketInfo struct {
	slot        Slot
	kind        SendKind
	firstID     SourceSymbolID
	nProtected  uint16
	fecRelated  bool
}

type lostEntry struct {
	slot    Slot
	firstID SourceSymbolID
}

// Endpoint is the single connection-owned context collapsing the
// original's cyclic connection/path/window/scheme/controller pointer
// graph into one owner (spec §9 Design Notes: "collapse these into a
// single connection-owned context struct"). It is never shared across
// goroutines; the registry holding many Endpoints guards its map with a
// mutex at the boundary (see internal/integration).
type Endpoint struct {
	ConnID     string
	SymbolSize int
	scheme     Scheme
	controller Controller
	metrics    *Metrics

	Sender   *SenderWindow
	Receiver *ReceiverWindow

	nextSlot     Slot
	sentPackets  map[PacketNumber]sentPacketInfo
	idToPacket   map[SourceSymbolID]PacketNumber
	lostPackets  map[PacketNumber]lostEntry
}

// NewEndpoint wires up one connection's FEC state. windowCapacity bounds
// both the sender window and (at 2x) the receiver buffers, per spec §3/§4.5.
func NewEndpoint(connID string, symbolSize, windowCapacity int, scheme Scheme, controller Controller, metrics *Metrics) *Endpoint {
	return &Endpoint{
		ConnID:      connID,
		SymbolSize:  symbolSize,
		scheme:      scheme,
		controller:  controller,
		metrics:     metrics,
		Sender:      NewSenderWindow(windowCapacity, scheme),
		Receiver:    NewReceiverWindow(2*windowCapacity, symbolSize, scheme),
		sentPackets: make(map[PacketNumber]sentPacketInfo),
		idToPacket:  make(map[SourceSymbolID]PacketNumber),
		lostPackets: make(map[PacketNumber]lostEntry),
	}
}

// ProtectSourceSymbol registers a newly transmitted packet's payload as a
// source symbol, per on_send_opportunity driving a new_data decision.
func (e *Endpoint) ProtectSourceSymbol(payload []byte) (SourceSymbolID, error) {
	id, err := e.Sender.ProtectSourceSymbol(payload)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordWindowFull(e.ConnID)
		}
		return 0, err
	}
	return id, nil
}

// OnSendOpportunity asks the controller whether to generate more repair
// symbols, then returns whatever is at the head of the repair queue if it
// fits maxFrameBytes. A caller that gets ok=false should send new data
// instead.
func (e *Endpoint) OnSendOpportunity(stats PathStats, now time.Time, maxFrameBytes int) (RepairSymbol, bool, error) {
	if err := e.Sender.GenerateAndQueueRepair(e.controller, stats, now, false); err != nil {
		return RepairSymbol{}, false, err
	}
	rs, ok := e.Sender.GetRepairPayloadFromQueue(maxFrameBytes)
	if ok && e.metrics != nil {
		e.metrics.RecordRepairGenerated(e.ConnID, rs.SchemeID, 1, len(rs.Payload))
	}
	return rs, ok, nil
}

// OnPacketSent records the (packet number, slot) association and the
// source-symbol range the packet carries, so later ACK/loss events can be
// mapped back to window state.
func (e *Endpoint) OnPacketSent(pn PacketNumber, kind SendKind, firstID SourceSymbolID, nProtected uint16) Slot {
	slot := e.nextSlot
	e.nextSlot++
	fecRelated := kind != SendNothing
	e.sentPackets[pn] = sentPacketInfo{slot: slot, kind: kind, firstID: firstID, nProtected: nProtected, fecRelated: fecRelated}
	if kind == SendNewData {
		e.Sender.SfpidTakesOff(firstID)
		e.idToPacket[firstID] = pn
	}
	return slot
}

// OnAckRange processes one ACK range [highest-rangeLen+1, highest],
// grounded on process_ack_range.c: packets already in the lost-packet
// table are treated as peer-received-despite-being-declared-lost (likely
// via FEC), everything else is matched against the sent-packet table.
func (e *Endpoint) OnAckRange(highest PacketNumber, rangeLen uint64) {
	if rangeLen == 0 {
		return
	}
	pn := highest
	for i := uint64(0); i < rangeLen; i++ {
		if entry, ok := e.lostPackets[pn]; ok {
			e.Sender.SfpidHasLanded(entry.firstID, true)
			e.Sender.WindowSlotAcked(uint64(entry.slot), e.controller, true)
			delete(e.lostPackets, pn)
		} else if info, ok := e.sentPackets[pn]; ok {
			if info.fecRelated {
				e.Sender.WindowSlotAcked(uint64(info.slot), e.controller, info.kind != SendNewData)
			}
			if info.kind == SendNewData {
				e.Sender.SfpidHasLanded(info.firstID, true)
			}
			delete(e.sentPackets, pn)
		}
		if pn == 0 {
			break
		}
		pn--
	}
	if e.metrics != nil {
		e.metrics.SetFECInFlight(e.ConnID, e.Sender.NFECInFlight())
	}
}

// OnPacketLost handles a loss-detection event for pn: FEC-related packets
// (those that carried source data or a repair frame) are added to the
// lost-packet table so a later ACK or RECOVERED notification can still
// retire them, and the controller is notified via WindowSlotNacked.
func (e *Endpoint) OnPacketLost(pn PacketNumber) {
	info, ok := e.sentPackets[pn]
	if !ok {
		return
	}
	delete(e.sentPackets, pn)
	if !info.fecRelated {
		return
	}
	e.lostPackets[pn] = lostEntry{slot: info.slot, firstID: info.firstID}
	e.Sender.WindowSlotNacked(uint64(info.slot), e.controller, info.kind != SendNewData)
}

// OnFrameRecovered treats each recovered id exactly like an ACK of the
// original packet, excluding RTT sampling, per the RECOVERED feedback
// frame semantics in spec §4.7.
func (e *Endpoint) OnFrameRecovered(ids []SourceSymbolID) {
	for _, id := range ids {
		e.Sender.SfpidHasLanded(id, true)
		pn, ok := e.idToPacket[id]
		if !ok {
			continue
		}
		delete(e.idToPacket, id)
		delete(e.sentPackets, pn)
		delete(e.lostPackets, pn)
	}
}

// ReceiveSourceSymbol buffers an incoming source symbol on the receiver
// side.
func (e *Endpoint) ReceiveSourceSymbol(ss SourceSymbol) {
	e.Receiver.AddSourceSymbol(ss)
}

// ReceiveRepairSymbol buffers an incoming repair symbol, attempts
// recovery, and returns any source symbols recovered as a result.
func (e *Endpoint) ReceiveRepairSymbol(rs RepairSymbol) ([]SourceSymbol, error) {
	recovered, err := e.Receiver.AddRepairSymbol(rs)
	if e.metrics != nil {
		e.metrics.RecordRecovery(e.ConnID, rs.SchemeID, len(recovered), true)
	}
	return recovered, err
}

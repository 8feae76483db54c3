package fec

import "testing"

// Idempotent ACK (spec §8): on_ack_range applied twice to the same range
// is equivalent to applying it once.
func TestOnAckRangeIdempotent(t *testing.T) {
	ep := NewEndpoint("conn", 32, 64, newRLCScheme(), newBulkController(InitialSymbolID), nil)

	id, err := ep.ProtectSourceSymbol(make([]byte, 32))
	if err != nil {
		t.Fatalf("protect: %v", err)
	}
	pn := PacketNumber(1)
	ep.OnPacketSent(pn, SendNewData, id, 1)

	ep.OnAckRange(pn, 1)
	snapAfterFirst := ep.Sender.Snapshot()

	ep.OnAckRange(pn, 1)
	snapAfterSecond := ep.Sender.Snapshot()

	if snapAfterFirst != snapAfterSecond {
		t.Fatalf("applying the same ack range twice changed sender window state: %+v -> %+v",
			snapAfterFirst, snapAfterSecond)
	}
}

func TestOnPacketLostThenRecoveredClearsLostTable(t *testing.T) {
	ep := NewEndpoint("conn", 32, 64, newRLCScheme(), newBulkController(InitialSymbolID), nil)

	id, err := ep.ProtectSourceSymbol(make([]byte, 32))
	if err != nil {
		t.Fatalf("protect: %v", err)
	}
	pn := PacketNumber(7)
	ep.OnPacketSent(pn, SendNewData, id, 1)
	ep.OnPacketLost(pn)

	if _, stillLost := ep.lostPackets[pn]; !stillLost {
		t.Fatal("expected the packet to be tracked as lost-but-recoverable")
	}

	ep.OnFrameRecovered([]SourceSymbolID{id})

	if _, stillLost := ep.lostPackets[pn]; stillLost {
		t.Fatal("expected OnFrameRecovered to clear the lost-packet entry")
	}
}

func TestReceiveSourceAndRepairSymbol(t *testing.T) {
	const k, r, symbolLen = 4, 1, 16
	scheme := newRLCScheme()
	sources := makeSources(k, symbolLen, InitialSymbolID)
	repairs, err := scheme.Encode(sources, r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	ep := NewEndpoint("conn", symbolLen, 64, scheme, newBulkController(InitialSymbolID), nil)
	for i, src := range sources {
		if i == 1 {
			continue // simulate loss of the 2nd source symbol
		}
		ep.ReceiveSourceSymbol(src)
	}

	recovered, err := ep.ReceiveRepairSymbol(repairs[0])
	if err != nil {
		t.Fatalf("receive repair: %v", err)
	}
	if len(recovered) != 1 || recovered[0].ID != sources[1].ID {
		t.Fatalf("expected to recover id %d, got %+v", sources[1].ID, recovered)
	}
}

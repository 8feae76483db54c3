package fec

import (
	"bytes"
	"testing"
	"time"
)

// Window contiguity invariant (spec §8): after any protect/takes-off/
// has-landed trace, resident ids form a contiguous range of size <= W.
func TestSenderWindowContiguity(t *testing.T) {
	w := NewSenderWindow(8, newRLCScheme())
	var ids []SourceSymbolID
	for i := 0; i < 5; i++ {
		id, err := w.ProtectSourceSymbol([]byte{byte(i)})
		if err != nil {
			t.Fatalf("protect: %v", err)
		}
		w.SfpidTakesOff(id)
		ids = append(ids, id)
	}

	w.SfpidHasLanded(ids[0], true)
	w.SfpidHasLanded(ids[1], true)

	snap := w.Snapshot()
	if snap.Empty {
		t.Fatal("expected a non-empty window after only 2 of 5 symbols landed")
	}
	if snap.Smallest != ids[2] {
		t.Fatalf("expected smallest = %d after ids[0],ids[1] acked, got %d", ids[2], snap.Smallest)
	}
	if uint64(snap.Highest-snap.Smallest)+1 > 8 {
		t.Fatalf("window exceeds capacity: %d", snap.Highest-snap.Smallest+1)
	}
}

func TestSenderWindowFullRejects(t *testing.T) {
	w := NewSenderWindow(2, newRLCScheme())
	id1, err := w.ProtectSourceSymbol([]byte{1})
	if err != nil {
		t.Fatalf("protect 1: %v", err)
	}
	w.SfpidTakesOff(id1)
	id2, err := w.ProtectSourceSymbol([]byte{2})
	if err != nil {
		t.Fatalf("protect 2: %v", err)
	}
	w.SfpidTakesOff(id2)

	if _, err := w.ProtectSourceSymbol([]byte{3}); err != ErrWindowFull {
		t.Fatalf("expected ErrWindowFull, got %v", err)
	}
}

// Monotonic ids: the sender always assigns strictly increasing ids.
func TestSenderWindowMonotonicIDs(t *testing.T) {
	w := NewSenderWindow(100, newRLCScheme())
	prev := SourceSymbolID(0)
	for i := 0; i < 10; i++ {
		id, err := w.ProtectSourceSymbol([]byte{byte(i)})
		if err != nil {
			t.Fatalf("protect: %v", err)
		}
		if id <= prev {
			t.Fatalf("id %d did not increase past %d", id, prev)
		}
		prev = id
		w.SfpidTakesOff(id)
	}
}

// Receiver rejects ids below its already-evicted minimum.
func TestReceiverWindowRejectsEvicted(t *testing.T) {
	r := NewReceiverWindow(2, 16, newRLCScheme())
	r.AddSourceSymbol(SourceSymbol{ID: 1, Payload: make([]byte, 16)})
	r.AddSourceSymbol(SourceSymbol{ID: 2, Payload: make([]byte, 16)})
	r.AddSourceSymbol(SourceSymbol{ID: 3, Payload: make([]byte, 16)}) // evicts id 1

	if r.HasSource(1) {
		t.Fatal("expected id 1 to have been evicted")
	}
	r.AddSourceSymbol(SourceSymbol{ID: 1, Payload: make([]byte, 16)})
	if r.HasSource(1) {
		t.Fatal("receiver should reject a source symbol below its evicted minimum")
	}
}

// Scenario 1: no loss, k=8, r=2, all 10 symbols arrive; recover() yields
// nothing and the repair group is pruned once its range is fully covered.
func TestScenarioNoLoss(t *testing.T) {
	const k, r, symbolLen = 8, 2, 32
	scheme := newRLCScheme()
	sources := makeSources(k, symbolLen, InitialSymbolID)
	repairs, err := scheme.Encode(sources, r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	recv := NewReceiverWindow(16, symbolLen, scheme)
	for _, src := range sources {
		recv.AddSourceSymbol(src)
	}
	for _, rep := range repairs {
		if _, err := recv.AddRepairSymbol(rep); err != nil {
			t.Fatalf("add repair: %v", err)
		}
	}

	if got := recv.DrainRecovered(); len(got) != 0 {
		t.Fatalf("expected no recovery with no loss, got %d", len(got))
	}
	for _, src := range sources {
		if !recv.HasSource(src.ID) {
			t.Fatalf("expected source id %d present", src.ID)
		}
	}

	recv.RemoveUnused(sources[len(sources)-1].ID)
	if len(recv.groups) != 0 {
		t.Fatalf("expected repair group pruned once fully acked, got %d groups", len(recv.groups))
	}
}

// Scenario 2: single-symbol loss is recovered once the repair group
// completes.
func TestScenarioSingleLossRecovered(t *testing.T) {
	const k, r, symbolLen = 8, 2, 32
	scheme := newRLCScheme()
	sources := makeSources(k, symbolLen, InitialSymbolID)
	repairs, err := scheme.Encode(sources, r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	lostIdx := 4 // id 5 (1-based InitialSymbolID start)
	recv := NewReceiverWindow(16, symbolLen, scheme)
	for i, src := range sources {
		if i == lostIdx {
			continue
		}
		recv.AddSourceSymbol(src)
	}

	var recovered []SourceSymbol
	for _, rep := range repairs {
		got, err := recv.AddRepairSymbol(rep)
		if err != nil {
			t.Fatalf("add repair: %v", err)
		}
		recovered = append(recovered, got...)
	}

	if len(recovered) != 1 {
		t.Fatalf("expected exactly 1 recovered symbol, got %d", len(recovered))
	}
	if recovered[0].ID != sources[lostIdx].ID {
		t.Fatalf("expected recovered id %d, got %d", sources[lostIdx].ID, recovered[0].ID)
	}
	if !bytes.Equal(recovered[0].Payload, sources[lostIdx].Payload) {
		t.Fatal("recovered payload does not match original")
	}
}

func TestGenerateAndQueueRepairFillsQueue(t *testing.T) {
	scheme := newRLCScheme()
	w := NewSenderWindow(32, scheme)
	for i := 0; i < 8; i++ {
		id, err := w.ProtectSourceSymbol(make([]byte, 32))
		if err != nil {
			t.Fatalf("protect: %v", err)
		}
		w.SfpidTakesOff(id)
	}

	controller := newBulkController(InitialSymbolID)
	stats := PathStats{
		Granularity: 1000,
		LossRateL:   100,
		GeModelR:    4,
		SendMTU:     1200,
		CWin:        1 << 20,
	}
	if err := w.GenerateAndQueueRepair(controller, stats, time.Now(), true); err != nil {
		t.Fatalf("generate: %v", err)
	}

	rs, ok := w.GetRepairPayloadFromQueue(2000)
	if !ok {
		t.Fatal("expected a queued repair symbol")
	}
	if rs.SchemeID != SchemeRLC {
		t.Fatalf("expected RLC scheme, got %d", rs.SchemeID)
	}
}

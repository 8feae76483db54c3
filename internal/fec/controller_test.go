package fec

import (
	"testing"
	"time"
)

// Scenario 5: bulk controller throttling. Loss-rate estimate L/G =
// 100/1000, 10 symbols resident, no in-flight repairs, no pending data:
// expect r = max(1, ceil(10*100/900)) = 2. With n_fec_in_flight already
// at r_max, expect the controller to abstain.
func TestBulkControllerThrottling(t *testing.T) {
	c := newBulkController(InitialSymbolID)
	win := WindowSnapshot{Smallest: InitialSymbolID, Highest: InitialSymbolID + 9, Empty: false}
	stats := PathStats{
		Granularity: 1000,
		LossRateL:   100,
		GeModelR:    1,
		SendMTU:     1200,
		CWin:        1 << 20,
	}

	decision, ok := c.Decide(stats, win, time.Now(), 0)
	if !ok {
		t.Fatal("expected the bulk controller to protect with no in-flight repairs")
	}
	if decision.R != 2 {
		t.Fatalf("expected r=2, got r=%d", decision.R)
	}

	// Same window contents, independent controller instance, but with
	// n_fec_in_flight already at r_max: expect abstain.
	cap := rMax(10, stats)
	c2 := newBulkController(InitialSymbolID)
	decision2, ok2 := c2.Decide(stats, win, time.Now(), int(cap))
	if ok2 {
		t.Fatalf("expected the controller to abstain once n_fec_in_flight reaches r_max, got %+v", decision2)
	}
}

func TestBulkControllerAbstainsWithPendingData(t *testing.T) {
	c := newBulkController(InitialSymbolID)
	win := WindowSnapshot{Smallest: InitialSymbolID, Highest: InitialSymbolID + 9}
	stats := PathStats{HasPendingData: true}

	if _, ok := c.Decide(stats, win, time.Now(), 0); ok {
		t.Fatal("expected the bulk controller to abstain while application data is pending")
	}
}

func TestBufferLimitedControllerGatesOnAccumulation(t *testing.T) {
	c := newBufferLimitedController(InitialSymbolID)
	stats := PathStats{Granularity: 1000, GeModelP: 200, SendMTU: 1200, CWin: 1 << 20}

	// Only 3 symbols resident, threshold needs ceil(1000/200)=5: abstain.
	win := WindowSnapshot{Smallest: InitialSymbolID, Highest: InitialSymbolID + 2}
	if _, ok := c.Decide(stats, win, time.Now(), 0); ok {
		t.Fatal("expected abstain below the accumulation threshold")
	}

	// 5 symbols resident: now at threshold, should protect.
	win2 := WindowSnapshot{Smallest: InitialSymbolID, Highest: InitialSymbolID + 4}
	if _, ok := c.Decide(stats, win2, time.Now(), 0); !ok {
		t.Fatal("expected the controller to protect once at the accumulation threshold")
	}
}

func TestMessageBasedControllerRejectsDeadlineOutOfRange(t *testing.T) {
	c := newMessageBasedController(InitialSymbolID)
	now := time.Now()
	farFuture := now.Add((maxDeadlineHorizon + 1) * time.Microsecond)
	if err := c.SetDeadline(InitialSymbolID, farFuture, now); err != ErrDeadlineOutOfRange {
		t.Fatalf("expected ErrDeadlineOutOfRange, got %v", err)
	}

	nearFuture := now.Add(time.Second)
	if err := c.SetDeadline(InitialSymbolID+1, nearFuture, now); err != nil {
		t.Fatalf("expected a near-future deadline to be accepted, got %v", err)
	}
}

func TestMessageBasedControllerProtectsNearDeadline(t *testing.T) {
	c := newMessageBasedController(InitialSymbolID)
	now := time.Now()
	win := WindowSnapshot{Smallest: InitialSymbolID, Highest: InitialSymbolID + 3}

	deadline := now.Add(1 * time.Millisecond)
	if err := c.SetDeadline(InitialSymbolID, deadline, now); err != nil {
		t.Fatalf("set deadline: %v", err)
	}

	stats := PathStats{SmoothedRTT: 100 * time.Millisecond, HasPendingData: true}
	decision, ok := c.Decide(stats, win, now, 0)
	if !ok {
		t.Fatal("expected the controller to protect once the deadline is within a retransmission RTT")
	}
	if decision.FirstID != InitialSymbolID {
		t.Fatalf("expected first id %d, got %d", InitialSymbolID, decision.FirstID)
	}
}

package fec

import "container/heap"

// idMinHeap is a min-heap of source symbol ids, used to find and evict
// the oldest buffered source symbol on overflow (§3, §4.5).
type idMinHeap []SourceSymbolID

func (h idMinHeap) Len() int            { return len(h) }
func (h idMinHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idMinHeap) Push(x interface{}) { *h = append(*h, x.(SourceSymbolID)) }
func (h *idMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// repairGroupKey groups repair symbols that protect the same contiguous
// range with the same scheme, so the receiver can gather every arrived
// repair for one Decode call.
type repairGroupKey struct {
	scheme SchemeID
	first  SourceSymbolID
	k      uint16
}

type repairGroup struct {
	lastProtected SourceSymbolID
	members       map[uint16]RepairSymbol // keyed by RepairIndex
}

// repairMinHeap is a min-heap of group last-protected ids, used to evict
// the oldest repair group on overflow.
type repairMinHeap []SourceSymbolID

func (h repairMinHeap) Len() int            { return len(h) }
func (h repairMinHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h repairMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *repairMinHeap) Push(x interface{}) { *h = append(*h, x.(SourceSymbolID)) }
func (h *repairMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// ReceiverWindow implements C5: the two bounded buffers of received
// source and repair symbols, plus recovery dispatch to the registered
// coding schemes.
type ReceiverWindow struct {
	capacity int
	schemes  map[SchemeID]Scheme
	symLen   int

	sources     map[SourceSymbolID]SourceSymbol
	sourceHeap  idMinHeap
	evictedBelow SourceSymbolID // ids < this have been evicted or never arrive

	groups     map[repairGroupKey]*repairGroup
	groupHeap  repairMinHeap
	groupByKey map[SourceSymbolID]repairGroupKey // last-protected id -> key, for eviction lookups

	pendingRecovered []SourceSymbol
}

// NewReceiverWindow creates a receiver window buffering up to capacity
// source symbols and capacity repair groups (spec recommends ≈2·W for
// each), dispatching recovery to the given schemes by SchemeID.
func NewReceiverWindow(capacity int, symbolLen int, schemes ...Scheme) *ReceiverWindow {
	r := &ReceiverWindow{
		capacity:   capacity,
		schemes:    make(map[SchemeID]Scheme, len(schemes)),
		symLen:     symbolLen,
		sources:    make(map[SourceSymbolID]SourceSymbol),
		groups:     make(map[repairGroupKey]*repairGroup),
		groupByKey: make(map[SourceSymbolID]repairGroupKey),
	}
	for _, s := range schemes {
		r.schemes[s.ID()] = s
	}
	heap.Init(&r.sourceHeap)
	heap.Init(&r.groupHeap)
	return r
}

// AddSourceSymbol buffers a received source symbol, idempotent on
// duplicate id, evicting the oldest on overflow.
func (r *ReceiverWindow) AddSourceSymbol(ss SourceSymbol) {
	if ss.ID < r.evictedBelow {
		return
	}
	if _, exists := r.sources[ss.ID]; exists {
		return
	}
	r.sources[ss.ID] = ss
	heap.Push(&r.sourceHeap, ss.ID)
	r.evictSourcesIfFull()
}

func (r *ReceiverWindow) evictSourcesIfFull() {
	for len(r.sources) > r.capacity {
		minID := heap.Pop(&r.sourceHeap).(SourceSymbolID)
		delete(r.sources, minID)
		if minID >= r.evictedBelow {
			r.evictedBelow = minID + 1
		}
	}
}

// HasSource reports whether id has been received or recovered already.
func (r *ReceiverWindow) HasSource(id SourceSymbolID) bool {
	_, ok := r.sources[id]
	return ok
}

// AddRepairSymbol buffers a received repair symbol, dispatches it and its
// group siblings to the owning scheme for recovery, and returns any
// source symbols recovered as a result (also buffered as if received).
func (r *ReceiverWindow) AddRepairSymbol(rs RepairSymbol) ([]SourceSymbol, error) {
	key := repairGroupKey{scheme: rs.SchemeID, first: rs.FirstID, k: rs.NProtected}
	lastProtected := rs.FirstID + SourceSymbolID(rs.NProtected) - 1

	g, ok := r.groups[key]
	if !ok {
		g = &repairGroup{lastProtected: lastProtected, members: make(map[uint16]RepairSymbol)}
		r.groups[key] = g
		heap.Push(&r.groupHeap, lastProtected)
		r.groupByKey[lastProtected] = key
		r.evictGroupsIfFull()
	}
	if _, dup := g.members[rs.RepairIndex]; dup {
		return nil, nil
	}
	g.members[rs.RepairIndex] = rs

	scheme, ok := r.schemes[rs.SchemeID]
	if !ok {
		return nil, ErrSchemeMismatch
	}

	present := make([]SourceSymbol, 0, rs.NProtected)
	missing := make([]SourceSymbolID, 0, rs.NProtected)
	for i := SourceSymbolID(0); i < SourceSymbolID(rs.NProtected); i++ {
		id := rs.FirstID + i
		if ss, ok := r.sources[id]; ok {
			present = append(present, ss)
		} else if id >= r.evictedBelow {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	repairs := make([]RepairSymbol, 0, len(g.members))
	for _, m := range g.members {
		repairs = append(repairs, m)
	}

	recovered, err := scheme.Decode(present, repairs, missing, r.symLen)
	if err != nil || len(recovered) == 0 {
		return nil, err
	}
	for _, ss := range recovered {
		r.AddSourceSymbol(ss)
	}
	r.pendingRecovered = append(r.pendingRecovered, recovered...)
	return recovered, nil
}

func (r *ReceiverWindow) evictGroupsIfFull() {
	for len(r.groups) > r.capacity {
		minLast := heap.Pop(&r.groupHeap).(SourceSymbolID)
		key, ok := r.groupByKey[minLast]
		if !ok {
			continue
		}
		delete(r.groupByKey, minLast)
		delete(r.groups, key)
	}
}

// DrainRecovered returns and clears the symbols recovered since the last
// call, matching the scheme interface's recover()-drains-after-each-call
// contract (§4.2).
func (r *ReceiverWindow) DrainRecovered() []SourceSymbol {
	out := r.pendingRecovered
	r.pendingRecovered = nil
	return out
}

// RemoveUnused drops any repair group whose last-protected id is at or
// below highestContiguousID, called after the QUIC ACK-emitter advances
// its cumulative ack (§4.5).
func (r *ReceiverWindow) RemoveUnused(highestContiguousID SourceSymbolID) {
	for key, g := range r.groups {
		if g.lastProtected <= highestContiguousID {
			delete(r.groups, key)
			delete(r.groupByKey, g.lastProtected)
		}
	}
}

package sack

import (
	"testing"
	"time"
)

// SACK union invariant (spec §8): after any sequence of RecordReceived,
// IsAlreadyReceived(p) is true iff p was ever recorded.
func TestSACKUnionInvariant(t *testing.T) {
	var l List
	now := time.Now()
	recorded := map[uint64]bool{}
	for _, pn := range []uint64{5, 1, 3, 2, 9, 100, 101, 102, 50} {
		l.RecordReceived(pn, now)
		recorded[pn] = true
	}

	for pn := uint64(0); pn < 110; pn++ {
		want := recorded[pn]
		got := l.IsAlreadyReceived(pn)
		if got != want {
			t.Fatalf("pn %d: IsAlreadyReceived = %v, want %v", pn, got, want)
		}
	}
}

func TestSACKMergesAdjacentRanges(t *testing.T) {
	var l List
	now := time.Now()
	l.RecordReceived(1, now)
	l.RecordReceived(3, now)
	l.RecordReceived(2, now) // bridges [1,1] and [3,3] into [1,3]

	ranges := l.Ranges()
	if len(ranges) != 1 || ranges[0] != [2]uint64{1, 3} {
		t.Fatalf("expected a single merged range [1,3], got %v", ranges)
	}
}

func TestSACKRecordingTwiceIsIdempotent(t *testing.T) {
	var l List
	now := time.Now()
	l.RecordReceived(10, now)
	before := l.Ranges()
	l.RecordReceived(10, now)
	after := l.Ranges()

	if len(before) != len(after) {
		t.Fatalf("recording the same pn twice changed the range count: %v -> %v", before, after)
	}
}

// Float16 monotonic and clamped (spec §8): decode(encode(d)) is
// non-decreasing in d, and huge durations clamp rather than overflow.
func TestFloat16DelayMonotonic(t *testing.T) {
	durations := []time.Duration{
		0,
		1 * time.Microsecond,
		100 * time.Microsecond,
		2047 * time.Microsecond,
		5000 * time.Microsecond,
		time.Second,
		time.Hour,
	}
	prevDecoded := time.Duration(-1)
	for _, d := range durations {
		enc := EncodeDelay(d)
		dec := DecodeDelay(enc)
		if dec < prevDecoded {
			t.Fatalf("decoded delay decreased: %v -> %v for input %v", prevDecoded, dec, d)
		}
		prevDecoded = dec
	}
}

func TestFloat16DelaySmallValuesExact(t *testing.T) {
	for _, us := range []uint64{0, 1, 500, 2047} {
		d := time.Duration(us) * time.Microsecond
		enc := EncodeDelay(d)
		if enc != uint16(us) {
			t.Fatalf("expected exact mantissa-only encoding for %d us, got %d", us, enc)
		}
		if DecodeDelay(enc) != d {
			t.Fatalf("expected exact round trip for %d us, got %v", us, DecodeDelay(enc))
		}
	}
}

func TestFloat16DelayClampsHugeValues(t *testing.T) {
	enc := EncodeDelay(365 * 24 * time.Hour) // absurdly large, must clamp, not overflow
	if enc != 0xffff {
		t.Fatalf("expected clamp to 0xffff for an out-of-range delay, got %#x", enc)
	}
}

package fec

import (
	"bytes"
	"math/rand"
	"testing"
)

func makeSources(k, symbolLen int, first SourceSymbolID) []SourceSymbol {
	sources := make([]SourceSymbol, k)
	rnd := rand.New(rand.NewSource(int64(first)*1000 + int64(k)))
	for i := 0; i < k; i++ {
		payload := make([]byte, symbolLen)
		rnd.Read(payload)
		sources[i] = SourceSymbol{ID: first + SourceSymbolID(i), Payload: payload}
	}
	return sources
}

func allSchemes() []Scheme {
	return []Scheme{newRSScheme(), newRLCScheme(), newRSKlauspostScheme()}
}

// Round-trip invariant (spec §8): decode(any k of encode(source)) == source.
func TestSchemeRoundTripAnyK(t *testing.T) {
	const k, r, symbolLen = 8, 2, 32
	for _, scheme := range allSchemes() {
		sources := makeSources(k, symbolLen, InitialSymbolID)
		repairs, err := scheme.Encode(sources, r)
		if err != nil {
			t.Fatalf("scheme %d: encode: %v", scheme.ID(), err)
		}
		if len(repairs) != r {
			t.Fatalf("scheme %d: expected %d repair symbols, got %d", scheme.ID(), r, len(repairs))
		}

		// Drop exactly r sources; decode must reconstruct every missing one
		// from the remaining k and the r repairs.
		dropped := map[int]bool{2: true, 6: true}
		var present []SourceSymbol
		var wantIDs []SourceSymbolID
		for i, src := range sources {
			if dropped[i] {
				wantIDs = append(wantIDs, src.ID)
				continue
			}
			present = append(present, src)
		}

		recovered, err := scheme.Decode(present, repairs, wantIDs, symbolLen)
		if err != nil {
			t.Fatalf("scheme %d: decode: %v", scheme.ID(), err)
		}
		if len(recovered) != len(wantIDs) {
			t.Fatalf("scheme %d: expected %d recovered, got %d", scheme.ID(), len(wantIDs), len(recovered))
		}
		byID := make(map[SourceSymbolID][]byte, len(recovered))
		for _, rs := range recovered {
			byID[rs.ID] = rs.Payload
		}
		for i, src := range sources {
			if !dropped[i] {
				continue
			}
			got, ok := byID[src.ID]
			if !ok {
				t.Fatalf("scheme %d: id %d not recovered", scheme.ID(), src.ID)
			}
			if !bytes.Equal(got, src.Payload) {
				t.Fatalf("scheme %d: recovered payload for id %d does not match original", scheme.ID(), src.ID)
			}
		}
	}
}

// Scenario 4: three losses against r=2 repair symbols must recover nothing.
func TestSchemeThreeLossesUnrecoverable(t *testing.T) {
	const k, r, symbolLen = 8, 2, 32
	for _, scheme := range allSchemes() {
		sources := makeSources(k, symbolLen, InitialSymbolID)
		repairs, err := scheme.Encode(sources, r)
		if err != nil {
			t.Fatalf("scheme %d: encode: %v", scheme.ID(), err)
		}

		dropped := map[int]bool{1: true, 3: true, 5: true}
		var present []SourceSymbol
		var wantIDs []SourceSymbolID
		for i, src := range sources {
			if dropped[i] {
				wantIDs = append(wantIDs, src.ID)
				continue
			}
			present = append(present, src)
		}

		recovered, err := scheme.Decode(present, repairs, wantIDs, symbolLen)
		if err != nil {
			t.Fatalf("scheme %d: decode: %v", scheme.ID(), err)
		}
		if len(recovered) != 0 {
			t.Fatalf("scheme %d: expected no recovery with 3 losses against r=2, got %d", scheme.ID(), len(recovered))
		}
	}
}

// Scenario 6: a degenerate k=1,r=1 repair symbol is a verbatim copy of the
// source symbol it protects (fb-fec / retransmission substitute).
func TestRLCFBFECIsVerbatimCopy(t *testing.T) {
	scheme := newRLCScheme()
	src := makeSources(1, 16, 42)
	repairs, err := scheme.Encode(src, 1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(repairs) != 1 {
		t.Fatalf("expected 1 repair symbol, got %d", len(repairs))
	}
	if !repairs[0].IsFBFEC {
		t.Fatal("expected IsFBFEC for k=1,r=1")
	}
	if !bytes.Equal(repairs[0].Payload, src[0].Payload) {
		t.Fatal("fb-fec repair payload should equal the source payload verbatim")
	}

	recovered, err := scheme.Decode(nil, repairs, []SourceSymbolID{src[0].ID}, 16)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recovered) != 1 || !bytes.Equal(recovered[0].Payload, src[0].Payload) {
		t.Fatal("expected fb-fec decode to reconstruct the source payload directly")
	}
}

func TestGF256Arithmetic(t *testing.T) {
	for a := 1; a < 256; a++ {
		inv := gf256Inv(byte(a))
		if gf256Mul(byte(a), inv) != 1 {
			t.Fatalf("gf256: %d * inv(%d) != 1", a, a)
		}
	}
}

func TestGF65536Arithmetic(t *testing.T) {
	samples := []uint16{1, 2, 3, 255, 256, 4096, 65534}
	for _, a := range samples {
		inv := gf65536Inv(a)
		if gf65536Mul(a, inv) != 1 {
			t.Fatalf("gf65536: %d * inv(%d) != 1", a, a)
		}
	}
}

func TestSelectCosetPositionsDisjoint(t *testing.T) {
	source, repair := selectCosetPositions(8, 2)
	if len(source) != 8 || len(repair) != 2 {
		t.Fatalf("expected 8 source and 2 repair positions, got %d/%d", len(source), len(repair))
	}
	seen := make(map[int]bool, 10)
	for _, p := range append(append([]int{}, source...), repair...) {
		if seen[p] {
			t.Fatalf("position %d selected twice", p)
		}
		seen[p] = true
	}
}

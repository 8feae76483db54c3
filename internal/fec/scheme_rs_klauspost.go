package fec

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// rsKlauspostScheme is an additional block coding scheme backed by
// github.com/klauspost/reedsolomon, grounded on fec/reedsolomon.go's
// rsProtector in the WireGuard example (SIMD-accelerated GF(2^8)
// Reed-Solomon, promoted here from an indirect dependency of that example
// to a direct dependency of this module). It implements the same Scheme
// interface as rsScheme and rlcScheme so callers can select it by
// SchemeID where a production-grade block code is preferred over the
// GF(65536) cyclotomic code the rest of this package is built around.
type rsKlauspostScheme struct{}

func newRSKlauspostScheme() *rsKlauspostScheme { return &rsKlauspostScheme{} }

func (s *rsKlauspostScheme) ID() SchemeID { return SchemeRSKlauspost }

func (s *rsKlauspostScheme) Encode(sources []SourceSymbol, nRepair int) ([]RepairSymbol, error) {
	k := len(sources)
	if k == 0 || nRepair <= 0 {
		return nil, nil
	}
	if k+nRepair > 256 {
		return nil, fmt.Errorf("fec: klauspost scheme supports at most 256 total shards: %w", ErrFrameTooLarge)
	}
	enc, err := reedsolomon.New(k, nRepair)
	if err != nil {
		return nil, fmt.Errorf("fec: klauspost reedsolomon.New: %w", err)
	}

	symbolLen := len(sources[0].Payload)
	for _, src := range sources {
		if len(src.Payload) != symbolLen {
			return nil, fmt.Errorf("fec: klauspost scheme requires uniform symbol length: %w", ErrProtocolViolation)
		}
	}

	shards := make([][]byte, k+nRepair)
	for i, src := range sources {
		shards[i] = append([]byte(nil), src.Payload...)
	}
	for i := k; i < k+nRepair; i++ {
		shards[i] = make([]byte, symbolLen)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("fec: klauspost encode: %w", err)
	}

	first := sources[0].ID
	repairs := make([]RepairSymbol, nRepair)
	for j := 0; j < nRepair; j++ {
		repairs[j] = RepairSymbol{
			SchemeID:    SchemeRSKlauspost,
			FirstID:     first,
			NProtected:  uint16(k),
			NRepair:     uint16(nRepair),
			RepairIndex: uint16(j),
			Payload:     shards[k+j],
		}
	}
	return repairs, nil
}

func (s *rsKlauspostScheme) Decode(present []SourceSymbol, repairs []RepairSymbol, wantIDs []SourceSymbolID, symbolLen int) ([]SourceSymbol, error) {
	if len(wantIDs) == 0 || len(repairs) == 0 {
		return nil, nil
	}
	k := int(repairs[0].NProtected)
	r := int(repairs[0].NRepair)
	first := repairs[0].FirstID
	for _, rep := range repairs {
		if rep.FirstID != first || int(rep.NProtected) != k || int(rep.NRepair) != r {
			return nil, fmt.Errorf("fec: mismatched repair group: %w", ErrProtocolViolation)
		}
	}

	enc, err := reedsolomon.New(k, r)
	if err != nil {
		return nil, fmt.Errorf("fec: klauspost reedsolomon.New: %w", err)
	}

	shards := make([][]byte, k+r)
	havePresent := 0
	for _, src := range present {
		idx := int(src.ID - first)
		if idx < 0 || idx >= k {
			continue
		}
		shards[idx] = src.Payload
		havePresent++
	}
	for _, rep := range repairs {
		shards[k+int(rep.RepairIndex)] = rep.Payload
	}
	if havePresent+len(repairs) < k {
		return nil, nil
	}

	if err := enc.ReconstructData(shards); err != nil {
		// Not enough shards to reconstruct: ordinary "can't recover yet".
		return nil, nil
	}

	recovered := make([]SourceSymbol, 0, len(wantIDs))
	for _, id := range wantIDs {
		idx := int(id - first)
		if idx < 0 || idx >= k {
			continue
		}
		if shards[idx] == nil {
			continue
		}
		recovered = append(recovered, SourceSymbol{ID: id, Payload: shards[idx]})
	}
	return recovered, nil
}

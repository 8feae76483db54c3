package fec

import "fmt"

// rlcScheme is the GF(256) random linear coding scheme, grounded on
// simple_fec/window_framework/fec_schemes/rlc_gf256 (encode) and
// abc/window_framework/fec_schemes/online_rlc_gf256 (decode). Each repair
// symbol is a random linear combination of the source symbols it
// protects, with coefficients drawn from a PRNG seeded deterministically
// from (FirstID, RepairIndex) so sender and receiver agree on them without
// exchanging the coefficient vector on the wire. The original seeds a
// TinyMT-32 generator per repair symbol; no Go TinyMT-32 implementation
// exists anywhere in the retrieved reference pack, so a splitmix64-seeded
// stream stands in (see DESIGN.md), preserving the "zero coefficient
// promoted to 1" rule from get_coefs so every source symbol is always
// represented in its repair symbols.
type rlcScheme struct{}

func newRLCScheme() *rlcScheme { return &rlcScheme{} }

func (s *rlcScheme) ID() SchemeID { return SchemeRLC }

// rlcCoefficients regenerates the k coefficients for repair symbol index
// repairIdx of a (firstID, k, r) repair group, matching get_coefs in
// rlc_fec_scheme_get_one_coded_symbol_gf256.c.
func rlcCoefficients(firstID SourceSymbolID, repairIdx uint16, k int) []byte {
	// A single-symbol repair (k=1) uses coefficient 1, so its payload is a
	// verbatim copy of the source symbol (the FB-FEC case).
	if k == 1 {
		return []byte{1}
	}
	seed := splitmix64Seed(uint64(firstID), uint64(repairIdx))
	gen := newSplitMix64(seed)
	coeffs := make([]byte, k)
	for i := range coeffs {
		c := byte(gen.next())
		if c == 0 {
			c = 1
		}
		coeffs[i] = c
	}
	return coeffs
}

func (s *rlcScheme) Encode(sources []SourceSymbol, nRepair int) ([]RepairSymbol, error) {
	k := len(sources)
	if k == 0 || nRepair <= 0 {
		return nil, nil
	}
	symbolLen := len(sources[0].Payload)
	for _, src := range sources {
		if len(src.Payload) != symbolLen {
			return nil, fmt.Errorf("fec: rlc scheme requires uniform symbol length: %w", ErrProtocolViolation)
		}
	}
	first := sources[0].ID

	repairs := make([]RepairSymbol, nRepair)
	for j := 0; j < nRepair; j++ {
		coeffs := rlcCoefficients(first, uint16(j), k)
		out := make([]byte, symbolLen)
		for i, src := range sources {
			gf256MAdd(out, src.Payload, coeffs[i])
		}
		repairs[j] = RepairSymbol{
			SchemeID:    SchemeRLC,
			FirstID:     first,
			NProtected:  uint16(k),
			NRepair:     uint16(nRepair),
			RepairIndex: uint16(j),
			IsFBFEC:     k == 1 && nRepair == 1,
			Payload:     out,
			Coeffs:      coeffs,
		}
	}
	return repairs, nil
}

// rlcEquation is one linear equation over the unknown source symbols
// still missing: coeffs[i] relates to the i-th still-unknown symbol,
// rhs is the accumulated right-hand-side payload.
type rlcEquation struct {
	coeffs []byte
	rhs    []byte
}

func (s *rlcScheme) Decode(present []SourceSymbol, repairs []RepairSymbol, wantIDs []SourceSymbolID, symbolLen int) ([]SourceSymbol, error) {
	if len(wantIDs) == 0 || len(repairs) == 0 {
		return nil, nil
	}
	k := int(repairs[0].NProtected)
	first := repairs[0].FirstID
	for _, rep := range repairs {
		if rep.FirstID != first || int(rep.NProtected) != k {
			return nil, fmt.Errorf("fec: mismatched repair group: %w", ErrProtocolViolation)
		}
	}

	presentByIdx := make(map[int]SourceSymbol, len(present))
	for _, src := range present {
		idx := int(src.ID - first)
		if idx >= 0 && idx < k {
			presentByIdx[idx] = src
		}
	}

	missingIdx := make([]int, 0, k)
	for i := 0; i < k; i++ {
		if _, ok := presentByIdx[i]; !ok {
			missingIdx = append(missingIdx, i)
		}
	}
	if len(missingIdx) == 0 {
		return nil, nil
	}
	missingPos := make(map[int]int, len(missingIdx))
	for pos, idx := range missingIdx {
		missingPos[idx] = pos
	}

	equations := make([]rlcEquation, 0, len(repairs))
	for _, rep := range repairs {
		coeffs := rep.Coeffs
		if coeffs == nil {
			coeffs = rlcCoefficients(first, rep.RepairIndex, k)
		}
		rhs := make([]byte, symbolLen)
		copy(rhs, rep.Payload)
		reduced := make([]byte, len(missingIdx))
		for idx := 0; idx < k; idx++ {
			c := coeffs[idx]
			if c == 0 {
				continue
			}
			if src, ok := presentByIdx[idx]; ok {
				gf256MAdd(rhs, src.Payload, c)
				continue
			}
			reduced[missingPos[idx]] = c
		}
		equations = append(equations, rlcEquation{coeffs: reduced, rhs: rhs})
	}

	solved, ok := gaussianEliminate(equations, len(missingIdx), symbolLen)
	if !ok {
		return nil, nil
	}

	recovered := make([]SourceSymbol, 0, len(wantIDs))
	for _, id := range wantIDs {
		idx := int(id - first)
		pos, isMissing := missingPos[idx]
		if !isMissing {
			continue
		}
		recovered = append(recovered, SourceSymbol{ID: id, Payload: solved[pos]})
	}
	return recovered, nil
}

// gaussianEliminate solves the linear system described by eqns for the
// nUnknowns symbol-valued unknowns, each symbolLen bytes wide, via
// Gauss-Jordan elimination over GF(256): each pivot column is cleared
// from every other row, so no back-substitution pass is needed.
func gaussianEliminate(eqns []rlcEquation, nUnknowns, symbolLen int) ([][]byte, bool) {
	if len(eqns) < nUnknowns {
		return nil, false
	}
	rows := make([]rlcEquation, len(eqns))
	for i, e := range eqns {
		coeffs := make([]byte, nUnknowns)
		copy(coeffs, e.coeffs)
		rhs := make([]byte, symbolLen)
		copy(rhs, e.rhs)
		rows[i] = rlcEquation{coeffs: coeffs, rhs: rhs}
	}

	pivotRow := make([]int, nUnknowns)
	for i := range pivotRow {
		pivotRow[i] = -1
	}

	row := 0
	for col := 0; col < nUnknowns && row < len(rows); col++ {
		sel := -1
		for r := row; r < len(rows); r++ {
			if rows[r].coeffs[col] != 0 {
				sel = r
				break
			}
		}
		if sel == -1 {
			continue
		}
		rows[row], rows[sel] = rows[sel], rows[row]

		inv := gf256Inv(rows[row].coeffs[col])
		gf256ScaleRow(rows[row].coeffs, inv)
		gf256ScaleInto(rows[row].rhs, rows[row].rhs, inv)

		for r := 0; r < len(rows); r++ {
			if r == row {
				continue
			}
			factor := rows[r].coeffs[col]
			if factor == 0 {
				continue
			}
			gf256MAddRow(rows[r].coeffs, rows[row].coeffs, factor)
			gf256MAdd(rows[r].rhs, rows[row].rhs, factor)
		}
		pivotRow[col] = row
		row++
	}

	solved := make([][]byte, nUnknowns)
	for col, r := range pivotRow {
		if r == -1 {
			return nil, false
		}
		solved[col] = rows[r].rhs
	}
	return solved, true
}

func gf256ScaleRow(row []byte, coef byte) {
	for i, v := range row {
		row[i] = gf256Mul(v, coef)
	}
}

func gf256MAddRow(dst, src []byte, coef byte) {
	gf256MAdd(dst, src, coef)
}

package fec

// GF(2^16) arithmetic and cyclotomic coset position selection for the
// Reed-Solomon scheme, ported from rs_gf65536/headers/gf65536.h and
// cyclotomic_coset.h. The normal-basis tables those headers carry exist
// only to feed an optimized butterfly cyclotomic FFT kernel; this package
// does not implement that kernel (see scheme_rs.go), so only the
// pow/log tables and the coset partition survive the port.

const (
	gf65536FieldSize     = 65536
	gf65536N             = gf65536FieldSize - 1 // 65535
	gf65536PrimitivePoly = 65581                // x^16+x^5+x^3+x^2+1
)

var gf65536PowTable [2 * gf65536N]uint16
var gf65536LogTable [gf65536FieldSize]uint16

func init() {
	curPoly := 1
	for i := 0; i < gf65536N; i++ {
		gf65536PowTable[i] = uint16(curPoly)
		gf65536LogTable[uint16(curPoly)] = uint16(i)
		curPoly <<= 1
		if curPoly&gf65536FieldSize != 0 {
			curPoly ^= gf65536PrimitivePoly
		}
	}
	for i := gf65536N; i < 2*gf65536N; i++ {
		gf65536PowTable[i] = gf65536PowTable[i-gf65536N]
	}
}

func gf65536Add(a, b uint16) uint16 {
	return a ^ b
}

func gf65536Mul(a, b uint16) uint16 {
	if a == 0 || b == 0 {
		return 0
	}
	return gf65536PowTable[int(gf65536LogTable[a])+int(gf65536LogTable[b])]
}

func gf65536Div(a, b uint16) uint16 {
	if a == 0 {
		return 0
	}
	if b == 0 {
		panic("fec: division by zero in GF(65536)")
	}
	return gf65536PowTable[int(gf65536LogTable[a])-int(gf65536LogTable[b])+gf65536N]
}

func gf65536Inv(a uint16) uint16 {
	if a == 0 {
		panic("fec: inverse of zero in GF(65536)")
	}
	return gf65536PowTable[gf65536N-int(gf65536LogTable[a])]
}

// --- cyclotomic cosets ---
//
// Every nonzero residue mod N=65535 belongs to a cyclotomic coset built by
// repeated doubling mod N; picoquic uses the coset partition to choose,
// for a given (k, r), a set of symbol positions that is closed enough
// under the field's Frobenius structure for its FFT-based codec to work
// across the whole set in one pass. This package partitions the nonzero
// residues the same way and picks positions from whole cosets (see
// selectCosetPositions); its encode/decode does not need the FFT closure
// property (see scheme_rs.go).

const (
	cosetSizesCount = 5
	maxCosetSize    = 16
)

var cosetSizes = [cosetSizesCount]int{1, 2, 4, 8, 16}

// cosetThresholds mirrors g_thresholds from cyclotomic_coset.h: cumulative
// symbol counts below which a coset of the corresponding size still fits.
// selectCosetPositions does not consult it.
var cosetThresholds = [cosetSizesCount]int{0, 1, 3, 15, 255}

func nextCosetElement(s int) int {
	return (s * 2) % gf65536N
}

// cosetTable partitions every residue in [1, N) into its cyclotomic coset,
// returning, per size class, the list of coset leaders (the smallest
// element of each coset).
type cosetTable struct {
	leadersBySize [cosetSizesCount][]int
}

var globalCosetTable = buildCosetTable()

func buildCosetTable() *cosetTable {
	processed := make([]bool, gf65536N)
	t := &cosetTable{}
	for s := 1; s < gf65536N; s++ {
		if processed[s] {
			continue
		}
		leader := s
		size := 0
		cur := s
		for {
			processed[cur] = true
			size++
			cur = nextCosetElement(cur)
			if cur == s {
				break
			}
		}
		idx := -1
		for i, sz := range cosetSizes {
			if sz == size {
				idx = i
				break
			}
		}
		if idx < 0 {
			// A coset size outside {1,2,4,8,16} cannot occur for N=65535
			// given the field's factorization; guard rather than silently drop.
			panic("fec: unexpected cyclotomic coset size")
		}
		t.leadersBySize[idx] = append(t.leadersBySize[idx], leader)
	}
	return t
}

func (t *cosetTable) cosetPositions(leader int) []int {
	positions := make([]int, 0, maxCosetSize)
	cur := leader
	for {
		positions = append(positions, cur)
		cur = nextCosetElement(cur)
		if cur == leader {
			break
		}
	}
	return positions
}

// selectCosetPositions greedily selects repair positions first, then
// source/information positions from the remaining cosets. Each pass takes
// whole free cosets starting from the largest size class (16), whatever
// the number of positions still needed, and truncates the result to r
// (resp. k); the untaken positions of a truncated coset stay marked used.
// It does not pick the largest coset that fits the remaining count. It
// returns (sourcePositions, repairPositions), both of length k and r.
func selectCosetPositions(k, r int) (source, repair []int) {
	used := make(map[int]bool, k+r)

	// consume pulls whole cosets of decreasing size to cover `need`
	// additional positions, stopping once enough have been taken.
	consume := func(need int, idx *[cosetSizesCount]int) []int {
		out := make([]int, 0, need)
		for sizeIdx := cosetSizesCount - 1; sizeIdx >= 0 && len(out) < need; sizeIdx-- {
			size := cosetSizes[sizeIdx]
			leaders := globalCosetTable.leadersBySize[sizeIdx]
			for _, leader := range leaders {
				if len(out) >= need {
					break
				}
				if used[leader] {
					continue
				}
				positions := globalCosetTable.cosetPositions(leader)
				_ = size
				allFree := true
				for _, p := range positions {
					if used[p] {
						allFree = false
						break
					}
				}
				if !allFree {
					continue
				}
				for _, p := range positions {
					used[p] = true
					out = append(out, p)
				}
			}
		}
		return out
	}

	var dummy [cosetSizesCount]int
	repair = consume(r, &dummy)
	if len(repair) > r {
		repair = repair[:r]
	}
	source = consume(k, &dummy)
	if len(source) > k {
		source = source[:k]
	}
	return source, repair
}

package fec

// splitMix64 is a small, fast, deterministic PRNG used in place of the
// original's TinyMT-32: no Go TinyMT-32 implementation exists anywhere
// in the retrieved reference pack, and a seeded stream generator with
// good avalanche properties is all rlcCoefficients actually needs (see
// DESIGN.md).
type splitMix64 struct {
	state uint64
}

func newSplitMix64(seed uint64) *splitMix64 {
	return &splitMix64{state: seed}
}

func (g *splitMix64) next() uint64 {
	g.state += 0x9e3779b97f4a7c15
	z := g.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// splitmix64Seed combines a repair group's first source symbol id and its
// repair index into one seed, so the same (firstID, repairIdx) pair
// always yields the same coefficient vector on both sender and receiver.
func splitmix64Seed(firstID, repairIdx uint64) uint64 {
	h := firstID*0x100000001b3 ^ repairIdx
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return h
}

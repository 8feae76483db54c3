package fec

// SourceSymbolID identifies a source symbol by its position in the
// monotonically increasing, never-reused id space every source symbol is
// assigned when it enters a sender or receiver window.
type SourceSymbolID uint32

// SourceSymbol is one source payload (a QUIC packet's protected contents)
// together with the id it was assigned when protected.
type SourceSymbol struct {
	ID      SourceSymbolID
	Payload []byte
}

// RepairSymbol is one FEC repair payload, covering the contiguous range
// of source symbol ids [FirstID, FirstID+NProtected). SchemeID records
// which Scheme produced it, so a receiver with multiple schemes
// registered can dispatch decode to the right one.
type RepairSymbol struct {
	SchemeID    SchemeID
	FirstID     SourceSymbolID
	NProtected  uint16
	NRepair     uint16
	RepairIndex uint16 // position of this symbol within its repair group
	IsFBFEC     bool   // feedback-less, single-symbol fire-and-forget repair
	Payload     []byte
	Coeffs      []byte // scheme-specific coding coefficients, nil if implicit
}

// SchemeID selects a concrete coding scheme implementation.
type SchemeID uint8

const (
	SchemeRS SchemeID = iota
	SchemeRLC
	SchemeRSKlauspost
)

// Scheme is the pluggable coding-scheme interface every concrete coding
// algorithm implements: build repair symbols from a set of source
// symbols, and attempt to recover missing source symbols from a set of
// source symbols plus repair symbols covering the same range.
type Scheme interface {
	ID() SchemeID

	// Encode builds nRepair repair symbols protecting the given ordered
	// source symbols (which must be contiguous in id).
	Encode(sources []SourceSymbol, nRepair int) ([]RepairSymbol, error)

	// Decode attempts to recover the source symbols listed as missing in
	// wantIDs, given the source symbols that did arrive (present) and the
	// repair symbols available for the same protected range. It returns
	// only the symbols it could recover; a partial or empty result is not
	// an error (see ErrRecoveryFailure semantics in the package doc).
	Decode(present []SourceSymbol, repairs []RepairSymbol, wantIDs []SourceSymbolID, symbolLen int) ([]SourceSymbol, error)
}

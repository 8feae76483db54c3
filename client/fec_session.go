package client

import (
	"bytes"
	"fmt"

	"quic-fec/internal/fec"
	"quic-fec/internal/wire"
)

// fecSession batches outgoing stream payloads into fixed-size groups and
// protects each group with the RLC scheme once it fills, replacing the
// prior toy XOR HybridFECEncoder with the windowed FEC core's Scheme
// interface. Redundancy is expressed the same way the old encoder took
// it: a fraction in (0,1] of the group size, rounded up to at least one
// repair symbol.
type fecSession struct {
	scheme     fec.Scheme
	groupSize  int
	redundancy float64

	pending []fec.SourceSymbol
	nextID  fec.SourceSymbolID
}

func newFECSession(redundancy float64) *fecSession {
	if redundancy <= 0 || redundancy > 1 {
		redundancy = 0.10
	}
	return &fecSession{
		scheme:     fec.NewRLCScheme(),
		groupSize:  10,
		redundancy: redundancy,
		nextID:     fec.InitialSymbolID,
	}
}

// AddPacket buffers payload as the next source symbol. When the group
// fills it returns the wire-encoded FEC frames for that group's repair
// symbols.
func (s *fecSession) AddPacket(payload []byte) ([][]byte, error) {
	id := s.nextID
	s.nextID++
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.pending = append(s.pending, fec.SourceSymbol{ID: id, Payload: cp})

	if len(s.pending) < s.groupSize {
		return nil, nil
	}
	return s.flushGroup()
}

// Flush protects whatever is left in an incomplete group.
func (s *fecSession) Flush() ([][]byte, error) {
	if len(s.pending) == 0 {
		return nil, nil
	}
	return s.flushGroup()
}

func (s *fecSession) flushGroup() ([][]byte, error) {
	group := s.pending
	s.pending = nil

	nRepair := int(float64(len(group))*s.redundancy + 0.999999)
	if nRepair < 1 {
		nRepair = 1
	}

	repairs, err := s.scheme.Encode(group, nRepair)
	if err != nil {
		return nil, fmt.Errorf("fec session encode: %w", err)
	}

	frames := make([][]byte, 0, len(repairs))
	for _, rs := range repairs {
		frame := &wire.FECFrame{
			FirstID:     uint32(rs.FirstID),
			NProtected:  rs.NProtected,
			NRepair:     rs.NRepair,
			RepairIndex: rs.RepairIndex,
			FBFEC:       rs.IsFBFEC,
			Payload:     rs.Payload,
		}
		var buf bytes.Buffer
		if err := frame.Write(&buf); err != nil {
			return nil, fmt.Errorf("fec session write frame: %w", err)
		}
		frames = append(frames, buf.Bytes())
	}
	return frames, nil
}

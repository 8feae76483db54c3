package wire

import (
	"bytes"
	"testing"
)

func TestFECFrameRoundTrip(t *testing.T) {
	f := &FECFrame{
		FirstID:     12345,
		NProtected:  8,
		NRepair:     2,
		RepairIndex: 1,
		FBFEC:       true,
		Payload:     []byte("some repair symbol payload"),
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != f.Length() {
		t.Fatalf("expected buffer length %d, got %d", f.Length(), buf.Len())
	}

	r := bytes.NewReader(buf.Bytes()[1:]) // skip the type byte, as a caller dispatching on it would
	got, err := ParseFECFrame(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.FirstID != f.FirstID || got.NProtected != f.NProtected || got.NRepair != f.NRepair ||
		got.RepairIndex != f.RepairIndex || got.FBFEC != f.FBFEC || !bytes.Equal(got.Payload, f.Payload) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
	}
}

func TestFECFramePayloadTooLarge(t *testing.T) {
	f := &FECFrame{Payload: make([]byte, 0x10000)}
	var buf bytes.Buffer
	if err := f.Write(&buf); err == nil {
		t.Fatal("expected an error for an oversized payload")
	}
}

func TestSourceSymbolIDFrameRoundTrip(t *testing.T) {
	f := &SourceSymbolIDFrame{FirstID: 99, NSymbols: 4}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := bytes.NewReader(buf.Bytes()[1:])
	got, err := ParseSourceSymbolIDFrame(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.FirstID != f.FirstID || got.NSymbols != f.NSymbols {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
	}
}

func TestRecoveredFrameRoundTrip(t *testing.T) {
	f := &RecoveredFrame{IDs: []uint32{5, 17, 300}}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != f.Length() {
		t.Fatalf("expected buffer length %d, got %d", f.Length(), buf.Len())
	}
	r := bytes.NewReader(buf.Bytes()[1:])
	got, err := ParseRecoveredFrame(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.IDs) != len(f.IDs) {
		t.Fatalf("expected %d ids, got %d", len(f.IDs), len(got.IDs))
	}
	for i := range f.IDs {
		if got.IDs[i] != f.IDs[i] {
			t.Fatalf("id %d: expected %d, got %d", i, f.IDs[i], got.IDs[i])
		}
	}
}

func TestRecoveredFrameEmpty(t *testing.T) {
	f := &RecoveredFrame{}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := bytes.NewReader(buf.Bytes()[1:])
	got, err := ParseRecoveredFrame(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.IDs) != 0 {
		t.Fatalf("expected no ids, got %d", len(got.IDs))
	}
}

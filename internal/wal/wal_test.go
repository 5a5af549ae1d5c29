package wal

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func openTestLog(t *testing.T, sizeBytes int64) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wal.bin")
	l, err := Open(path, sizeBytes)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLog_AppendWritesLengthPrefixedRecord(t *testing.T) {
	l := openTestLog(t, 4096)

	payload := []byte(`{"orderId":"o-1"}`)
	if err := l.Append(payload); err != nil {
		t.Fatalf("append: %v", err)
	}

	length := binary.BigEndian.Uint32(l.mapping[0:4])
	if int(length) != len(payload) {
		t.Errorf("expected length prefix %d, got %d", len(payload), length)
	}
	got := l.mapping[4 : 4+len(payload)]
	if string(got) != string(payload) {
		t.Errorf("expected payload %q, got %q", payload, got)
	}
	if l.Position() != int64(4+len(payload)) {
		t.Errorf("expected position %d, got %d", 4+len(payload), l.Position())
	}
}

func TestLog_AppendAdvancesPositionAcrossRecords(t *testing.T) {
	l := openTestLog(t, 4096)

	l.Append([]byte("a"))
	afterFirst := l.Position()
	l.Append([]byte("bb"))
	afterSecond := l.Position()

	if afterSecond <= afterFirst {
		t.Errorf("expected position to strictly advance, got %d then %d", afterFirst, afterSecond)
	}
}

func TestLog_FullBecomesSilentNoOp(t *testing.T) {
	// Small enough that even one record overflows it.
	l := openTestLog(t, 8)

	if err := l.Append([]byte("this record does not fit")); err != nil {
		t.Fatalf("expected a silent no-op, got error: %v", err)
	}
	if !l.Full() {
		t.Fatalf("expected the log to be latched full")
	}

	posBefore := l.Position()
	if err := l.Append([]byte("x")); err != nil {
		t.Fatalf("expected subsequent appends to remain silent no-ops, got: %v", err)
	}
	if l.Position() != posBefore {
		t.Errorf("expected position unchanged once full, got %d -> %d", posBefore, l.Position())
	}
}

func TestLog_FlushDoesNotError(t *testing.T) {
	l := openTestLog(t, 4096)
	l.Append([]byte("record"))
	if err := l.Flush(); err != nil {
		t.Errorf("flush: %v", err)
	}
}

func TestLog_CloseReleasesMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.bin")
	l, err := Open(path, 4096)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected the backing file to still exist after close: %v", err)
	}
}

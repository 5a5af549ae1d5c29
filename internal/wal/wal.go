// Package wal implements the fixed-size, memory-mapped write-ahead log of
// spec.md §4.5: a length-prefixed byte sequence mapped directly into the
// process's address space, with deferred (batch-boundary) durability.
//
// Contracts (spec.md §4.5, §9): append is called only on the single
// consumer thread; there is no concurrent writer. There is no rotation and
// no recovery — this generation is write-only. Once the next record would
// overflow the mapping, the log becomes full and further appends are
// silent no-ops; matching must keep making forward progress regardless.
package wal

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

const lengthPrefixSize = 4

// Log is a fixed-size memory-mapped append log.
type Log struct {
	file     *os.File
	mapping  []byte
	capacity int64
	position int64
	full     atomic.Bool
}

// Open creates (if needed) and memory-maps path, truncated/extended to
// exactly sizeBytes. sizeBytes should be WAL_SIZE_MB * 2^20 (spec.md §6).
func Open(path string, sizeBytes int64) (*Log, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}

	if err := file.Truncate(sizeBytes); err != nil {
		file.Close()
		return nil, fmt.Errorf("wal: truncate %s to %d bytes: %w", path, sizeBytes, err)
	}

	mapping, err := unix.Mmap(int(file.Fd()), 0, int(sizeBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("wal: mmap %s: %w", path, err)
	}

	return &Log{file: file, mapping: mapping, capacity: sizeBytes}, nil
}

// Append writes [big-endian u32 length][payload] at the current position and
// advances it. If the record would overflow the mapping, the log latches
// full and the call is a silent no-op (spec.md §4.5, §7 WAL error kind):
// matching continues, audit data is lost from this point, by design.
func (l *Log) Append(payload []byte) error {
	if l.full.Load() {
		return nil
	}

	need := int64(lengthPrefixSize + len(payload))
	if l.position+need > l.capacity {
		l.full.Store(true)
		return nil
	}

	binary.BigEndian.PutUint32(l.mapping[l.position:], uint32(len(payload)))
	copy(l.mapping[l.position+lengthPrefixSize:], payload)
	l.position += need

	return nil
}

// Full reports whether the log has stopped accepting records.
func (l *Log) Full() bool {
	return l.full.Load()
}

// Position returns the current write offset, for diagnostics/metrics.
func (l *Log) Position() int64 {
	return l.position
}

// Flush forces the mapping's dirty pages to durable storage. Called only at
// batch boundaries (spec.md §4.2 step 10, §9): this amortizes the msync
// syscall cost across every event in a batch instead of paying it per
// record.
func (l *Log) Flush() error {
	if err := unix.Msync(l.mapping, unix.MS_SYNC); err != nil {
		return fmt.Errorf("wal: msync: %w", err)
	}
	return nil
}

// Close forces a final flush and releases the mapping and file handle. The
// mapping is also released if the process exits without calling Close.
func (l *Log) Close() error {
	_ = l.Flush()
	if err := unix.Munmap(l.mapping); err != nil {
		l.file.Close()
		return fmt.Errorf("wal: munmap: %w", err)
	}
	return l.file.Close()
}

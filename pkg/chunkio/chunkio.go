// Package chunkio implements the on-disk container format for capture
// chunks. A chunk is a single append-only file holding length-prefixed
// records (encoded frames or PCM segments); a record is addressed by its
// zero-based offset index within the file. Finalized chunks are immutable.
package chunkio

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// File layout:
//
//	magic (4) | version (1)
//	repeated records: length (4, big endian) | crc32 (4) | payload
var magic = [4]byte{'r', 't', 'c', '1'}

const version = byte(1)

// Writer appends records to an open chunk file. Not safe for concurrent
// use; each capture stream owns exactly one Writer at a time.
type Writer struct {
	f      *os.File
	path   string
	next   int64
	closed bool
}

// Create opens a new chunk file and writes the header. The file must not
// already exist; chunks are never reopened for writing.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk %s: %w", path, err)
	}
	if _, err := f.Write(magic[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write chunk header: %w", err)
	}
	if _, err := f.Write([]byte{version}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write chunk header: %w", err)
	}
	return &Writer{f: f, path: path}, nil
}

// Path returns the chunk file path.
func (w *Writer) Path() string {
	return w.path
}

// NextOffset returns the offset index the next Append will produce.
func (w *Writer) NextOffset() int64 {
	return w.next
}

// Append writes one record and flushes it to disk. The returned offset is
// only valid once Append has returned nil: callers must not acknowledge a
// unit upstream before that.
func (w *Writer) Append(payload []byte) (int64, error) {
	if w.closed {
		return 0, fmt.Errorf("chunk %s already finalized", w.path)
	}
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(hdr[4:8], crc32.ChecksumIEEE(payload))
	if _, err := w.f.Write(hdr[:]); err != nil {
		return 0, fmt.Errorf("failed to append record: %w", err)
	}
	if _, err := w.f.Write(payload); err != nil {
		return 0, fmt.Errorf("failed to append record: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync chunk: %w", err)
	}
	offset := w.next
	w.next++
	return offset, nil
}

// Finalize flushes and closes the chunk. The file is immutable afterwards.
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to sync chunk on finalize: %w", err)
	}
	return w.f.Close()
}

// ReadRecord resolves (path, offset) to exactly one record payload.
func ReadRecord(path string, offset int64) ([]byte, error) {
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d", offset)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk %s: %w", path, err)
	}
	defer f.Close()

	if err := readHeader(f); err != nil {
		return nil, err
	}

	var hdr [8]byte
	for i := int64(0); ; i++ {
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("offset %d out of range for chunk %s", offset, path)
			}
			return nil, fmt.Errorf("failed to read record header: %w", err)
		}
		length := int64(binary.BigEndian.Uint32(hdr[0:4]))
		sum := binary.BigEndian.Uint32(hdr[4:8])
		if i < offset {
			if _, err := f.Seek(length, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("failed to seek past record: %w", err)
			}
			continue
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(f, payload); err != nil {
			return nil, fmt.Errorf("failed to read record payload: %w", err)
		}
		if crc32.ChecksumIEEE(payload) != sum {
			return nil, fmt.Errorf("checksum mismatch at offset %d in chunk %s", offset, path)
		}
		return payload, nil
	}
}

// Count returns the number of records in a chunk file.
func Count(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open chunk %s: %w", path, err)
	}
	defer f.Close()

	if err := readHeader(f); err != nil {
		return 0, err
	}

	var hdr [8]byte
	var n int64
	for {
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return n, nil
			}
			return 0, fmt.Errorf("failed to read record header: %w", err)
		}
		length := int64(binary.BigEndian.Uint32(hdr[0:4]))
		if _, err := f.Seek(length, io.SeekCurrent); err != nil {
			return 0, fmt.Errorf("failed to seek past record: %w", err)
		}
		n++
	}
}

func readHeader(f *os.File) error {
	var hdr [5]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return fmt.Errorf("failed to read chunk header: %w", err)
	}
	if hdr[0] != magic[0] || hdr[1] != magic[1] || hdr[2] != magic[2] || hdr[3] != magic[3] {
		return fmt.Errorf("not a chunk file")
	}
	if hdr[4] != version {
		return fmt.Errorf("unsupported chunk version %d", hdr[4])
	}
	return nil
}

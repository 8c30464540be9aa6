package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read granularity used while staging uploads.
const ChunkSize = 2 * 1024

var ErrFileTooBig = errors.New("uploaded file exceeds the maximum size")

// Stage copies r into a temporary file in dir in ChunkSize pieces, aborting
// with ErrFileTooBig as soon as more than maxSize bytes have been read. The
// staged bytes are returned and the temporary file is always removed.
func Stage(r io.Reader, dir string, maxSize int64) ([]byte, error) {
	tmp, err := os.CreateTemp(dir, "screener-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	var (
		written int64
		buf     = make([]byte, ChunkSize)
	)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			written += int64(n)
			if maxSize > 0 && written > maxSize {
				return nil, ErrFileTooBig
			}
			if _, err := tmp.Write(buf[:n]); err != nil {
				return nil, fmt.Errorf("write staging file: %w", err)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return nil, fmt.Errorf("read upload: %w", rerr)
		}
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind staging file: %w", err)
	}
	data := make([]byte, written)
	if _, err := io.ReadFull(tmp, data); err != nil {
		return nil, fmt.Errorf("read staging file: %w", err)
	}
	return data, nil
}

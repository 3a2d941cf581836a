package wire

import (
	"fmt"
	"io"
	"os"
)

// DecodeMemoryMapped memory-maps path and decodes an Index as a zero-copy
// view over the mapping (on platforms where mapping is supported; see
// mmap_unix.go / mmap_other.go). The returned io.Closer unmaps the file
// and must be closed only after the Index, and anything derived from it,
// is no longer in use.
func DecodeMemoryMapped(path string) (*Index, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("wire: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, nil, fmt.Errorf("%w: empty file %s", ErrShortBuffer, path)
	}

	buf, closer, err := mmapFile(f, int(info.Size()))
	if err != nil {
		return nil, nil, fmt.Errorf("wire: mmap %s: %w", path, err)
	}
	idx, err := Decode(buf)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return idx, closer, nil
}

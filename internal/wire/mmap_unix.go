//go:build unix

package wire

import (
	"os"
	"syscall"
)

type mmapCloser struct {
	data []byte
}

func (c *mmapCloser) Close() error {
	if c.data == nil {
		return nil
	}
	data := c.data
	c.data = nil
	return syscall.Munmap(data)
}

// mmapFile maps the file read-only and returns a zero-copy view over the
// mapping plus a closer that unmaps it.
func mmapFile(f *os.File, size int) ([]byte, *mmapCloser, error) {
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, &mmapCloser{data: data}, nil
}

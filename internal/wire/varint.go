package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// appendUvarint and consumeUvarint wrap protowire's varint primitives
// rather than reimplementing LEB128 by hand; the wire protocol only needs
// the bare varint encoding, not a full protobuf message.

func appendUvarint(buf []byte, v uint64) []byte {
	return protowire.AppendVarint(buf, v)
}

func consumeUvarint(buf []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, 0, fmt.Errorf("%w: truncated varint", ErrCorrupt)
	}
	return v, n, nil
}

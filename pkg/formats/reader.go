package formats

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-engine/pkg/encoding"
)

// binReader reads little-endian fields and remembers the first failure, so
// parsers can read a whole record and check once.
type binReader struct {
	r         *bytes.Reader
	err       error
	truncated error
}

func newBinReader(data []byte, truncated error) *binReader {
	return &binReader{r: bytes.NewReader(data), truncated: truncated}
}

func (br *binReader) read(v any) {
	if br.err != nil {
		return
	}
	if err := binary.Read(br.r, binary.LittleEndian, v); err != nil {
		br.err = br.truncated
	}
}

func (br *binReader) u32() uint32 {
	var v uint32
	br.read(&v)
	return v
}

func (br *binReader) i32() int32 {
	var v int32
	br.read(&v)
	return v
}

func (br *binReader) f32() float32 {
	var v float32
	br.read(&v)
	return v
}

func (br *binReader) vec3() [3]float32 {
	var v [3]float32
	br.read(&v)
	return v
}

// str reads a fixed-length, NUL-padded EUC-KR string.
func (br *binReader) str(n int) string {
	buf := make([]byte, n)
	br.read(buf)
	if br.err != nil {
		return ""
	}
	return encoding.FixedStringToUTF8(buf)
}

func (br *binReader) skip(n int64) {
	if br.err != nil {
		return
	}
	if int64(br.r.Len()) < n {
		br.err = br.truncated
		return
	}
	_, _ = br.r.Seek(n, io.SeekCurrent)
}

// count reads an element count and rejects values outside [0, limit].
func (br *binReader) count(limit int, what string) int {
	n := br.i32()
	if br.err == nil && (n < 0 || int(n) > limit) {
		br.err = errors.Wrapf(br.truncated, "%s count %d", what, n)
		return 0
	}
	return int(n)
}

package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-engine/pkg/encoding"
)

// File is one entry to be packed.
type File struct {
	Name string
	Data []byte
}

// Write packs files into a GRF 0x200 archive. Every entry is zlib
// compressed; names are stored as EUC-KR with backslash separators.
func Write(w io.Writer, files []File) error {
	var body bytes.Buffer
	var table bytes.Buffer

	for _, f := range files {
		compressed, err := deflate(f.Data)
		if err != nil {
			return errors.Wrapf(err, "compressing %s", f.Name)
		}

		name := bytes.ReplaceAll(encoding.UTF8ToEUCKR(f.Name), []byte("/"), []byte("\\"))
		table.Write(name)
		table.WriteByte(0)

		var rec [17]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(len(compressed)))
		binary.LittleEndian.PutUint32(rec[4:], uint32(len(compressed)))
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(f.Data)))
		rec[12] = FlagFile
		binary.LittleEndian.PutUint32(rec[13:], uint32(body.Len()))
		table.Write(rec[:])

		body.Write(compressed)
	}

	compressedTable, err := deflate(table.Bytes())
	if err != nil {
		return errors.Wrap(err, "compressing file table")
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     version200,
	}
	copy(header.Magic[:], grfMagic)

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return errors.Wrap(err, "writing entries")
	}
	sizes := [2]uint32{uint32(len(compressedTable)), uint32(table.Len())}
	if err := binary.Write(w, binary.LittleEndian, sizes); err != nil {
		return errors.Wrap(err, "writing file table")
	}
	_, err = w.Write(compressedTable)
	return errors.Wrap(err, "writing file table")
}

// WriteFile packs files into a new archive at path.
func WriteFile(path string, files []File) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating archive")
	}
	if err := Write(f, files); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

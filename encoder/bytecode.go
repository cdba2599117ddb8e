package encoder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/golox/lox"
)

// EncodeChunkTo encodes given c to w io.Writer.
func EncodeChunkTo(c *lox.Chunk, w io.Writer) error {
	return (*Chunk)(c).Encode(w)
}

// DecodeChunkFrom decodes *lox.Chunk from given r io.Reader.
func DecodeChunkFrom(r io.Reader) (*lox.Chunk, error) {
	var c Chunk
	if err := c.Decode(r); err != nil {
		return nil, err
	}
	return (*lox.Chunk)(&c), nil
}

// Encode writes encoded data of Chunk to writer.
func (c *Chunk) Encode(w io.Writer) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}

	n, err := w.Write(data)
	if err != nil {
		return lox.ErrIO.Wrap(err)
	}

	if n != len(data) {
		return lox.ErrIO.Wrap(errors.New("short write"))
	}
	return nil
}

// Decode decodes Chunk data from the reader.
func (c *Chunk) Decode(r io.Reader) error {
	dst := bytes.NewBuffer(nil)
	if _, err := io.Copy(dst, r); err != nil {
		return lox.ErrIO.Wrap(err)
	}
	return c.UnmarshalBinary(dst.Bytes())
}

// IsEncoded reports whether data starts with the encoded Chunk signature.
func IsEncoded(data []byte) bool {
	return len(data) >= 4 && binary.BigEndian.Uint32(data) == ChunkSignature
}

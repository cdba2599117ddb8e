// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package encoder

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"

	"github.com/golox/lox"
)

// Chunk signature and version are written to the header of encoded Chunk.
// Chunk is encoded with current ChunkVersion and its format.
const (
	ChunkSignature uint32 = 0x4C4F5843 // "LOXC"
	ChunkVersion   uint16 = 1
)

const headerSize = 6

// Chunk implements encoding.BinaryMarshaler and encoding.BinaryUnmarshaler.
type Chunk lox.Chunk

var (
	_ encoding.BinaryMarshaler   = (*Chunk)(nil)
	_ encoding.BinaryUnmarshaler = (*Chunk)(nil)
)

var log = commonlog.GetLogger("lox.encoder")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("encoder: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalBinary implements encoding.BinaryMarshaler. The chunk is validated
// before it is encoded.
func (c *Chunk) MarshalBinary() ([]byte, error) {
	if err := (*lox.Chunk)(c).Validate(); err != nil {
		return nil, err
	}

	switch ChunkVersion {
	case 1:
		var buf bytes.Buffer
		if err := c.chunkV1Encoder(&buf); err != nil {
			return nil, err
		}
		log.Debugf("encoded chunk: %d bytes of code, %d constants, %d bytes",
			len(c.Code), len(c.Constants), buf.Len())
		return buf.Bytes(), nil
	default:
		panic("invalid Chunk version:" + strconv.Itoa(int(ChunkVersion)))
	}
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Decoded chunks are
// validated, a chunk that would not run is rejected.
func (c *Chunk) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return malformed("invalid data")
	}

	sig := binary.BigEndian.Uint32(data[0:4])
	if sig != ChunkSignature {
		return malformed("signature mismatch")
	}

	version := binary.BigEndian.Uint16(data[4:6])
	switch version {
	case ChunkVersion:
		if err := c.chunkV1Decoder(data[headerSize:]); err != nil {
			return err
		}
	default:
		return malformed("unsupported version:" + strconv.Itoa(int(version)))
	}

	if err := (*lox.Chunk)(c).Validate(); err != nil {
		return err
	}
	log.Debugf("decoded chunk: %d bytes of code, %d constants",
		len(c.Code), len(c.Constants))
	return nil
}

func putChunkHeader(w io.Writer) (err error) {
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[0:4], ChunkSignature)
	binary.BigEndian.PutUint16(header[4:6], ChunkVersion)
	_, err = w.Write(header)
	return
}

func (c *Chunk) chunkV1Encoder(w io.Writer) error {
	if err := putChunkHeader(w); err != nil {
		return err
	}
	// the body is the plain lox.Chunk, Chunk itself is a BinaryMarshaler
	return cborEncMode.NewEncoder(w).Encode((*lox.Chunk)(c))
}

func (c *Chunk) chunkV1Decoder(body []byte) error {
	var v lox.Chunk
	if err := cbor.Unmarshal(body, &v); err != nil {
		return &lox.Error{
			Name:    "encoder.Chunk.UnmarshalBinary",
			Message: err.Error(),
			Cause:   lox.ErrMalformedChunk,
		}
	}
	*c = Chunk(v)
	return nil
}

func malformed(msg string) error {
	return &lox.Error{
		Name:    "encoder.Chunk.UnmarshalBinary",
		Message: msg,
		Cause:   lox.ErrMalformedChunk,
	}
}

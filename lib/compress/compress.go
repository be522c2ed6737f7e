// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress frames small binary blobs (compiled mapping table
// snapshots, mostly) with a one-byte codec tag and the uncompressed
// length, so a reader never has to be told which codec a writer
// chose.
//
// Frame layout:
//
//	[tag:1][uncompressed length:uvarint][payload]
//
// Payloads that do not shrink are stored with [None] regardless of the
// requested codec.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the compression algorithm of a frame. Values are
// stored on disk; changing them breaks existing snapshots.
type Codec uint8

const (
	// None stores the payload as-is.
	None Codec = 0

	// LZ4 is block-mode LZ4: fast to decode, modest ratio. The
	// default for snapshots, which are read on every invocation.
	LZ4 Codec = 1

	// Zstd is zstd at the default level: better ratio for the
	// text-heavy symbol tables at a higher decode cost.
	Zstd Codec = 2
)

// String returns the configuration name of the codec.
func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCodec parses a configuration name ("none", "lz4", "zstd").
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4", "":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression codec %q (want none, lz4, or zstd)", name)
	}
}

// maxFrameSize bounds the declared uncompressed length so a corrupt
// header cannot trigger a huge allocation.
const maxFrameSize = 1 << 30

var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode compresses data with codec and returns the framed result.
func Encode(data []byte, codec Codec) ([]byte, error) {
	var payload []byte
	var err error
	switch codec {
	case None:
		payload = data
	case LZ4:
		payload, err = compressLZ4(data)
	case Zstd:
		payload, err = compressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression codec %d", codec)
	}
	if errors.Is(err, errIncompressible) {
		codec, payload, err = None, data, nil
	}
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 1, 1+binary.MaxVarintLen64+len(payload))
	frame[0] = byte(codec)
	frame = binary.AppendUvarint(frame, uint64(len(data)))
	return append(frame, payload...), nil
}

// Decode reverses Encode. The decompressed length must match the
// length recorded in the frame header.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, fmt.Errorf("compressed frame too short (%d bytes)", len(frame))
	}
	codec := Codec(frame[0])
	size, headerLength := binary.Uvarint(frame[1:])
	if headerLength <= 0 {
		return nil, errors.New("compressed frame has a corrupt length header")
	}
	if size > maxFrameSize {
		return nil, fmt.Errorf("compressed frame declares %d bytes, limit is %d", size, maxFrameSize)
	}
	payload := frame[1+headerLength:]

	switch codec {
	case None:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("uncompressed frame: size %d does not match header %d", len(payload), size)
		}
		return payload, nil
	case LZ4:
		return decompressLZ4(payload, int(size))
	case Zstd:
		return decompressZstd(payload, int(size))
	default:
		return nil, fmt.Errorf("unsupported compression codec %d", codec)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	destination := make([]byte, size)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
	}
	return result, nil
}

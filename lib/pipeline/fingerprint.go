// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Fingerprint is a 32-byte BLAKE3 keyed digest.
type Fingerprint [32]byte

// String returns the hex form used in paths, manifests, and logs.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// ParseFingerprint parses the hex form produced by String.
func ParseFingerprint(text string) (Fingerprint, error) {
	var fingerprint Fingerprint
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return fingerprint, fmt.Errorf("parsing fingerprint: %w", err)
	}
	if len(decoded) != len(fingerprint) {
		return fingerprint, fmt.Errorf("fingerprint is %d bytes, want %d", len(decoded), len(fingerprint))
	}
	copy(fingerprint[:], decoded)
	return fingerprint, nil
}

type domainKey [32]byte

// Domain separation keys: the ASCII domain name, zero-padded. Changing
// one invalidates every cached entry in that domain.
var (
	fileDomainKey = domainKey{
		'm', 'o', 'l', 't', '.', 'p', 'i', 'p', 'e', 'l', 'i', 'n', 'e', '.', 'f', 'i',
		'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	stageDomainKey = domainKey{
		'm', 'o', 'l', 't', '.', 'p', 'i', 'p', 'e', 'l', 'i', 'n', 'e', '.', 's', 't',
		'a', 'g', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

func newHasher(key domainKey) *blake3.Hasher {
	// NewKeyed only fails for keys that are not 32 bytes.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("pipeline: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Fingerprint {
	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint
}

// HashFile returns the file-domain fingerprint of the file at path.
func HashFile(path string) (Fingerprint, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, err
	}
	defer file.Close()
	hasher := newHasher(fileDomainKey)
	if _, err := io.Copy(hasher, file); err != nil {
		return Fingerprint{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum(hasher), nil
}

// cacheKey derives the on-disk key of a stage output. Every input is
// length-prefixed so no two distinct input lists hash the same byte
// stream.
func cacheKey(stage Stage, input Fingerprint, parts ...string) Fingerprint {
	hasher := newHasher(stageDomainKey)
	writeField(hasher, []byte(stage.String()))
	writeField(hasher, input[:])
	for _, part := range parts {
		writeField(hasher, []byte(part))
	}
	return sum(hasher)
}

func writeField(hasher *blake3.Hasher, data []byte) {
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(data)))
	hasher.Write(length[:])
	hasher.Write(data)
}

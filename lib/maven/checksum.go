// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// checksumExtension is the sidecar suffix for SHA-1 digests. Maven
// repositories publish one next to every file.
const checksumExtension = ".sha1"

// hashFile computes the hex SHA-1 of the file at path, streaming it so
// memory use is constant regardless of jar size.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// parseChecksum extracts the digest from a sidecar file. Some
// repositories write "<digest>  <filename>"; only the first field
// matters.
func parseChecksum(content []byte) (string, error) {
	fields := strings.Fields(string(content))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum file")
	}
	digest := strings.ToLower(fields[0])
	decoded, err := hex.DecodeString(digest)
	if err != nil {
		return "", fmt.Errorf("parsing checksum: %w", err)
	}
	if len(decoded) != sha1.Size {
		return "", fmt.Errorf("checksum is %d bytes, want %d", len(decoded), sha1.Size)
	}
	return digest, nil
}

// verifyCached reports whether the file at path matches the digest
// recorded in its sidecar. A missing sidecar counts as a mismatch.
func verifyCached(path string) bool {
	content, err := os.ReadFile(path + checksumExtension)
	if err != nil {
		return false
	}
	want, err := parseChecksum(content)
	if err != nil {
		return false
	}
	got, err := hashFile(path)
	if err != nil {
		return false
	}
	return got == want
}

// ChecksumMismatchError reports a downloaded file whose SHA-1 does not
// match the repository's published digest.
type ChecksumMismatchError struct {
	Path string
	Want string
	Got  string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: repository publishes %s, downloaded file is %s", e.Path, e.Want, e.Got)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package classfile

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// decodeModifiedUTF8 converts the class file string encoding (JVMS
// §4.4.7) to a Go string. NUL is encoded as C0 80 and supplementary
// characters as surrogate pairs of three-byte sequences.
func decodeModifiedUTF8(data []byte) (string, error) {
	ascii := true
	for _, b := range data {
		if b == 0 || b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(data), nil
	}

	units := make([]uint16, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b != 0 && b < 0x80:
			units = append(units, uint16(b))
			i++
		case b&0xE0 == 0xC0:
			if i+1 >= len(data) || data[i+1]&0xC0 != 0x80 {
				return "", fmt.Errorf("truncated two-byte sequence at offset %d", i)
			}
			units = append(units, uint16(b&0x1F)<<6|uint16(data[i+1]&0x3F))
			i += 2
		case b&0xF0 == 0xE0:
			if i+2 >= len(data) || data[i+1]&0xC0 != 0x80 || data[i+2]&0xC0 != 0x80 {
				return "", fmt.Errorf("truncated three-byte sequence at offset %d", i)
			}
			units = append(units, uint16(b&0x0F)<<12|uint16(data[i+1]&0x3F)<<6|uint16(data[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("invalid byte 0x%02x at offset %d", b, i)
		}
	}
	return string(utf16.Decode(units)), nil
}

// encodeModifiedUTF8 is the inverse of decodeModifiedUTF8.
func encodeModifiedUTF8(text string) []byte {
	if !strings.ContainsFunc(text, func(r rune) bool { return r == 0 || r >= 0x80 }) {
		return []byte(text)
	}
	encoded := make([]byte, 0, len(text)+8)
	for _, unit := range utf16.Encode([]rune(text)) {
		switch {
		case unit != 0 && unit < 0x80:
			encoded = append(encoded, byte(unit))
		case unit < 0x800:
			encoded = append(encoded, 0xC0|byte(unit>>6), 0x80|byte(unit&0x3F))
		default:
			encoded = append(encoded, 0xE0|byte(unit>>12), 0x80|byte(unit>>6&0x3F), 0x80|byte(unit&0x3F))
		}
	}
	return encoded
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mapping

import "strings"

// RemapDescriptor rewrites every class name in a field or method
// descriptor ("(La;I)[Lb;") through mapClass. Malformed input is
// returned with as much rewritten as could be parsed.
func RemapDescriptor(descriptor string, mapClass func(string) string) string {
	if strings.IndexByte(descriptor, 'L') < 0 {
		return descriptor
	}
	var builder strings.Builder
	builder.Grow(len(descriptor))
	for i := 0; i < len(descriptor); i++ {
		c := descriptor[i]
		builder.WriteByte(c)
		if c != 'L' {
			continue
		}
		end := strings.IndexByte(descriptor[i:], ';')
		if end < 0 {
			builder.WriteString(descriptor[i+1:])
			break
		}
		builder.WriteString(mapClass(descriptor[i+1 : i+end]))
		builder.WriteByte(';')
		i += end
	}
	return builder.String()
}

// RemapSignature rewrites every class name in a generic signature
// (class, method, or field form, JVMS §4.7.9.1) through mapClass.
// Inner class segments ("Lpkg/Outer<TT;>.Inner;") are mapped by their
// full binary name. Input that does not parse is returned unchanged.
func RemapSignature(signature string, mapClass func(string) string) string {
	if strings.IndexByte(signature, 'L') < 0 {
		return signature
	}
	parser := &signatureParser{input: signature, mapClass: mapClass}
	if !parser.parse() {
		return signature
	}
	return parser.output.String()
}

type signatureParser struct {
	input    string
	position int
	output   strings.Builder
	mapClass func(string) string
}

func (p *signatureParser) peek() byte {
	if p.position >= len(p.input) {
		return 0
	}
	return p.input[p.position]
}

func (p *signatureParser) emit() {
	p.output.WriteByte(p.input[p.position])
	p.position++
}

func (p *signatureParser) parse() bool {
	if p.peek() == '<' && !p.formalTypeParameters() {
		return false
	}
	for p.position < len(p.input) {
		switch p.peek() {
		case '(', ')', '^':
			p.emit()
		default:
			if !p.typeSignature() {
				return false
			}
		}
	}
	return true
}

func (p *signatureParser) formalTypeParameters() bool {
	p.emit() // '<'
	for p.peek() != '>' {
		colon := strings.IndexByte(p.input[p.position:], ':')
		if colon <= 0 {
			return false
		}
		p.output.WriteString(p.input[p.position : p.position+colon])
		p.position += colon
		for p.peek() == ':' {
			p.emit()
			switch p.peek() {
			case 'L', 'T', '[':
				if !p.typeSignature() {
					return false
				}
			}
		}
		if p.position >= len(p.input) {
			return false
		}
	}
	p.emit() // '>'
	return true
}

func (p *signatureParser) typeSignature() bool {
	switch p.peek() {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		p.emit()
		return true
	case '[':
		p.emit()
		return p.typeSignature()
	case 'T':
		end := strings.IndexByte(p.input[p.position:], ';')
		if end < 0 {
			return false
		}
		p.output.WriteString(p.input[p.position : p.position+end+1])
		p.position += end + 1
		return true
	case 'L':
		return p.classTypeSignature()
	default:
		return false
	}
}

func (p *signatureParser) classTypeSignature() bool {
	p.emit() // 'L'
	original := p.identifier()
	if original == "" {
		return false
	}
	mapped := p.mapClass(original)
	p.output.WriteString(mapped)

	for {
		if p.peek() == '<' && !p.typeArguments() {
			return false
		}
		switch p.peek() {
		case ';':
			p.emit()
			return true
		case '.':
			p.emit()
			simple := p.identifier()
			if simple == "" {
				return false
			}
			original += "$" + simple
			inner := p.mapClass(original)
			if strings.HasPrefix(inner, mapped+"$") {
				p.output.WriteString(inner[len(mapped)+1:])
			} else if dollar := strings.LastIndexAny(inner, "$/"); dollar >= 0 {
				p.output.WriteString(inner[dollar+1:])
			} else {
				p.output.WriteString(inner)
			}
			mapped = inner
		default:
			return false
		}
	}
}

func (p *signatureParser) typeArguments() bool {
	p.emit() // '<'
	for p.peek() != '>' {
		switch p.peek() {
		case 0:
			return false
		case '*':
			p.emit()
		case '+', '-':
			p.emit()
			if !p.typeSignature() {
				return false
			}
		default:
			if !p.typeSignature() {
				return false
			}
		}
	}
	p.emit() // '>'
	return true
}

// identifier consumes characters up to the next '<', '.', or ';'.
func (p *signatureParser) identifier() string {
	start := p.position
	for p.position < len(p.input) {
		switch p.input[p.position] {
		case '<', '.', ';':
			return p.input[start:p.position]
		}
		p.position++
	}
	return p.input[start:p.position]
}

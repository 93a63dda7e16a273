// Package dicomtest builds small synthetic Part 10 buffers for tests.
package dicomtest

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

const undefinedLength = 0xFFFFFFFF

type item struct {
	tag      tag.Tag
	vr       string
	value    []byte
	sequence *Builder
}

// Builder accumulates dataset elements in the order they are added.
// Callers are responsible for adding tags in ascending order.
type Builder struct {
	syntax   string
	implicit bool
	items    []item
}

// New returns a builder for an explicit VR little endian file
func New() *Builder {
	return &Builder{syntax: "1.2.840.10008.1.2.1"}
}

// Implicit switches the dataset to implicit VR little endian
func (b *Builder) Implicit() *Builder {
	b.implicit = true
	b.syntax = "1.2.840.10008.1.2"
	return b
}

// TransferSyntax overrides the declared transfer syntax UID without changing
// how the dataset is encoded. An empty UID omits the element.
func (b *Builder) TransferSyntax(uid string) *Builder {
	b.syntax = uid
	return b
}

// US adds an unsigned short element
func (b *Builder) US(t tag.Tag, values ...uint16) *Builder {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return b.Bytes(t, "US", buf)
}

// DS adds a decimal string element
func (b *Builder) DS(t tag.Tag, values ...float64) *Builder {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return b.String(t, "DS", strings.Join(parts, "\\"))
}

// IS adds an integer string element
func (b *Builder) IS(t tag.Tag, v int) *Builder {
	return b.String(t, "IS", strconv.Itoa(v))
}

// String adds a text element padded to even length
func (b *Builder) String(t tag.Tag, vr, s string) *Builder {
	return b.Bytes(t, vr, []byte(s))
}

// Bytes adds an element with a raw value
func (b *Builder) Bytes(t tag.Tag, vr string, value []byte) *Builder {
	b.items = append(b.items, item{tag: t, vr: vr, value: value})
	return b
}

// Sequence adds an undefined-length sequence holding one undefined-length item
// whose content is the dataset of nested
func (b *Builder) Sequence(t tag.Tag, nested *Builder) *Builder {
	b.items = append(b.items, item{tag: t, vr: "SQ", sequence: nested})
	return b
}

// Unknown adds an undefined-length UN element holding one undefined-length
// item. The nested dataset is always encoded as implicit VR.
func (b *Builder) Unknown(t tag.Tag, nested *Builder) *Builder {
	b.items = append(b.items, item{tag: t, vr: "UN", sequence: nested})
	return b
}

// Image adds the geometry, bit depth and pixel data elements of a monochrome image
func (b *Builder) Image(rows, columns, bitsAllocated, pixelRepresentation int, pixels []byte) *Builder {
	return b.
		US(tag.SamplesPerPixel, 1).
		String(tag.PhotometricInterpretation, "CS", "MONOCHROME2").
		US(tag.Rows, uint16(rows)).
		US(tag.Columns, uint16(columns)).
		US(tag.BitsAllocated, uint16(bitsAllocated)).
		US(tag.BitsStored, uint16(bitsAllocated)).
		US(tag.HighBit, uint16(bitsAllocated-1)).
		US(tag.PixelRepresentation, uint16(pixelRepresentation)).
		Pixels(bitsAllocated, pixels)
}

// Pixels adds the pixel data element with the VR matching the bit depth
func (b *Builder) Pixels(bitsAllocated int, pixels []byte) *Builder {
	vr := "OW"
	if bitsAllocated == 8 {
		vr = "OB"
	}
	return b.Bytes(tag.PixelData, vr, pixels)
}

// Build returns the preamble, signature, file meta information and dataset
func (b *Builder) Build() []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 128))
	buf.WriteString("DICM")
	if b.syntax != "" {
		writeElement(&buf, false, tag.TransferSyntaxUID, "UI", pad([]byte(b.syntax), "UI"))
	}
	buf.Write(b.Dataset())
	return buf.Bytes()
}

// Dataset returns only the encoded dataset elements
func (b *Builder) Dataset() []byte {
	var buf bytes.Buffer
	for _, it := range b.items {
		if it.sequence != nil {
			writeHeader(&buf, b.implicit, it.tag, it.vr, undefinedLength)
			writeItemHeader(&buf, 0xE000, undefinedLength)
			nested := *it.sequence
			nested.implicit = b.implicit || it.vr == "UN"
			buf.Write(nested.Dataset())
			writeItemHeader(&buf, 0xE00D, 0)
			writeItemHeader(&buf, 0xE0DD, 0)
			continue
		}
		writeElement(&buf, b.implicit, it.tag, it.vr, pad(it.value, it.vr))
	}
	return buf.Bytes()
}

func pad(value []byte, vr string) []byte {
	if len(value)%2 == 0 {
		return value
	}
	switch vr {
	case "UI", "OB", "OW", "UN":
		return append(append([]byte{}, value...), 0)
	default:
		return append(append([]byte{}, value...), ' ')
	}
}

func writeElement(buf *bytes.Buffer, implicit bool, t tag.Tag, vr string, value []byte) {
	writeHeader(buf, implicit, t, vr, uint32(len(value)))
	buf.Write(value)
}

func writeHeader(buf *bytes.Buffer, implicit bool, t tag.Tag, vr string, length uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint16(scratch[0:], t.Group)
	binary.LittleEndian.PutUint16(scratch[2:], t.Element)
	buf.Write(scratch[:])

	if implicit {
		binary.LittleEndian.PutUint32(scratch[:], length)
		buf.Write(scratch[:])
		return
	}

	buf.WriteString(vr)
	switch vr {
	case "OB", "OD", "OF", "OL", "OV", "OW", "SQ", "SV", "UC", "UN", "UR", "UT", "UV":
		buf.Write([]byte{0, 0})
		binary.LittleEndian.PutUint32(scratch[:], length)
		buf.Write(scratch[:])
	default:
		binary.LittleEndian.PutUint16(scratch[:2], uint16(length))
		buf.Write(scratch[:2])
	}
}

func writeItemHeader(buf *bytes.Buffer, element uint16, length uint32) {
	var scratch [8]byte
	binary.LittleEndian.PutUint16(scratch[0:], 0xFFFE)
	binary.LittleEndian.PutUint16(scratch[2:], element)
	binary.LittleEndian.PutUint32(scratch[4:], length)
	buf.Write(scratch[:])
}

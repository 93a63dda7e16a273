// Package dicom reads the subset of DICOM Part 10 files needed for display:
// image geometry, photometric metadata, ordering metadata and native
// (uncompressed) pixel data.
package dicom

import (
	"github.com/suyashkumar/dicom/pkg/tag"
)

const (
	// preambleLength is the size of the Part 10 preamble preceding the magic
	preambleLength = 128

	// magic is the Part 10 signature found right after the preamble
	magic = "DICM"

	// undefinedLength marks sequences, items and encapsulated pixel data
	// terminated by delimitation items instead of an explicit length
	undefinedLength = 0xFFFFFFFF
)

// Transfer syntax UIDs recognised by the reader
const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
	ExplicitVRBigEndian            = "1.2.840.10008.1.2.2"
)

// Item and delimitation tags (group FFFE) always use the implicit header form
var (
	itemTag                 = tag.Tag{Group: 0xFFFE, Element: 0xE000}
	itemDelimitationTag     = tag.Tag{Group: 0xFFFE, Element: 0xE00D}
	sequenceDelimitationTag = tag.Tag{Group: 0xFFFE, Element: 0xE0DD}
)

// IsDICOM reports whether data carries the Part 10 signature at offset 128.
// This is the only classification rule: file extensions and MIME types are
// not consulted. Buffers that fail this check belong to the raster decoder.
func IsDICOM(data []byte) bool {
	if len(data) < preambleLength+len(magic) {
		return false
	}
	return string(data[preambleLength:preambleLength+len(magic)]) == magic
}

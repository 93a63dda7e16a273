package dicom

import (
	"encoding/binary"

	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomview/internal/models"
)

// element is one data element header plus the location of its value.
// Value points into the source buffer and must be copied before it is kept.
type element struct {
	Tag    tag.Tag
	VR     string
	Length uint32
	Offset int
	Value  []byte
}

// longLengthVRs use a 2-byte reserved field and a 4-byte length in explicit VR
var longLengthVRs = map[string]bool{
	"OB": true, "OD": true, "OF": true, "OL": true, "OV": true, "OW": true,
	"SQ": true, "SV": true, "UC": true, "UN": true, "UR": true, "UT": true,
	"UV": true,
}

// reader walks a little endian element stream sequentially
type reader struct {
	data     []byte
	pos      int
	explicit bool
}

func newReader(data []byte, pos int, explicit bool) *reader {
	return &reader{data: data, pos: pos, explicit: explicit}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

// peekTag returns the next tag without consuming it
func (r *reader) peekTag() (tag.Tag, bool) {
	if r.remaining() < 4 {
		return tag.Tag{}, false
	}
	return tag.Tag{
		Group:   binary.LittleEndian.Uint16(r.data[r.pos:]),
		Element: binary.LittleEndian.Uint16(r.data[r.pos+2:]),
	}, true
}

// header reads the next element header. Items and delimiters use the
// implicit form regardless of the stream encoding.
func (r *reader) header() (*element, error) {
	t, ok := r.peekTag()
	if !ok || r.remaining() < 8 {
		return nil, models.NewDecodeError(models.KindMalformed, "truncated element header at offset %d", r.pos)
	}
	el := &element{Tag: t}

	if t.Group == 0xFFFE || !r.explicit {
		el.Length = binary.LittleEndian.Uint32(r.data[r.pos+4:])
		r.pos += 8
		if !r.explicit {
			el.VR = implicitVR(t)
		}
		el.Offset = r.pos
		return el, nil
	}

	el.VR = string(r.data[r.pos+4 : r.pos+6])
	if longLengthVRs[el.VR] {
		if r.remaining() < 12 {
			return nil, models.NewDecodeError(models.KindMalformed, "truncated %s header for %s", el.VR, t)
		}
		el.Length = binary.LittleEndian.Uint32(r.data[r.pos+8:])
		r.pos += 12
	} else {
		el.Length = uint32(binary.LittleEndian.Uint16(r.data[r.pos+6:]))
		r.pos += 8
	}
	el.Offset = r.pos
	return el, nil
}

// next reads the next top-level element. Undefined-length sequences are
// skipped and returned with a nil Value; encapsulated pixel data is reported
// as an unsupported transfer syntax.
func (r *reader) next() (*element, error) {
	el, err := r.header()
	if err != nil {
		return nil, err
	}

	if el.Length == undefinedLength {
		if el.Tag == tag.PixelData {
			return nil, models.NewDecodeError(models.KindUnsupportedTransferSyntax,
				"encapsulated pixel data is not supported")
		}
		if err := r.skipUndefined(el); err != nil {
			return nil, err
		}
		return el, nil
	}

	if int64(el.Length) > int64(r.remaining()) {
		return nil, models.NewDecodeError(models.KindMalformed,
			"value of %s needs %d bytes, only %d left", el.Tag, el.Length, r.remaining())
	}
	el.Value = r.data[r.pos : r.pos+int(el.Length)]
	r.pos += int(el.Length)
	return el, nil
}

// skipUndefined skips the items of an undefined-length element. The content
// of an undefined-length UN element is always implicit VR little endian.
func (r *reader) skipUndefined(el *element) error {
	if el.VR != "UN" || !r.explicit {
		return r.skipSequence()
	}
	r.explicit = false
	err := r.skipSequence()
	r.explicit = true
	return err
}

// skipSequence consumes items until the sequence delimitation item
func (r *reader) skipSequence() error {
	for {
		item, err := r.header()
		if err != nil {
			return err
		}
		switch item.Tag {
		case sequenceDelimitationTag:
			return nil
		case itemTag:
			if item.Length == undefinedLength {
				if err := r.skipItem(); err != nil {
					return err
				}
				continue
			}
			if int64(item.Length) > int64(r.remaining()) {
				return models.NewDecodeError(models.KindMalformed, "sequence item overruns buffer")
			}
			r.pos += int(item.Length)
		default:
			return models.NewDecodeError(models.KindMalformed, "unexpected %s inside sequence", item.Tag)
		}
	}
}

// skipItem consumes nested elements until the item delimitation item
func (r *reader) skipItem() error {
	for {
		t, ok := r.peekTag()
		if !ok {
			return models.NewDecodeError(models.KindMalformed, "unterminated sequence item")
		}
		if t == itemDelimitationTag {
			_, err := r.header()
			return err
		}
		if _, err := r.next(); err != nil {
			return err
		}
	}
}

// walk visits every top-level element of a Part 10 buffer, file meta
// information included, and returns the transfer syntax in use.
func walk(data []byte, visit func(el *element) error) (string, error) {
	if !IsDICOM(data) {
		return "", models.NewDecodeError(models.KindMalformed, "missing DICM signature")
	}

	// File meta information is always explicit VR little endian
	r := newReader(data, preambleLength+len(magic), true)
	var syntax string
	for {
		t, ok := r.peekTag()
		if !ok || t.Group != 0x0002 {
			break
		}
		el, err := r.next()
		if err != nil {
			return "", err
		}
		if el.Tag == tag.TransferSyntaxUID {
			syntax = trimValue(el.Value)
		}
		if err := visit(el); err != nil {
			return "", err
		}
	}

	switch syntax {
	case ExplicitVRBigEndian, DeflatedExplicitVRLittleEndian:
		return syntax, models.NewDecodeError(models.KindUnsupportedTransferSyntax,
			"transfer syntax %s is not supported", syntax)
	case ImplicitVRLittleEndian:
		r.explicit = false
	case "":
		r.explicit = looksExplicit(r)
	default:
		// Explicit VR little endian and the encapsulated syntaxes, which
		// share its element encoding
		r.explicit = true
	}

	for r.remaining() >= 8 {
		el, err := r.next()
		if err != nil {
			return syntax, err
		}
		if err := visit(el); err != nil {
			return syntax, err
		}
	}
	return syntax, nil
}

// looksExplicit guesses the encoding of a dataset with no declared syntax by
// checking whether the first element carries two uppercase VR letters
func looksExplicit(r *reader) bool {
	if r.remaining() < 6 {
		return true
	}
	a, b := r.data[r.pos+4], r.data[r.pos+5]
	return a >= 'A' && a <= 'Z' && b >= 'A' && b <= 'Z'
}

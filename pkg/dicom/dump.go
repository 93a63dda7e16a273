package dicom

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// maxPreview caps the number of characters shown for a text value
const maxPreview = 64

// ElementInfo describes one top-level element for inspection output
type ElementInfo struct {
	Tag     tag.Tag
	Name    string
	VR      string
	Length  uint32
	Preview string
}

func (e ElementInfo) String() string {
	return fmt.Sprintf("(%04X,%04X) %-2s %-36s len=%-8d %s",
		e.Tag.Group, e.Tag.Element, e.VR, e.Name, e.Length, e.Preview)
}

// Dump lists the top-level elements of a Part 10 buffer, including file meta
// information, with dictionary names and short value previews. Sequences are
// listed but not expanded.
func Dump(data []byte) ([]ElementInfo, string, error) {
	var out []ElementInfo
	syntax, err := walk(data, func(el *element) error {
		out = append(out, ElementInfo{
			Tag:     el.Tag,
			Name:    tagName(el.Tag),
			VR:      el.VR,
			Length:  el.Length,
			Preview: preview(el),
		})
		return nil
	})
	return out, syntax, err
}

func tagName(t tag.Tag) string {
	info, err := tag.Find(t)
	if err != nil {
		if t.Group%2 == 1 {
			return "Private"
		}
		return "Unknown"
	}
	return info.Name
}

func preview(el *element) string {
	switch {
	case el.Value == nil:
		return "<sequence>"
	case el.Tag == tag.PixelData:
		return fmt.Sprintf("<%d bytes>", len(el.Value))
	}

	switch el.VR {
	case "US", "SS", "UL", "SL", "FD", "FL":
		return strings.Trim(fmt.Sprint(floatValues(el)), "[]")
	case "OB", "OW", "OD", "OF", "OL", "OV", "UN", "SQ":
		return fmt.Sprintf("<%d bytes>", len(el.Value))
	}

	s := trimValue(el.Value)
	if len(s) > maxPreview {
		s = s[:maxPreview] + "..."
	}
	return s
}

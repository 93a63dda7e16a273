package dicom

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// implicitVRs gives the value representation of the tags this package
// interprets when the dataset does not encode VRs
var implicitVRs = map[tag.Tag]string{
	tag.TransferSyntaxUID:         "UI",
	tag.SamplesPerPixel:           "US",
	tag.PhotometricInterpretation: "CS",
	tag.Rows:                      "US",
	tag.Columns:                   "US",
	tag.PixelSpacing:              "DS",
	tag.BitsAllocated:             "US",
	tag.BitsStored:                "US",
	tag.HighBit:                   "US",
	tag.PixelRepresentation:       "US",
	tag.WindowCenter:              "DS",
	tag.WindowWidth:               "DS",
	tag.RescaleIntercept:          "DS",
	tag.RescaleSlope:              "DS",
	tag.InstanceNumber:            "IS",
	tag.SliceLocation:             "DS",
	tag.ImagePositionPatient:      "DS",
	tag.ImageOrientationPatient:   "DS",
	tag.PatientName:               "PN",
	tag.StudyDescription:          "LO",
	tag.SeriesDescription:         "LO",
	tag.PixelData:                 "OW",
}

func implicitVR(t tag.Tag) string {
	if vr, ok := implicitVRs[t]; ok {
		return vr
	}
	return "UN"
}

// trimValue returns a text value without its space or NUL padding
func trimValue(b []byte) string {
	return strings.TrimRight(strings.TrimSpace(string(b)), "\x00 ")
}

// textValues splits a multi-valued text element on backslashes
func textValues(b []byte) []string {
	s := trimValue(b)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\\")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// intValue reads the first value of a numeric element as an int
func intValue(el *element) (int, bool) {
	switch el.VR {
	case "US":
		if len(el.Value) < 2 {
			return 0, false
		}
		return int(binary.LittleEndian.Uint16(el.Value)), true
	case "SS":
		if len(el.Value) < 2 {
			return 0, false
		}
		return int(int16(binary.LittleEndian.Uint16(el.Value))), true
	case "UL":
		if len(el.Value) < 4 {
			return 0, false
		}
		return int(binary.LittleEndian.Uint32(el.Value)), true
	case "SL":
		if len(el.Value) < 4 {
			return 0, false
		}
		return int(int32(binary.LittleEndian.Uint32(el.Value))), true
	case "IS", "DS":
		f, ok := floatValue(el)
		if !ok {
			return 0, false
		}
		return int(math.Round(f)), true
	default:
		return 0, false
	}
}

// floatValues reads the values of a numeric element up to the first one that
// is unparsable or not finite
func floatValues(el *element) []float64 {
	switch el.VR {
	case "FD":
		out := make([]float64, 0, len(el.Value)/8)
		for i := 0; i+8 <= len(el.Value); i += 8 {
			f := math.Float64frombits(binary.LittleEndian.Uint64(el.Value[i:]))
			if !isFinite(f) {
				return out
			}
			out = append(out, f)
		}
		return out
	case "FL":
		out := make([]float64, 0, len(el.Value)/4)
		for i := 0; i+4 <= len(el.Value); i += 4 {
			f := float64(math.Float32frombits(binary.LittleEndian.Uint32(el.Value[i:])))
			if !isFinite(f) {
				return out
			}
			out = append(out, f)
		}
		return out
	case "US", "SS", "UL", "SL":
		if v, ok := intValue(el); ok {
			return []float64{float64(v)}
		}
		return nil
	default:
		var out []float64
		for _, s := range textValues(el.Value) {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil || !isFinite(f) {
				return out
			}
			out = append(out, f)
		}
		return out
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// floatValue reads the first value of a numeric element
func floatValue(el *element) (float64, bool) {
	values := floatValues(el)
	if len(values) == 0 {
		return 0, false
	}
	return values[0], true
}

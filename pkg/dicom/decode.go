package dicom

import (
	"encoding/binary"

	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomview/internal/models"
)

// Decode parses a Part 10 buffer into a DicomImageData.
//
// Required tags (rows, columns, bit depth, pixel data) produce typed errors
// when unusable; optional tags are left nil when absent. The returned pixel
// buffer is a fresh copy, so data may be released or reused afterwards.
func Decode(data []byte) (*models.DicomImageData, error) {
	img := &models.DicomImageData{
		SamplesPerPixel:           1,
		PhotometricInterpretation: models.Monochrome2,
		RescaleSlope:              1,
		RescaleIntercept:          0,
		SourceFormat:              "dicom",
	}
	bitsStored, highBit := -1, -1
	var pixels *element

	_, err := walk(data, func(el *element) error {
		switch el.Tag {
		case tag.Rows:
			img.Height, _ = intValue(el)
		case tag.Columns:
			img.Width, _ = intValue(el)
		case tag.BitsAllocated:
			img.BitsAllocated, _ = intValue(el)
		case tag.BitsStored:
			if v, ok := intValue(el); ok {
				bitsStored = v
			}
		case tag.HighBit:
			if v, ok := intValue(el); ok {
				highBit = v
			}
		case tag.PixelRepresentation:
			img.PixelRepresentation, _ = intValue(el)
		case tag.SamplesPerPixel:
			if v, ok := intValue(el); ok {
				img.SamplesPerPixel = v
			}
		case tag.PhotometricInterpretation:
			if s := trimValue(el.Value); s != "" {
				img.PhotometricInterpretation = s
			}
		case tag.WindowCenter:
			img.WindowCenter = optionalFloat(el)
		case tag.WindowWidth:
			img.WindowWidth = optionalFloat(el)
		case tag.RescaleSlope:
			if v, ok := floatValue(el); ok {
				img.RescaleSlope = v
			}
		case tag.RescaleIntercept:
			if v, ok := floatValue(el); ok {
				img.RescaleIntercept = v
			}
		case tag.InstanceNumber:
			if v, ok := intValue(el); ok {
				img.InstanceNumber = &v
			}
		case tag.SliceLocation:
			img.SliceLocation = optionalFloat(el)
		case tag.ImagePositionPatient:
			if v := floatValues(el); len(v) >= 3 {
				img.ImagePositionPatient = &[3]float64{v[0], v[1], v[2]}
			}
		case tag.ImageOrientationPatient:
			if v := floatValues(el); len(v) >= 6 {
				img.ImageOrientationPatient = &[6]float64{v[0], v[1], v[2], v[3], v[4], v[5]}
			}
		case tag.PixelSpacing:
			if v := floatValues(el); len(v) >= 2 {
				img.PixelSpacing = &[2]float64{v[0], v[1]}
			}
		case tag.PatientName:
			img.PatientName = trimValue(el.Value)
		case tag.StudyDescription:
			img.StudyDescription = trimValue(el.Value)
		case tag.SeriesDescription:
			img.SeriesDescription = trimValue(el.Value)
		case tag.PixelData:
			pixels = el
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if img.Width <= 0 || img.Height <= 0 {
		return nil, models.NewDecodeError(models.KindMissingDimensions,
			"rows=%d columns=%d", img.Height, img.Width)
	}
	if pixels == nil {
		return nil, models.NewDecodeError(models.KindNoPixelData, "pixel data element (7FE0,0010) not found")
	}

	if bitsStored < 0 {
		bitsStored = img.BitsAllocated
	}
	if highBit < 0 {
		highBit = bitsStored - 1
	}
	img.BitsStored = bitsStored
	img.HighBit = highBit

	samples, err := readSamples(pixels.Value, img.Width*img.Height, img.BitsAllocated, img.PixelRepresentation)
	if err != nil {
		return nil, err
	}
	img.PixelData = samples
	return img, nil
}

func optionalFloat(el *element) *float64 {
	if v, ok := floatValue(el); ok {
		return &v
	}
	return nil
}

// readSamples copies count samples out of raw, choosing the sample type from
// the bit depth and pixel representation. Only bytes inside the element are read.
func readSamples(raw []byte, count, bitsAllocated, pixelRepresentation int) (models.Samples, error) {
	switch bitsAllocated {
	case 8:
		if len(raw) < count {
			return nil, models.NewDecodeError(models.KindMalformed,
				"pixel data holds %d bytes, need %d", len(raw), count)
		}
		out := make(models.U8Samples, count)
		copy(out, raw[:count])
		return out, nil

	case 16:
		if len(raw) < count*2 {
			return nil, models.NewDecodeError(models.KindMalformed,
				"pixel data holds %d bytes, need %d", len(raw), count*2)
		}
		if pixelRepresentation == 1 {
			out := make(models.I16Samples, count)
			for i := range out {
				out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
			}
			return out, nil
		}
		out := make(models.U16Samples, count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(raw[i*2:])
		}
		return out, nil

	default:
		return nil, models.NewDecodeError(models.KindUnsupportedBitDepth,
			"bits allocated %d, want 8 or 16", bitsAllocated)
	}
}

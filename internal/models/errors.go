package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a buffer could not be turned into a DicomImageData
type ErrorKind int

const (
	// KindMissingDimensions means rows or columns are absent or zero
	KindMissingDimensions ErrorKind = iota + 1

	// KindNoPixelData means the container holds no pixel data element
	KindNoPixelData

	// KindUnsupportedBitDepth means bits allocated is neither 8 nor 16
	KindUnsupportedBitDepth

	// KindInvalidImage means a non-DICOM buffer could not be decoded as a raster image
	KindInvalidImage

	// KindMalformed means the container is truncated or structurally broken
	KindMalformed

	// KindUnsupportedTransferSyntax means big endian, deflated or encapsulated data
	KindUnsupportedTransferSyntax
)

// Sentinel errors, one per kind, for use with errors.Is
var (
	ErrMissingDimensions         = errors.New("decode: missing dimensions")
	ErrNoPixelData               = errors.New("decode: no pixel data")
	ErrUnsupportedBitDepth       = errors.New("decode: unsupported bit depth")
	ErrInvalidImage              = errors.New("decode: invalid image")
	ErrMalformed                 = errors.New("decode: malformed container")
	ErrUnsupportedTransferSyntax = errors.New("decode: unsupported transfer syntax")
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingDimensions:
		return "missing-dimensions"
	case KindNoPixelData:
		return "no-pixel-data"
	case KindUnsupportedBitDepth:
		return "unsupported-bit-depth"
	case KindInvalidImage:
		return "invalid-image"
	case KindMalformed:
		return "malformed"
	case KindUnsupportedTransferSyntax:
		return "unsupported-transfer-syntax"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingDimensions:
		return ErrMissingDimensions
	case KindNoPixelData:
		return ErrNoPixelData
	case KindUnsupportedBitDepth:
		return ErrUnsupportedBitDepth
	case KindInvalidImage:
		return ErrInvalidImage
	case KindMalformed:
		return ErrMalformed
	case KindUnsupportedTransferSyntax:
		return ErrUnsupportedTransferSyntax
	default:
		return nil
	}
}

// DecodeError is the typed failure returned by every decoder. None of the
// kinds are retryable: the same bytes always produce the same error.
type DecodeError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode failed (%s): %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("decode failed (%s): %s", e.Kind, e.Msg)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the same kind
func (e *DecodeError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewDecodeError creates a new decode error
func NewDecodeError(kind ErrorKind, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// WrapDecodeError creates a decode error around an underlying cause
func WrapDecodeError(kind ErrorKind, err error, msg string) *DecodeError {
	return &DecodeError{
		Kind: kind,
		Msg:  msg,
		Err:  err,
	}
}

// KindOf returns the kind of the first DecodeError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

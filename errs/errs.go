// Package errs defines the error values returned by the fastcodec packages.
//
// FAST specification errors are reported with their lettered code (D2, D4..D9,
// R1, S2..S5). Each of them has a sentinel (ErrD4, ErrD5, ...) that can be
// matched with errors.Is, and is returned wrapped in an *Error carrying the
// structured context of the failure: the field, the dictionary key, the
// template id or the offending length.
//
// Non-coded conditions (archive headers, checksums, misuse of the value tree)
// are plain sentinels.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies the kind of a codec failure.
type Code uint8

const (
	CodeUnknown Code = iota
	CodeD2           // integer in the stream does not fit the field's integer type
	CodeD4           // dictionary key shared by fields of different types
	CodeD5           // mandatory copy/increment field, undefined previous value, no initial value
	CodeD6           // mandatory field with an empty previous value
	CodeD7           // subtraction length larger than the base value, or mandatory tail with empty previous
	CodeD8           // static template reference target not found
	CodeD9           // unknown template id
	CodeR1           // decimal exponent out of range
	CodeS2           // operator not applicable to the field type
	CodeS3           // initial value not representable in the field type
	CodeS4           // constant operator without initial value
	CodeS5           // mandatory default operator without initial value
	CodeBufferUnderflow
	CodeBufferOverflow
	CodeMissingValue // mandatory field absent while encoding
	CodeUnencodable  // value cannot be expressed with the field's operator
)

func (c Code) String() string {
	switch c {
	case CodeD2:
		return "D2"
	case CodeD4:
		return "D4"
	case CodeD5:
		return "D5"
	case CodeD6:
		return "D6"
	case CodeD7:
		return "D7"
	case CodeD8:
		return "D8"
	case CodeD9:
		return "D9"
	case CodeR1:
		return "R1"
	case CodeS2:
		return "S2"
	case CodeS3:
		return "S3"
	case CodeS4:
		return "S4"
	case CodeS5:
		return "S5"
	case CodeBufferUnderflow:
		return "BufferUnderflow"
	case CodeBufferOverflow:
		return "BufferOverflow"
	case CodeMissingValue:
		return "MissingValue"
	case CodeUnencodable:
		return "Unencodable"
	default:
		return "Unknown"
	}
}

// FAST specification errors.
var (
	ErrD2 = errors.New("fast [D2]: integer out of range for field type")
	ErrD4 = errors.New("fast [D4]: dictionary key type mismatch")
	ErrD5 = errors.New("fast [D5]: mandatory field has no previous value and no initial value")
	ErrD6 = errors.New("fast [D6]: mandatory field has an empty previous value")
	ErrD7 = errors.New("fast [D7]: subtraction length exceeds base value length")
	ErrD8 = errors.New("fast [D8]: static template reference not found")
	ErrD9 = errors.New("fast [D9]: unknown template id")
	ErrR1 = errors.New("fast [R1]: decimal exponent out of range")
	ErrS2 = errors.New("fast [S2]: operator not applicable to field type")
	ErrS3 = errors.New("fast [S3]: initial value not representable in field type")
	ErrS4 = errors.New("fast [S4]: constant operator requires an initial value")
	ErrS5 = errors.New("fast [S5]: mandatory default operator requires an initial value")

	ErrBufferUnderflow = errors.New("fast: buffer underflow")
	ErrBufferOverflow  = errors.New("fast: buffer overflow")
	ErrMissingValue    = errors.New("fast: mandatory field is absent")
	ErrUnencodable     = errors.New("fast: value cannot be encoded with field operator")
)

// Schema, value tree and stream errors.
var (
	ErrDuplicateTemplateID = errors.New("duplicate template id")
	ErrInvalidTemplate     = errors.New("invalid template description")
	ErrTypeMismatch        = errors.New("field accessed with a type different from its declared type")
	ErrFieldNotFound       = errors.New("field not found")
	ErrTokenPoolClosed     = errors.New("token pool closed")
	ErrInvalidFrame        = errors.New("invalid frame")
)

// Archive errors.
var (
	ErrInvalidHeaderSize   = errors.New("invalid header size")
	ErrInvalidHeaderFlags  = errors.New("invalid header flags")
	ErrInvalidMagicNumber  = errors.New("invalid magic number")
	ErrInvalidPayloadSize  = errors.New("invalid payload size")
	ErrChecksumMismatch    = errors.New("payload checksum mismatch")
	ErrMessageCountInvalid = errors.New("archived message count mismatch")
	ErrArchiveFinished     = errors.New("archive already finished")
)

var sentinels = map[Code]error{
	CodeD2:              ErrD2,
	CodeD4:              ErrD4,
	CodeD5:              ErrD5,
	CodeD6:              ErrD6,
	CodeD7:              ErrD7,
	CodeD8:              ErrD8,
	CodeD9:              ErrD9,
	CodeR1:              ErrR1,
	CodeS2:              ErrS2,
	CodeS3:              ErrS3,
	CodeS4:              ErrS4,
	CodeS5:              ErrS5,
	CodeBufferUnderflow: ErrBufferUnderflow,
	CodeBufferOverflow:  ErrBufferOverflow,
	CodeMissingValue:    ErrMissingValue,
	CodeUnencodable:     ErrUnencodable,
}

// Error is a coded codec failure with its structured context.
//
// Only the fields relevant to the failure are set. An Error unwraps to the
// sentinel of its code, so errors.Is(err, errs.ErrD5) holds for an Error with
// CodeD5.
type Error struct {
	Code       Code
	Field      string // field name, if the failure is tied to a field
	Key        string // qualified dictionary key (D4)
	TemplateID uint32 // template id (D8, D9)
	Length     int    // offending length (D7) or byte offset (buffer errors)
	Detail     string
}

// New returns an *Error for code annotated with detail.
func New(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Newf returns an *Error for code with a formatted detail.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	var sb strings.Builder
	if s, ok := sentinels[e.Code]; ok {
		sb.WriteString(s.Error())
	} else {
		sb.WriteString("fast: unknown error")
	}

	if e.Field != "" {
		fmt.Fprintf(&sb, ": field %q", e.Field)
	}
	if e.Key != "" {
		fmt.Fprintf(&sb, ": key %q", e.Key)
	}
	switch e.Code { //nolint:exhaustive
	case CodeD8, CodeD9:
		fmt.Fprintf(&sb, ": template %d", e.TemplateID)
	case CodeD7:
		fmt.Fprintf(&sb, ": length %d", e.Length)
	case CodeBufferUnderflow, CodeBufferOverflow:
		fmt.Fprintf(&sb, ": offset %d", e.Length)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}

	return sb.String()
}

// Unwrap returns the sentinel error of the code.
func (e *Error) Unwrap() error {
	return sentinels[e.Code]
}

// WithField returns e with its field name set.
func (e *Error) WithField(name string) *Error {
	e.Field = name
	return e
}

// CodeOf returns the Code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	for code, s := range sentinels {
		if errors.Is(err, s) {
			return code
		}
	}

	return CodeUnknown
}

// Wrap adds context to the error and allows unwrapping the result to recover
// the original error. It is used at public entrypoints:
//
//	defer errs.Wrap(&err, "Decode(template %d)", id)
//
// If *errp is nil, Wrap does nothing.
func Wrap(errp *error, format string, args ...any) {
	if *errp != nil {
		*errp = fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), *errp)
	}
}

package format

type (
	Operator        uint8
	Presence        uint8
	FieldType       uint8
	DictionaryScope uint8
	CompressionType uint8
)

const (
	OperatorNone      Operator = 0x0 // OperatorNone transfers the value on every message.
	OperatorConstant  Operator = 0x1 // OperatorConstant never transfers the value.
	OperatorDelta     Operator = 0x2 // OperatorDelta transfers the difference to the base value.
	OperatorDefault   Operator = 0x3 // OperatorDefault transfers the value unless it equals the initial value.
	OperatorCopy      Operator = 0x4 // OperatorCopy transfers the value unless it equals the previous value.
	OperatorIncrement Operator = 0x5 // OperatorIncrement transfers the value unless it is the previous value plus one.
	OperatorTail      Operator = 0x6 // OperatorTail transfers the changed tail of the base value.

	Mandatory Presence = 0x0 // Mandatory fields are always present.
	Optional  Presence = 0x1 // Optional fields may be absent (null).

	TypeInt32          FieldType = 0x1
	TypeUInt32         FieldType = 0x2
	TypeInt64          FieldType = 0x3
	TypeUInt64         FieldType = 0x4
	TypeDecimal        FieldType = 0x5
	TypeASCII          FieldType = 0x6
	TypeUnicode        FieldType = 0x7
	TypeByteVector     FieldType = 0x8
	TypeGroup          FieldType = 0x9
	TypeSequence       FieldType = 0xA
	TypeStaticRef      FieldType = 0xB // TypeStaticRef inlines a named template.
	TypeDynamicRef     FieldType = 0xC // TypeDynamicRef selects the template from the stream.
	TypeDecimalPartial FieldType = 0xD // TypeDecimalPartial is a decimal with individual exponent and mantissa operators.

	ScopeGlobal   DictionaryScope = 0x0 // ScopeGlobal is shared by every template.
	ScopeTemplate DictionaryScope = 0x1 // ScopeTemplate is private to the enclosing template.
	ScopeType     DictionaryScope = 0x2 // ScopeType is private to the application type (typeRef).
	ScopeCustom   DictionaryScope = 0x3 // ScopeCustom is a user named dictionary.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (o Operator) String() string {
	switch o {
	case OperatorNone:
		return "none"
	case OperatorConstant:
		return "constant"
	case OperatorDelta:
		return "delta"
	case OperatorDefault:
		return "default"
	case OperatorCopy:
		return "copy"
	case OperatorIncrement:
		return "increment"
	case OperatorTail:
		return "tail"
	default:
		return "unknown"
	}
}

// NeedsPresenceBit reports whether a field with operator o and presence p
// occupies a bit in the presence map.
func (o Operator) NeedsPresenceBit(p Presence) bool {
	switch o {
	case OperatorNone, OperatorDelta:
		return false
	case OperatorConstant:
		return p == Optional
	default:
		return true
	}
}

// UsesDictionary reports whether the operator keeps a previous value.
func (o Operator) UsesDictionary() bool {
	switch o {
	case OperatorCopy, OperatorIncrement, OperatorDelta, OperatorTail, OperatorDefault:
		return true
	default:
		return false
	}
}

func (p Presence) String() string {
	if p == Optional {
		return "optional"
	}

	return "mandatory"
}

func (t FieldType) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeUInt32:
		return "uInt32"
	case TypeInt64:
		return "int64"
	case TypeUInt64:
		return "uInt64"
	case TypeDecimal:
		return "decimal"
	case TypeDecimalPartial:
		return "decimal(partial)"
	case TypeASCII:
		return "string(ascii)"
	case TypeUnicode:
		return "string(unicode)"
	case TypeByteVector:
		return "byteVector"
	case TypeGroup:
		return "group"
	case TypeSequence:
		return "sequence"
	case TypeStaticRef:
		return "templateRef(static)"
	case TypeDynamicRef:
		return "templateRef(dynamic)"
	default:
		return "unknown"
	}
}

// IsInteger reports whether t is one of the four integer types.
func (t FieldType) IsInteger() bool {
	return t >= TypeInt32 && t <= TypeUInt64
}

// IsSigned reports whether t is a signed integer type.
func (t FieldType) IsSigned() bool {
	return t == TypeInt32 || t == TypeInt64
}

// IsArray reports whether t is stored as a byte array (strings and byte vectors).
func (t FieldType) IsArray() bool {
	return t == TypeASCII || t == TypeUnicode || t == TypeByteVector
}

// IsDecimal reports whether t is a decimal, with a single or individual operators.
func (t FieldType) IsDecimal() bool {
	return t == TypeDecimal || t == TypeDecimalPartial
}

func (s DictionaryScope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeTemplate:
		return "template"
	case ScopeType:
		return "type"
	case ScopeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseDictionaryScope maps a dictionary attribute value to its scope.
// Any name other than "global", "template" or "type" is a custom dictionary.
func ParseDictionaryScope(name string) DictionaryScope {
	switch name {
	case "", "global":
		return ScopeGlobal
	case "template":
		return ScopeTemplate
	case "type":
		return ScopeType
	default:
		return ScopeCustom
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

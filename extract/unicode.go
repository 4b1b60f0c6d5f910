package extract

import (
	"unicode/utf16"
	"unicode/utf8"
)

// UnicodeDecoder turns the code units of \uXXXX escapes into bytes.
//
// Implementations may be stateful (e.g. to join surrogate pairs) and are owned
// by a single Extractor; do not share one instance between extractors.
type UnicodeDecoder interface {
	// DecodeUnit appends the decoded form of one escaped UTF-16 code unit to dst.
	// unit is utf8.RuneError when the escape was malformed.
	DecodeUnit(dst []byte, unit rune) []byte

	// Flush appends anything still held back, e.g. an unpaired high surrogate.
	// It is called before any other byte is appended and when the string closes.
	Flush(dst []byte) []byte

	// Reset discards held state. It is called whenever a new string starts.
	Reset()
}

// DefaultPlaceholder is the byte the default decoder emits for each \u escape.
const DefaultPlaceholder = '?'

type placeholderDecoder struct {
	placeholder byte
}

var _ UnicodeDecoder = (*placeholderDecoder)(nil)

// NewPlaceholderDecoder returns a decoder that replaces every \uXXXX escape,
// valid or not, with the single byte b. The code point is discarded.
func NewPlaceholderDecoder(b byte) UnicodeDecoder {
	return &placeholderDecoder{placeholder: b}
}

func (d *placeholderDecoder) DecodeUnit(dst []byte, _ rune) []byte {
	return append(dst, d.placeholder)
}

func (d *placeholderDecoder) Flush(dst []byte) []byte { return dst }

func (d *placeholderDecoder) Reset() {}

type utf16Decoder struct {
	high    rune
	pending bool
}

var _ UnicodeDecoder = (*utf16Decoder)(nil)

// NewUTF16Decoder returns a decoder that emits UTF-8 for each escaped code unit,
// joining surrogate pairs that arrive as consecutive escapes. Unpaired surrogates
// and malformed escapes become U+FFFD.
func NewUTF16Decoder() UnicodeDecoder {
	return &utf16Decoder{}
}

func (d *utf16Decoder) DecodeUnit(dst []byte, unit rune) []byte {
	if d.pending {
		d.pending = false
		if isLowSurrogate(unit) {
			return utf8.AppendRune(dst, utf16.DecodeRune(d.high, unit))
		}
		dst = utf8.AppendRune(dst, utf8.RuneError)
	}

	switch {
	case isHighSurrogate(unit):
		d.high = unit
		d.pending = true
		return dst
	case isLowSurrogate(unit):
		return utf8.AppendRune(dst, utf8.RuneError)
	default:
		return utf8.AppendRune(dst, unit)
	}
}

func (d *utf16Decoder) Flush(dst []byte) []byte {
	if !d.pending {
		return dst
	}
	d.pending = false

	return utf8.AppendRune(dst, utf8.RuneError)
}

func (d *utf16Decoder) Reset() {
	d.high = 0
	d.pending = false
}

func isHighSurrogate(r rune) bool { return r >= 0xD800 && r < 0xDC00 }

func isLowSurrogate(r rune) bool { return r >= 0xDC00 && r < 0xE000 }

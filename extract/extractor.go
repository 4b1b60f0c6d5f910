package extract

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/arloliu/kouka/errs"
	"github.com/arloliu/kouka/internal/options"
)

// Default accumulator capacities, in decoded bytes.
const (
	DefaultKeyCapacity   = 1024
	DefaultValueCapacity = 4096
)

// Sink receives each completed value together with the handle registered via
// WithHandle. value is only valid until the sink returns.
type Sink func(value []byte, handle any)

// Stats reports counters accumulated since construction or the last Reset.
type Stats struct {
	BytesFed         int64 // bytes passed to Feed
	Emitted          int64 // sink invocations
	TruncatedValues  int64 // emitted values that exceeded the value capacity
	TruncatedKeys    int64 // keys that exceeded the key capacity
	MalformedEscapes int64 // escapes replaced because they could not be decoded
}

// Extractor scans concatenated JSON objects and reports the string value of one
// top-level key. See the package documentation for the recognition rules.
type Extractor struct {
	target  []byte
	sink    Sink
	handle  any
	unicode UnicodeDecoder

	keyCap   int
	valueCap int

	braceDepth   int
	bracketDepth int

	inString      bool
	escapePending bool
	hexRemaining  int  // digits still expected by a \u escape
	hexUnit       rune // code unit assembled so far

	expectKey    bool // next top-level string is a key
	parsingKey   bool
	valueArmed   bool // target key and ':' seen; next top-level string is the value
	parsingValue bool
	keyMatched   bool

	key           []byte
	keyOverflow   bool
	value         []byte
	valueOverflow bool
	scratch       []byte

	stats Stats
}

// New creates an Extractor that reports the value of targetKey to sink.
//
// Parameters:
//   - targetKey: Decoded field name to extract; must be non-empty and fit the key capacity
//   - sink: Callback invoked once per completed value
//   - opts: Optional configuration (WithHandle, WithKeyCapacity, WithValueCapacity, WithUnicodeDecoder)
//
// Returns:
//   - *Extractor: The ready-to-feed extractor
//   - error: Invalid target key, nil sink, or invalid option
func New(targetKey string, sink Sink, opts ...Option) (*Extractor, error) {
	if targetKey == "" {
		return nil, errs.ErrEmptyTargetKey
	}
	if sink == nil {
		return nil, errs.ErrNilSink
	}

	e := &Extractor{
		target:   []byte(targetKey),
		sink:     sink,
		keyCap:   DefaultKeyCapacity,
		valueCap: DefaultValueCapacity,
	}
	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}

	if len(e.target) > e.keyCap {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d", errs.ErrTargetKeyTooLong, len(e.target), e.keyCap)
	}
	if e.unicode == nil {
		e.unicode = NewPlaceholderDecoder(DefaultPlaceholder)
	}

	e.key = make([]byte, 0, e.keyCap)
	e.value = make([]byte, 0, e.valueCap)
	e.scratch = make([]byte, 0, 2*utf8.UTFMax)

	return e, nil
}

// TargetKey returns the field name this extractor reports.
func (e *Extractor) TargetKey() string {
	return string(e.target)
}

// Stats returns the counters accumulated so far.
func (e *Extractor) Stats() Stats {
	return e.stats
}

// Feed scans p, continuing from the state left by previous calls. The sink may
// be invoked any number of times before Feed returns.
func (e *Extractor) Feed(p []byte) {
	e.stats.BytesFed += int64(len(p))
	for _, c := range p {
		e.step(c)
	}
}

// Write implements io.Writer on top of Feed. It never fails.
func (e *Extractor) Write(p []byte) (int, error) {
	e.Feed(p)
	return len(p), nil
}

// Reset returns the extractor to its initial scan state, ready for a new
// stream. The target key, sink, handle and options are kept; stats are cleared.
func (e *Extractor) Reset() {
	e.braceDepth = 0
	e.bracketDepth = 0
	e.inString = false
	e.escapePending = false
	e.hexRemaining = 0
	e.hexUnit = 0
	e.resetObject()
	e.key = e.key[:0]
	e.keyOverflow = false
	e.value = e.value[:0]
	e.valueOverflow = false
	e.unicode.Reset()
	e.stats = Stats{}
}

func (e *Extractor) step(c byte) {
	switch {
	case e.hexRemaining > 0:
		if v, ok := hexValue(c); ok {
			e.hexUnit = e.hexUnit<<4 | v
			e.hexRemaining--
			if e.hexRemaining == 0 {
				e.appendUnit(e.hexUnit)
			}
			return
		}
		// Abandon the escape and treat c as ordinary string content, so a
		// closing quote inside a broken escape still ends the string.
		e.hexRemaining = 0
		e.stats.MalformedEscapes++
		e.appendUnit(utf8.RuneError)
		e.stringByte(c)
	case e.escapePending:
		e.escapePending = false
		e.escape(c)
	case e.inString:
		e.stringByte(c)
	default:
		e.structural(c)
	}
}

func (e *Extractor) escape(c byte) {
	switch c {
	case '"', '\\', '/':
		e.appendByte(c)
	case 'b':
		e.appendByte('\b')
	case 'f':
		e.appendByte('\f')
	case 'n':
		e.appendByte('\n')
	case 'r':
		e.appendByte('\r')
	case 't':
		e.appendByte('\t')
	case 'u':
		e.hexRemaining = 4
		e.hexUnit = 0
	default:
		e.stats.MalformedEscapes++
		e.appendUnit(utf8.RuneError)
	}
}

func (e *Extractor) stringByte(c byte) {
	switch c {
	case '\\':
		e.escapePending = true
	case '"':
		e.closeString()
	default:
		e.appendByte(c)
	}
}

func (e *Extractor) closeString() {
	e.inString = false

	switch {
	case e.parsingKey:
		e.flushUnicode()
		e.parsingKey = false
		if e.keyOverflow {
			e.stats.TruncatedKeys++
		}
		e.keyMatched = !e.keyOverflow && bytes.Equal(e.key, e.target)
	case e.parsingValue:
		e.flushUnicode()
		e.parsingValue = false
		e.keyMatched = false
		if e.valueOverflow {
			e.stats.TruncatedValues++
		}
		e.stats.Emitted++
		e.sink(e.value, e.handle)
	}
}

func (e *Extractor) structural(c byte) {
	topLevel := e.braceDepth == 1 && e.bracketDepth == 0

	switch c {
	case '"':
		e.inString = true
		if !topLevel {
			return
		}
		switch {
		case e.valueArmed:
			e.valueArmed = false
			e.parsingValue = true
			e.value = e.value[:0]
			e.valueOverflow = false
			e.unicode.Reset()
		case e.expectKey:
			e.parsingKey = true
			e.keyMatched = false
			e.key = e.key[:0]
			e.keyOverflow = false
			e.unicode.Reset()
		}
	case '{':
		e.braceDepth++
		if e.braceDepth == 1 {
			e.resetObject()
			e.expectKey = true
		} else {
			e.valueArmed = false
		}
	case '}':
		if e.braceDepth > 0 {
			e.braceDepth--
		}
		if e.braceDepth == 0 {
			e.resetObject()
		}
	case '[':
		e.bracketDepth++
		e.valueArmed = false
	case ']':
		if e.bracketDepth > 0 {
			e.bracketDepth--
		}
	case ':':
		if topLevel {
			e.expectKey = false
			if e.keyMatched {
				e.valueArmed = true
				e.value = e.value[:0]
			}
		}
	case ',':
		if topLevel {
			e.expectKey = true
			e.valueArmed = false
			e.keyMatched = false
		}
	}
}

func (e *Extractor) resetObject() {
	e.expectKey = false
	e.parsingKey = false
	e.valueArmed = false
	e.parsingValue = false
	e.keyMatched = false
}

func (e *Extractor) appendByte(c byte) {
	if !e.parsingKey && !e.parsingValue {
		return
	}
	e.flushUnicode()
	e.scratch = append(e.scratch[:0], c)
	e.appendActive(e.scratch)
}

func (e *Extractor) appendUnit(unit rune) {
	if !e.parsingKey && !e.parsingValue {
		return
	}
	e.scratch = e.unicode.DecodeUnit(e.scratch[:0], unit)
	e.appendActive(e.scratch)
}

func (e *Extractor) flushUnicode() {
	e.scratch = e.unicode.Flush(e.scratch[:0])
	if len(e.scratch) > 0 {
		e.appendActive(e.scratch)
	}
}

func (e *Extractor) appendActive(b []byte) {
	if e.parsingKey {
		e.key, e.keyOverflow = appendBounded(e.key, e.keyCap, b, e.keyOverflow)
	} else if e.parsingValue {
		e.value, e.valueOverflow = appendBounded(e.value, e.valueCap, b, e.valueOverflow)
	}
}

// appendBounded appends b to dst without letting dst exceed limit bytes.
// overflow stays set once any byte has been dropped.
func appendBounded(dst []byte, limit int, b []byte, overflow bool) ([]byte, bool) {
	room := limit - len(dst)
	if len(b) > room {
		b = b[:room]
		overflow = true
	}

	return append(dst, b...), overflow
}

func hexValue(c byte) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0'), true
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return rune(c-'A') + 10, true
	default:
		return 0, false
	}
}

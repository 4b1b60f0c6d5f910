// Package extract implements an incremental extractor for one named string field
// of a stream of concatenated JSON objects.
//
// The Extractor is a byte-at-a-time state machine. It never builds a parse tree
// and never needs to see a token, escape sequence or object boundary in one piece:
// all progress lives in the extractor's flags and two bounded accumulators, so a
// stream may be fed in chunks of any size, including one byte at a time.
//
// # Recognition Rules
//
// Only top-level fields are considered, i.e. keys found directly inside an object
// at brace depth 1 while no array is open. Everything nested below that level is
// skipped without being modelled. When brace depth returns to 0 the object is
// complete and the extractor is ready for the next one, so objects may follow each
// other with no array wrapper and no separator:
//
//	{"response":"Hel","done":false}{"response":"lo","done":false}
//
// Extracting "response" from the stream above emits "Hel" and then "lo".
// A stream wrapped in a top-level array emits nothing, because its objects are
// never at bracket depth 0.
//
// # Values and Truncation
//
// Only string values are reported. Escape sequences are decoded while scanning.
// Keys and values are accumulated into fixed-capacity buffers
// (DefaultKeyCapacity and DefaultValueCapacity unless configured); bytes beyond the
// capacity are dropped and the value is emitted truncated. Truncation is lossy but
// never unsafe, and it is counted in Stats. A key that did not fit never matches.
//
// # Unicode Escapes
//
// \uXXXX escapes are handed to a UnicodeDecoder. The default decoder replaces each
// escape with a single '?' byte and does not attempt UTF-16 decoding; this is a
// known limitation of the default, kept for compatibility. NewUTF16Decoder performs
// full decoding including surrogate pairs:
//
//	ext, err := extract.New("response", sink,
//	    extract.WithUnicodeDecoder(extract.NewUTF16Decoder()),
//	)
//
// # Sinks
//
// The sink receives each decoded value and the opaque handle registered with
// WithHandle. The value slice aliases the extractor's buffer and is only valid for
// the duration of the call; copy it to retain it.
//
// # Concurrency
//
// An Extractor is not safe for concurrent use, and a sink must not call Feed on the
// extractor that invoked it. Use one Extractor per logical stream.
package extract

// Package stream accumulates byte chunks from a transport and hands each byte,
// exactly once and in arrival order, to a Feeder such as extract.Extractor.
//
// # Overview
//
// The Accumulator sits between a receive loop and a parse state machine:
//
//	ext, _ := extract.New("response", sink)
//	acc, _ := stream.New(ext)
//	defer acc.Close()
//
//	for chunk := range chunks {
//	    if err := acc.Append(chunk); err != nil {
//	        return err // errs.ErrAllocation
//	    }
//	}
//
// Chunk boundaries carry no meaning. Appending "ab" then "c" feeds exactly the
// same bytes as appending "abc" once.
//
// # Memory
//
// The buffer grows by doubling from the initial size. Bytes that were already fed
// are compacted away, so memory is bounded by the largest in-flight chunk rather
// than by the stream length. WithRetainConsumed keeps the whole stream instead,
// which makes Bytes return everything appended so far.
//
// WithMaxSize bounds growth. When a chunk does not fit, Append returns an error
// wrapping errs.ErrAllocation and the accumulator refuses further input
// (errs.ErrAccumulatorBroken) until Reset.
//
// # Concurrency
//
// An Accumulator is not safe for concurrent use. The feeder's callbacks run
// synchronously inside Append and must not call back into the same accumulator.
package stream

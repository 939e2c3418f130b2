// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
// Each line is one chunk; a chunk with done=true terminates the stream.
type StreamReader struct {
	reader *bufio.Reader
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator  strings.Builder
	chunkTimeout time.Duration
	chunkCount   int
}

// NewStreamReader creates a stream reader with the given per-chunk silence
// budget. A chunkTimeout of zero disables the inactivity check.
func NewStreamReader(r io.Reader, chunkTimeout time.Duration) *StreamReader {
	return &StreamReader{
		reader:       bufio.NewReader(r),
		chunkTimeout: chunkTimeout,
	}
}

// readResult carries one parsed line from the reader goroutine.
type readResult struct {
	chunk *StreamChunk
	err   error
}

// Process reads the stream and calls the callback for each chunk.
// Blocks until the stream completes, the context is cancelled, or the
// service stays silent longer than the chunk timeout.
func (s *StreamReader) Process(ctx context.Context, callback ChunkFunc) error {
	// The blocking reads run in their own goroutine so silence can be
	// bounded; bufio.Reader has no deadline of its own.
	results := make(chan readResult)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(results)
		for {
			chunk, err := s.readChunk()
			select {
			case results <- readResult{chunk: chunk, err: err}:
			case <-quit:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var timeout <-chan time.Time
	var timer *time.Timer
	if s.chunkTimeout > 0 {
		timer = time.NewTimer(s.chunkTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ErrTimeout
		case <-timeout:
			return &ClientError{Type: ErrTypeTimeout, Message: "stream went silent"}
		case res := <-results:
			if res.err != nil {
				if res.err == io.EOF {
					return nil
				}
				return &ClientError{Type: ErrTypeInvalidResponse, Message: "stream read failed", Cause: res.err}
			}

			if timer != nil {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(s.chunkTimeout)
			}

			if res.chunk == nil {
				continue
			}
			if res.chunk.Error != nil {
				return res.chunk.Error
			}
			callback(*res.chunk)
			if res.chunk.Done {
				return nil
			}
		}
	}
}

// readChunk reads and parses a single line from the stream.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		// Try to process the last line even on EOF
		if len(line) == 0 {
			return nil, err
		}
	}

	// Skip empty lines
	if len(strings.TrimSpace(string(line))) == 0 {
		return nil, nil
	}

	var parsed streamLine
	if err := json.Unmarshal(line, &parsed); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	// A mid-stream error line aborts the reply
	if parsed.Error != "" {
		msg := parsed.Error
		if parsed.Details != "" {
			msg += ": " + parsed.Details
		}
		return &StreamChunk{Error: &ClientError{Type: ErrTypeService, Message: msg}, Done: true}, nil
	}

	if parsed.Content != "" {
		s.accumulator.WriteString(parsed.Content)
		s.chunkCount++
	}

	return &StreamChunk{Content: parsed.Content, Done: parsed.Done}, nil
}

// Accumulated returns all content received so far.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}

// ChunkCount returns the number of non-empty increments received.
func (s *StreamReader) ChunkCount() int {
	return s.chunkCount
}

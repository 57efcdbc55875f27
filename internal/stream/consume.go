package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// DefaultChunkSize is the read size used when none is configured
const DefaultChunkSize = 4096

// Sink receives fragments in arrival order. It runs on the reading
// goroutine, before the next read is issued.
type Sink func(Event)

// Result summarizes a consumed stream
type Result struct {
	Fragments int
	Sentinels int
	Bytes     int64
	// Dropped holds text after the last newline that was discarded at end
	// of stream. Empty when the stream ended on a line boundary or when
	// partial flushing is enabled.
	Dropped string
}

// Option configures Consume
type Option func(*consumeConfig)

type consumeConfig struct {
	chunkSize    int
	flushPartial bool
}

// WithChunkSize sets the size of each read from the body
func WithChunkSize(n int) Option {
	return func(c *consumeConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithFlushPartial makes Consume treat an unterminated final line as a
// complete record instead of dropping it.
func WithFlushPartial(enabled bool) Option {
	return func(c *consumeConfig) {
		c.flushPartial = enabled
	}
}

// Consume reads body until it is exhausted, delivering every data payload to
// sink as soon as its line is complete. A read error other than io.EOF stops
// the loop and is returned; fragments already delivered are not retracted.
func Consume(ctx context.Context, body io.Reader, sink Sink, opts ...Option) (Result, error) {
	cfg := consumeConfig{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		res     Result
		decoder = NewDecoder()
		framer  Framer
		buf     = make([]byte, cfg.chunkSize)
	)

	handle := func(line string) {
		kind, payload := ClassifyLine(line)
		switch kind {
		case RecordData:
			res.Fragments++
			if sink != nil {
				sink(Event{Seq: res.Fragments, Text: payload})
			}
		case RecordDone:
			res.Sentinels++
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		n, err := body.Read(buf)
		if n > 0 {
			res.Bytes += int64(n)
			for _, line := range framer.Push(decoder.Decode(buf[:n])) {
				handle(line)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Debug("stream_read_error", "error", err, "fragments", res.Fragments)
			return res, err
		}
	}

	for _, line := range framer.Push(decoder.Flush()) {
		handle(line)
	}

	if tail := framer.Remainder(); tail != "" {
		if cfg.flushPartial {
			handle(tail)
		} else {
			res.Dropped = tail
			slog.Warn("stream_partial_line_dropped", "bytes", len(tail))
		}
		framer.Reset()
	}

	slog.Debug("stream_complete",
		"fragments", res.Fragments,
		"sentinels", res.Sentinels,
		"bytes", res.Bytes,
	)
	return res, nil
}

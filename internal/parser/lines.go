package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const chunkSize = 32 * 1024

// Lines splits the content of r into trimmed lines, sent in order on the
// returned channel. A line split across reads is buffered until its
// newline arrives; the remainder is flushed at EOF.
//
// The error channel receives exactly one value once the line channel is
// closed: nil, the read error, or the context error.
func Lines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(lines)
		errc <- splitLines(ctx, r, lines)
	}()

	return lines, errc
}

func splitLines(ctx context.Context, r io.Reader, out chan<- string) error {
	send := func(line string) error {
		select {
		case out <- strings.TrimSpace(line):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	buf := make([]byte, chunkSize)
	var pending bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		chunk := buf[:n]
		for {
			i := bytes.IndexByte(chunk, '\n')
			if i < 0 {
				break
			}
			pending.Write(chunk[:i])
			chunk = chunk[i+1:]
			line := pending.String()
			pending.Reset()
			if err := send(line); err != nil {
				return err
			}
		}
		pending.Write(chunk)

		if errors.Is(readErr, io.EOF) {
			if pending.Len() > 0 {
				return send(pending.String())
			}
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read tracefile: %w", readErr)
		}
	}
}

package logs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	tailChunk    = 32 * 1024
	pollInterval = 250 * time.Millisecond
)

// TailOptions controls one Tail call. A negative Offset asks for the last
// Limit lines; otherwise reading starts at Offset. Follow with a positive
// Wait keeps polling until a line lands or the wait elapses.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads the log file at path. Returned offsets always sit on a line
// boundary; an unterminated trailing line stays unread until its newline
// lands, so resumed reads never split or repeat a line. A missing file is
// not an error, it reports offset zero so a later read starts from the top.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		lines, offset, err := lastLines(path, opts.Limit)
		if err != nil {
			return result, err
		}
		result.Lines = lines
		result.Offset = offset
		if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
			return pollForLines(ctx, path, offset, opts.Wait)
		}
		return result, nil
	}

	offset := opts.Offset
	if offset > info.Size() {
		// The file shrank since the last read; resume from the new end.
		offset = info.Size()
	}
	lines, next, err := readForward(path, offset)
	if err != nil {
		return result, err
	}
	result.Lines = lines
	result.Offset = next
	if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
		return pollForLines(ctx, path, next, opts.Wait)
	}
	return result, nil
}

// lastLines walks the file backward in chunks until it has limit complete
// lines or hits the start, so large logs never get scanned front to back.
func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	size := info.Size()
	if limit <= 0 || size == 0 {
		return nil, size, nil
	}

	// The first chunk boundary can cut a line in half, so one extra newline
	// is needed before the pieces after it are trustworthy.
	var acc []byte
	pos := size
	for pos > 0 && bytes.Count(acc, []byte{'\n'}) <= limit {
		readFrom := pos - tailChunk
		if readFrom < 0 {
			readFrom = 0
		}
		chunk := make([]byte, pos-readFrom)
		if _, err := file.ReadAt(chunk, readFrom); err != nil {
			return nil, 0, fmt.Errorf("read log tail: %w", err)
		}
		acc = append(chunk, acc...)
		pos = readFrom
	}

	end := bytes.LastIndexByte(acc, '\n')
	if end < 0 {
		return nil, pos, nil
	}
	offset := pos + int64(end) + 1

	lines := strings.Split(string(acc[:end]), "\n")
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, offset, nil
}

// readForward consumes complete lines starting at offset and reports where
// the next read should begin.
func readForward(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, tailChunk)
	var lines []string
	next := offset
	for {
		line, err := reader.ReadString('\n')
		switch {
		case err == nil:
			next += int64(len(line))
			lines = append(lines, strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"))
		case errors.Is(err, io.EOF):
			return lines, next, nil
		default:
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
	}
}

func pollForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		lines, next, err := readForward(path, offset)
		if err != nil {
			return TailResult{Offset: offset}, err
		}
		if len(lines) > 0 || time.Now().After(deadline) {
			return TailResult{Lines: lines, Offset: next}, nil
		}
		offset = next

		select {
		case <-ctx.Done():
			return TailResult{Offset: next}, ctx.Err()
		case <-ticker.C:
		}
	}
}

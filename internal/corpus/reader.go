// Package corpus fetches and prepares the Hindi training corpus and feeds it
// to training in fixed-size chunks of sentences.
package corpus

import (
	"bufio"
	"io"
	"strings"
)

// maxLineBytes bounds a single corpus line.
const maxLineBytes = 16 << 20

// ChunkReader yields training chunks: up to chunkLines non-empty, trimmed
// lines joined by single spaces, stopping after maxLines lines in total.
type ChunkReader struct {
	sc         *bufio.Scanner
	chunkLines int
	maxLines   int
	lines      int
	chunks     int
}

// NewChunkReader returns a reader over r. chunkLines <= 0 selects 10000;
// maxLines <= 0 reads to the end of r.
func NewChunkReader(r io.Reader, chunkLines, maxLines int) *ChunkReader {
	if chunkLines <= 0 {
		chunkLines = 10000
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &ChunkReader{sc: sc, chunkLines: chunkLines, maxLines: maxLines}
}

// Next returns the next chunk, or false once the input or the line budget is
// exhausted.
func (c *ChunkReader) Next() (string, bool) {
	buf := make([]string, 0, min(c.chunkLines, 1024))
	for len(buf) < c.chunkLines {
		if c.maxLines > 0 && c.lines >= c.maxLines {
			break
		}
		if !c.sc.Scan() {
			break
		}
		line := strings.TrimSpace(c.sc.Text())
		if line == "" {
			continue
		}
		buf = append(buf, line)
		c.lines++
	}
	if len(buf) == 0 {
		return "", false
	}
	c.chunks++
	return strings.Join(buf, " "), true
}

// Err returns the first read error, if any.
func (c *ChunkReader) Err() error { return c.sc.Err() }

// Lines returns the number of non-empty lines consumed so far.
func (c *ChunkReader) Lines() int { return c.lines }

// Chunks returns the number of chunks returned so far.
func (c *ChunkReader) Chunks() int { return c.chunks }

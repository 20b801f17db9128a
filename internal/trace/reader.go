package trace

import (
	"bufio"
	"io"
)

// LineReader yields lines of a possibly still growing stream, such as a
// FIFO fed by a running program. Next blocks until a full line is available
// and returns io.EOF once the writer side is closed.
type LineReader struct {
	r       *bufio.Reader
	pending error
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next line including its terminator. An unterminated
// final fragment is returned on its own before io.EOF.
func (l *LineReader) Next() (string, error) {
	if l.pending != nil {
		return "", l.pending
	}
	line, err := l.r.ReadString('\n')
	if err != nil {
		if line != "" {
			l.pending = err
			return line, nil
		}
		return "", err
	}
	return line, nil
}

package link

import "bytes"

// LineBufferSize is the capacity of the raw GPS debug line buffer.
const LineBufferSize = 50

// lineBuffer collects raw GPS bytes into debug lines. A line is flushed
// when a sentence start arrives or when the buffer is one byte short of
// full. The buffer is never cleared, so a flushed line may carry the tail
// of a longer earlier line.
type lineBuffer struct {
	buf [LineBufferSize]byte
	n   int
}

func (b *lineBuffer) feed(c byte) (line string, flushed bool) {
	if c == '$' || b.n == LineBufferSize-1 {
		b.n = 0
		data := b.buf[:]
		if i := bytes.IndexByte(data, 0); i >= 0 {
			data = data[:i]
		}
		line, flushed = string(data), true
	}
	b.buf[b.n] = c
	b.n++
	return
}

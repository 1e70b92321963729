package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// StreamTracer writes every accepted event as it arrives. Files are written
// through a buffer that Flush drains; stderr and stdout are not buffered.
// Text output marks where a new pass starts.
type StreamTracer struct {
	mu     sync.Mutex
	dst    io.Writer
	buf    *bufio.Writer
	level  Level
	format Format
	pass   int // last pass written
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	t := &StreamTracer{dst: w, level: level, format: format}
	if f, ok := w.(*os.File); ok && f != os.Stderr && f != os.Stdout {
		t.buf = bufio.NewWriterSize(f, 64<<10)
	}
	return t
}

func (t *StreamTracer) out() io.Writer {
	if t.buf != nil {
		return t.buf
	}
	return t.dst
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	ev.Seq = NextSeq()
	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.out()
	if t.format == FormatText && ev.Site.Pass > t.pass {
		t.pass = ev.Site.Pass
		// trace output is best-effort
		_, _ = fmt.Fprintf(w, "──── pass %d ────\n", t.pass)
	}
	_, _ = w.Write(data)
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.buf != nil {
		if err := t.buf.Flush(); err != nil {
			return err
		}
	}
	if flusher, ok := t.dst.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the destination unless it is stderr or stdout.
func (t *StreamTracer) Close() error {
	flushErr := t.Flush()
	if t.dst == os.Stderr || t.dst == os.Stdout {
		return flushErr
	}
	if closer, ok := t.dst.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return flushErr
}

func (t *StreamTracer) Level() Level { return t.level }

func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }

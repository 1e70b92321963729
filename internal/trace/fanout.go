package trace

import "errors"

type nopTracer struct{}

func (nopTracer) Emit(*Event)   {}
func (nopTracer) Flush() error  { return nil }
func (nopTracer) Close() error  { return nil }
func (nopTracer) Level() Level  { return LevelOff }
func (nopTracer) Enabled() bool { return false }

// Nop discards everything; FromContext returns it when no tracer is attached.
var Nop Tracer = nopTracer{}

// Fanout emits every event to each of its tracers (stream plus ring in
// "both" mode). Each tracer receives its own copy of the event.
type Fanout struct {
	tracers []Tracer
	level   Level
}

// NewFanout combines tracers under one level.
func NewFanout(level Level, tracers ...Tracer) *Fanout {
	return &Fanout{tracers: tracers, level: level}
}

func (f *Fanout) Emit(ev *Event) {
	for _, tr := range f.tracers {
		cp := *ev
		tr.Emit(&cp)
	}
}

func (f *Fanout) Flush() error {
	var errs []error
	for _, tr := range f.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, tr := range f.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

func (f *Fanout) Level() Level  { return f.level }
func (f *Fanout) Enabled() bool { return f.level > LevelOff }

// Ring returns the ring buffer behind t, if any: t itself or a member of a
// Fanout.
func Ring(t Tracer) (*RingTracer, bool) {
	switch v := t.(type) {
	case *RingTracer:
		return v, true
	case *Fanout:
		for _, tr := range v.tracers {
			if r, ok := Ring(tr); ok {
				return r, true
			}
		}
	}
	return nil, false
}

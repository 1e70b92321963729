package analysis

import "math"

// Stage describes a high-level phase of a run.
type Stage string

const (
	StageLoad    Stage = "load"
	StageIndex   Stage = "index"
	StageAnalyze Stage = "analyze"
	StageReport  Stage = "report"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File   string
	Stage  Stage
	Status Status
	Pass   int
	Passes int // configured bound
	Err    error
}

// ProgressSink receives progress events. Implementations must not block for long.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}

// sampler thins StatusWorking events to roughly rate of all files.
type sampler struct {
	stride int
	n      int
}

func newSampler(rate float64) *sampler {
	stride := 1
	if rate > 0 && rate < 1 {
		stride = int(math.Round(1 / rate))
	}
	return &sampler{stride: stride}
}

func (s *sampler) next() bool {
	ok := s.n%s.stride == 0
	s.n++
	return ok
}

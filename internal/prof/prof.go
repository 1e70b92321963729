package prof

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the profile outputs of a session. Empty paths are skipped.
type Options struct {
	CPU   string
	Mem   string
	Trace string
}

// InDir returns options writing cpu.pprof, mem.pprof and trace.out under dir.
func InDir(dir string) Options {
	return Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
}

// Session owns the files of active profiles.
type Session struct {
	opts      Options
	cpuFile   *os.File
	traceFile *os.File
}

// Start enables the profiles named by opts. On error nothing is left running.
func Start(opts Options) (*Session, error) {
	s := &Session{opts: opts}
	if opts.CPU != "" {
		if err := s.startCPU(opts.CPU); err != nil {
			return nil, err
		}
	}
	if opts.Trace != "" {
		if err := s.startTrace(opts.Trace); err != nil {
			s.stopCPU()
			return nil, err
		}
	}
	return s, nil
}

// Stop ends running profiles and captures the heap profile if requested.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	s.stopTrace()
	s.stopCPU()
	if s.opts.Mem != "" {
		return writeMem(s.opts.Mem)
	}
	return nil
}

func (s *Session) startCPU(path string) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	s.cpuFile = f
	return nil
}

func (s *Session) stopCPU() {
	if s.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = s.cpuFile.Close()
	s.cpuFile = nil
}

func (s *Session) startTrace(path string) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return err
	}
	s.traceFile = f
	return nil
}

func (s *Session) stopTrace() {
	if s.traceFile == nil {
		return
	}
	trace.Stop()
	_ = s.traceFile.Close()
	s.traceFile = nil
}

// writeMem captures a heap profile to the supplied file path.
func writeMem(path string) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

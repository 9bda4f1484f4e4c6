// Package progressbar reports long-running ingest/batch work to the
// terminal, staged the way the teacher's CLI tool reports a database
// build: a sequence of named steps, each with its own progress bar.
package progressbar

import (
	"io"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// Stages drives a sequence of named steps, printing one pb/v3 bar per
// step; each step's Bar exposes its running time via Elapsed — the ecosystem-library
// equivalent of the teacher's hand-rolled newProgress stage counter.
type Stages struct {
	total   int
	current int
}

// NewStages starts reporting for a job with the given number of steps.
func NewStages(total int) *Stages {
	return &Stages{total: total}
}

// Step announces the start of the next named step and returns a Bar
// sized to total (a byte count, a row count, whatever unit makes sense
// for that step). Pass 0 for steps with no natural progress unit; the
// returned Bar then just tracks elapsed time.
func (s *Stages) Step(name string, total int64) *Bar {
	s.current++
	bar := pb.Full.Start64(total)
	bar.Set(pb.Bytes, false)
	bar.SetTemplateString(`{{string . "stage"}} {{counters . }} {{bar . }} {{percent . }} {{speed . }}`)
	bar.Set("stage", name)
	return &Bar{bar: bar, start: time.Now()}
}

// Bar wraps a pb/v3 progress bar for one step of a Stages job.
type Bar struct {
	bar   *pb.ProgressBar
	start time.Time
}

// ProxyReader wraps r so reads advance the bar, the same role the
// teacher's dump.go gives pb/v3's NewProxyReader when streaming a
// dump file through gzip.
func (b *Bar) ProxyReader(r io.Reader) io.Reader {
	return b.bar.NewProxyReader(r)
}

// Add64 advances the bar by delta without an underlying reader, for
// steps measured in row counts rather than bytes.
func (b *Bar) Add64(delta int64) {
	b.bar.Add64(delta)
}

// Finish stops the bar. It does not print the step's elapsed time;
// Elapsed returns it.
func (b *Bar) Finish() {
	b.bar.Finish()
}

// Elapsed returns how long the step has been running.
func (b *Bar) Elapsed() time.Duration {
	return time.Since(b.start)
}

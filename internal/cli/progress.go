package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

type progressReporter struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	label   string
	total   int
	start   time.Time
	spinner int
	lastLen int
}

// newProgressReporter reports to stderr, and only when stderr is a
// terminal and no JSON output was requested.
func newProgressReporter(label string, total int, asJSON bool) *progressReporter {
	fd := os.Stderr.Fd()
	enabled := !asJSON && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	return &progressReporter{
		w:       os.Stderr,
		enabled: enabled,
		label:   label,
		total:   total,
		start:   time.Now(),
	}
}

// Update is safe to call from concurrent workers.
func (r *progressReporter) Update(file string, count int) {
	if r == nil || !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file = strings.TrimSpace(file)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}

	status := fmt.Sprintf("%s %s %d %s", frame, r.label, count, file)
	if r.total > 0 {
		status = fmt.Sprintf("%s %s %d/%d %s", frame, r.label, count, r.total, file)
	}
	r.printStatus(status)
}

func (r *progressReporter) Done(count int) {
	if r == nil || !r.enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s complete (%d files in %s)", r.label, count, elapsed))
	fmt.Fprintln(r.w)
}

func (r *progressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status += strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.w, "\r%s", status)
}

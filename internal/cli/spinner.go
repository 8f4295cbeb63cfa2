package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mindmapper/pkg/observability"
	"github.com/matzehuels/mindmapper/pkg/render"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line on stderr while a generation runs. The
// animation ends on Stop or when the parent context is done.
type Spinner struct {
	out    io.Writer
	parent context.Context

	stop     chan struct{}
	finished chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	message string
	width   int
}

func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return &Spinner{
		out:      os.Stderr,
		parent:   ctx,
		message:  message,
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start runs the animation in its own goroutine.
func (s *Spinner) Start() {
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.finished)
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.stop:
			return
		case <-s.parent.Done():
			s.clearLine()
			return
		case <-tick.C:
			s.draw(spinnerFrames[frame%len(spinnerFrames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	w := lipgloss.Width(line)
	s.width = max(s.width, w)
	fmt.Fprint(s.out, "\r"+line+strings.Repeat(" ", s.width-w))
}

// SetMessage changes the status text from the next frame on.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and blanks the line. It may be called repeatedly.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.finished
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.out, "\r"+strings.Repeat(" ", max(s.width, len(s.message)+4))+"\r")
}

// Cancelled reports whether the animation ended because the parent context
// was done rather than through Stop.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// stageLabels are shown while a render stage is running. Each entry names
// the stage that starts after the key stage completes.
var stageLabels = map[string]string{
	render.StageIn:          "Converting Markdown to HTML...",
	render.StageTransform:   "Cleaning up HTML...",
	render.StagePostProcess: "Rendering image...",
	render.StageRasterize:   "Validating image...",
	render.StageValidate:    "Uploading image...",
}

// spinnerHooks narrates pipeline progress on a spinner.
type spinnerHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner
}

func (h spinnerHooks) OnStageComplete(_ context.Context, stage string, _ time.Duration, err error) {
	if err != nil {
		return
	}
	if label, ok := stageLabels[stage]; ok {
		h.spinner.SetMessage(label)
	}
}

package transcript

import (
	"strings"
	"sync"

	"github.com/samber/lo"

	"voicechat/internal/domain"
	"voicechat/internal/ports"
)

// Renderer draws a newly appended line after all previous ones and scrolls
// it into view.
type Renderer interface {
	TranscriptAppended(line domain.TranscriptLine)
}

// View is an append-only transcript. Callers append at most once per event.
type View struct {
	mu       sync.Mutex
	lines    []domain.TranscriptLine
	renderer Renderer
}

func NewView(renderer Renderer) *View {
	return &View{renderer: renderer}
}

// Append records the line and forwards it to the renderer.
func (v *View) Append(line domain.TranscriptLine) {
	v.mu.Lock()
	v.lines = append(v.lines, line)
	v.mu.Unlock()

	if v.renderer != nil {
		v.renderer.TranscriptAppended(line)
	}
}

// Lines returns a snapshot of the transcript in arrival order.
func (v *View) Lines() []domain.TranscriptLine {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.TranscriptLine, len(v.lines))
	copy(out, v.lines)
	return out
}

// Text renders the transcript as "speaker: text" lines.
func (v *View) Text() string {
	lines := lo.Map(v.Lines(), func(line domain.TranscriptLine, _ int) string {
		return string(line.Speaker) + ": " + line.Text
	})
	return strings.Join(lines, "\n")
}

var _ ports.TranscriptSink = (*View)(nil)

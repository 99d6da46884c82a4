// Package console prints evaluation progress for a human watching a local run.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fatih/color"

	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"
)

var _ output.ProgressPort = (*Progress)(nil)

var handleRe = regexp.MustCompile(`\[\d+\]`)

type Options struct {
	// MaxObservationLines limits the printed tree; zero prints everything.
	MaxObservationLines int
	// Highlight is the success criterion, marked wherever it shows up.
	Highlight string
}

type Progress struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options
}

func NewProgress(out io.Writer, opts Options) *Progress {
	if out == nil {
		out = os.Stdout
	}
	return &Progress{out: out, opts: opts}
}

func (p *Progress) ShowStep(ctx context.Context, step, maxSteps int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(p.out, "\n━━━ Step %d/%d ━━━\n", step, maxSteps)
}

func (p *Progress) ShowObservation(ctx context.Context, obs *entity.Observation) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dim := color.New(color.Faint)
	if obs == nil || obs.Text == "" {
		dim.Fprintln(p.out, "   (empty observation)")
		return
	}
	if obs.URL != "" {
		dim.Fprintf(p.out, "🌐 %s\n", obs.URL)
	}

	lines := strings.Split(obs.Text, "\n")
	hidden := 0
	if max := p.opts.MaxObservationLines; max > 0 && len(lines) > max {
		hidden = len(lines) - max
		lines = lines[:max]
	}

	handle := color.New(color.FgYellow, color.Bold)
	mark := color.New(color.FgGreen, color.Bold)
	for _, line := range lines {
		line = handleRe.ReplaceAllStringFunc(line, func(h string) string { return handle.Sprint(h) })
		if p.opts.Highlight != "" {
			line = strings.ReplaceAll(line, p.opts.Highlight, mark.Sprint(p.opts.Highlight))
		}
		fmt.Fprintf(p.out, "   %s\n", line)
	}
	if hidden > 0 {
		dim.Fprintf(p.out, "   ... %d more lines\n", hidden)
	}
}

func (p *Progress) ShowAction(ctx context.Context, action entity.Action, concrete string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	icon := actionIcons[action.Type]
	if icon == "" {
		icon = "🔧"
	}

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(p.out, "\n%s %s\n", icon, concrete)
	if requested := action.String(); requested != concrete {
		color.New(color.Faint).Fprintf(p.out, "   requested: %s\n", truncate(requested, 80))
	}
}

func (p *Progress) ShowActionError(ctx context.Context, action entity.Action, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	red := color.New(color.FgRed)
	red.Fprint(p.out, "❌ ")
	color.New(color.Faint).Fprintln(p.out, truncate(err.Error(), 300))
}

func (p *Progress) ShowOutcome(ctx context.Context, result *entity.EvaluationResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case result.Success:
		color.New(color.FgGreen, color.Bold).Fprintf(p.out, "\n✓ %s\n", result.Message)
	case result.Status == entity.StatusFailed:
		color.New(color.FgRed, color.Bold).Fprintf(p.out, "\n❌ %s\n", result.Message)
	default:
		color.New(color.FgYellow, color.Bold).Fprintf(p.out, "\n• %s\n", result.Message)
	}
	fmt.Fprintf(p.out, "   status=%s score=%d steps=%d actions=%d\n",
		result.Status, result.Score, result.StepsTaken, len(result.Logs))
}

var actionIcons = map[entity.ActionType]string{
	entity.ActionClick:  "🖱️",
	entity.ActionInput:  "✏️",
	entity.ActionSelect: "📋",
	entity.ActionRaw:    "⌨️",
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package console

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"agent-evaluator/internal/domain/entity"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestProgress_StepAndObservation(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, Options{MaxObservationLines: 2})
	ctx := context.Background()

	p.ShowStep(ctx, 3, 20)
	p.ShowObservation(ctx, &entity.Observation{
		URL:  "http://localhost/contact",
		Text: "[1] RootWebArea 'Contact'\n\t[2] textbox 'Name'\n\t[3] button 'Send'",
	})

	out := buf.String()
	assert.Contains(t, out, "Step 3/20")
	assert.Contains(t, out, "http://localhost/contact")
	assert.Contains(t, out, "[2] textbox 'Name'")
	assert.NotContains(t, out, "button 'Send'")
	assert.Contains(t, out, "1 more lines")
}

func TestProgress_EmptyObservation(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, Options{})

	p.ShowObservation(context.Background(), nil)

	assert.Contains(t, buf.String(), "(empty observation)")
}

func TestProgress_ActionShowsRequestedForm(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, Options{})
	ctx := context.Background()

	p.ShowAction(ctx, entity.Action{Type: entity.ActionClick, Selector: "button 'Send'"}, "click [42]")
	p.ShowAction(ctx, entity.Action{Type: entity.ActionRaw, Raw: "scroll [down]"}, "scroll [down]")

	out := buf.String()
	assert.Contains(t, out, "click [42]")
	assert.Contains(t, out, "requested: click button 'Send'")
	assert.Equal(t, 1, strings.Count(out, "requested:"))
	assert.Contains(t, out, "scroll [down]")
}

func TestProgress_ActionError(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, Options{})

	p.ShowActionError(context.Background(), entity.Action{Type: entity.ActionClick}, errors.New("element not found: #missing"))

	assert.Contains(t, buf.String(), "element not found: #missing")
}

func TestProgress_Outcome(t *testing.T) {
	tests := []struct {
		name   string
		result func() *entity.EvaluationResult
		want   []string
	}{
		{
			name: "success",
			result: func() *entity.EvaluationResult {
				r := entity.NewEvaluationResult("e1")
				r.AppendLog("click [1]")
				r.Complete(true, 1, nil, "Success criteria met")
				return r
			},
			want: []string{"✓ Success criteria met", "status=completed score=100 steps=1 actions=1"},
		},
		{
			name: "failure",
			result: func() *entity.EvaluationResult {
				r := entity.NewEvaluationResult("e2")
				r.Fail(0, nil, errors.New("boom"))
				return r
			},
			want: []string{"❌ Evaluation failed: boom", "status=failed score=0 steps=0"},
		},
		{
			name: "exhausted",
			result: func() *entity.EvaluationResult {
				r := entity.NewEvaluationResult("e3")
				r.Complete(false, 20, nil, "Step budget of 20 exhausted")
				return r
			},
			want: []string{"• Step budget of 20 exhausted", "status=completed score=0 steps=20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewProgress(&buf, Options{}).ShowOutcome(context.Background(), tt.result())

			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestProgress_HighlightsCriterion(t *testing.T) {
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = true })

	var buf bytes.Buffer
	p := NewProgress(&buf, Options{Highlight: "Welcome"})

	p.ShowObservation(context.Background(), &entity.Observation{Text: "[7] StaticText 'Welcome back'"})

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "Welcome")
}

func TestProgress_ColorsHandles(t *testing.T) {
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = true })

	var buf bytes.Buffer
	p := NewProgress(&buf, Options{})

	p.ShowObservation(context.Background(), &entity.Observation{Text: "[7] button 'Send' [12] link 'Home'"})

	out := buf.String()
	assert.Contains(t, out, "m[7]\x1b[")
	assert.Contains(t, out, "m[12]\x1b[")
	assert.Contains(t, out, " button 'Send' ")
}

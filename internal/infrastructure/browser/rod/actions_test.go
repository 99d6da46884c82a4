package rod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		action string
		want   Command
	}{
		{"click [42]", Command{Verb: VerbClick, Arg: "42"}},
		{"  CLICK [7]  ", Command{Verb: VerbClick, Arg: "7"}},
		{"type [5] [hello world] [1]", Command{Verb: VerbType, Arg: "5", Value: "hello world", Enter: true}},
		{"type [5] [hello] [0]", Command{Verb: VerbType, Arg: "5", Value: "hello"}},
		{"type [5] [hello]", Command{Verb: VerbType, Arg: "5", Value: "hello", Enter: true}},
		{"type [5] John Smith", Command{Verb: VerbType, Arg: "5", Value: "John Smith"}},
		{"fill [3] a@b.c", Command{Verb: VerbType, Arg: "3", Value: "a@b.c"}},
		{"input [3] 12", Command{Verb: VerbType, Arg: "3", Value: "12"}},
		{"select [9] High", Command{Verb: VerbSelect, Arg: "9", Value: "High"}},
		{"select [9] [Very High]", Command{Verb: VerbSelect, Arg: "9", Value: "Very High"}},
		{"goto [http://localhost/page]", Command{Verb: VerbGoto, Arg: "http://localhost/page"}},
		{"goto http://localhost/page", Command{Verb: VerbGoto, Arg: "http://localhost/page"}},
		{"scroll [down]", Command{Verb: VerbScroll, Arg: "down"}},
		{"scroll Up", Command{Verb: VerbScroll, Arg: "up"}},
		{"press [Enter]", Command{Verb: VerbPress, Arg: "Enter"}},
		{"noop", Command{Verb: VerbNoop}},
		{"noop [250]", Command{Verb: VerbNoop, Arg: "250", Wait: 250 * time.Millisecond}},
		{"go_back", Command{Verb: VerbGoBack}},
		{"go_forward", Command{Verb: VerbGoForward}},
		{"stop [42 items]", Command{Verb: VerbStop, Arg: "42 items", Value: "42 items"}},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got, err := ParseCommand(tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		unknown bool
	}{
		{"empty", "", true},
		{"unknown verb", "hover [3]", true},
		{"click without handle", "click", false},
		{"type without handle", "type hello", false},
		{"goto without url", "goto", false},
		{"bad scroll", "scroll [left]", false},
		{"unknown key", "press [F13]", false},
		{"bad wait", "noop [soon]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.action)
			require.Error(t, err)
			if tt.unknown {
				assert.ErrorIs(t, err, ErrUnknownAction)
			}
		})
	}
}

func TestCommand_IsElementAction(t *testing.T) {
	assert.True(t, Command{Verb: VerbClick}.IsElementAction())
	assert.True(t, Command{Verb: VerbType}.IsElementAction())
	assert.True(t, Command{Verb: VerbSelect}.IsElementAction())
	assert.False(t, Command{Verb: VerbScroll}.IsElementAction())
	assert.False(t, Command{Verb: VerbGoto}.IsElementAction())
}

package rod

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/input"
)

var ErrUnknownAction = errors.New("unknown action")

type Verb string

const (
	VerbClick     Verb = "click"
	VerbType      Verb = "type"
	VerbSelect    Verb = "select"
	VerbGoto      Verb = "goto"
	VerbScroll    Verb = "scroll"
	VerbPress     Verb = "press"
	VerbNoop      Verb = "noop"
	VerbGoBack    Verb = "go_back"
	VerbGoForward Verb = "go_forward"
	VerbStop      Verb = "stop"
)

// verbAliases maps every accepted spelling to its verb.
var verbAliases = map[string]Verb{
	"click":      VerbClick,
	"type":       VerbType,
	"fill":       VerbType,
	"input":      VerbType,
	"select":     VerbSelect,
	"goto":       VerbGoto,
	"scroll":     VerbScroll,
	"press":      VerbPress,
	"noop":       VerbNoop,
	"go_back":    VerbGoBack,
	"go_forward": VerbGoForward,
	"stop":       VerbStop,
}

// Command is a parsed "<verb> [<arg>] <value?>" action string.
type Command struct {
	Verb Verb
	Arg  string
	// Value is the text to type or the option to select.
	Value string
	// Enter presses Enter after typing.
	Enter bool
	Wait  time.Duration
}

var (
	actionRe = regexp.MustCompile(`^\s*([A-Za-z_]+)\s*(?:\[([^\]]*)\])?\s*(.*?)\s*$`)
	// "type [5] [text] [1]": bracketed text with an optional Enter flag.
	bracketedValueRe = regexp.MustCompile(`^\[(.*?)\](?:\s*\[([01])\])?$`)
)

func ParseCommand(action string) (Command, error) {
	m := actionRe.FindStringSubmatch(action)
	if m == nil {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	verb, ok := verbAliases[strings.ToLower(m[1])]
	if !ok {
		return Command{}, fmt.Errorf("%w: verb %q", ErrUnknownAction, m[1])
	}

	cmd := Command{Verb: verb, Arg: strings.TrimSpace(m[2])}
	rest := m[3]

	switch verb {
	case VerbClick:
		if cmd.Arg == "" {
			return Command{}, fmt.Errorf("click needs an element: %q", action)
		}
	case VerbType, VerbSelect:
		if cmd.Arg == "" {
			return Command{}, fmt.Errorf("%s needs an element: %q", verb, action)
		}
		cmd.Value = rest
		if vm := bracketedValueRe.FindStringSubmatch(rest); vm != nil {
			cmd.Value = vm[1]
			cmd.Enter = verb == VerbType && vm[2] != "0"
		}
	case VerbGoto:
		if cmd.Arg == "" {
			cmd.Arg = rest
		}
		if cmd.Arg == "" {
			return Command{}, fmt.Errorf("goto needs a url: %q", action)
		}
	case VerbScroll:
		dir := strings.ToLower(firstNonEmpty(cmd.Arg, rest))
		if dir != "up" && dir != "down" {
			return Command{}, fmt.Errorf("scroll direction must be up or down: %q", action)
		}
		cmd.Arg = dir
	case VerbPress:
		cmd.Arg = firstNonEmpty(cmd.Arg, rest)
		if _, ok := keyByName(cmd.Arg); !ok {
			return Command{}, fmt.Errorf("unsupported key %q", cmd.Arg)
		}
	case VerbNoop:
		if ms := firstNonEmpty(cmd.Arg, rest); ms != "" {
			n, err := strconv.Atoi(ms)
			if err != nil || n < 0 {
				return Command{}, fmt.Errorf("noop wait must be milliseconds: %q", action)
			}
			cmd.Wait = time.Duration(n) * time.Millisecond
		}
	case VerbStop:
		cmd.Value = firstNonEmpty(cmd.Arg, rest)
	}

	return cmd, nil
}

// IsElementAction reports whether the command targets a handle.
func (c Command) IsElementAction() bool {
	return c.Verb == VerbClick || c.Verb == VerbType || c.Verb == VerbSelect
}

var namedKeys = map[string]input.Key{
	"enter":      input.Enter,
	"tab":        input.Tab,
	"escape":     input.Escape,
	"esc":        input.Escape,
	"backspace":  input.Backspace,
	"delete":     input.Delete,
	"space":      input.Space,
	"arrowup":    input.ArrowUp,
	"arrowdown":  input.ArrowDown,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"pageup":     input.PageUp,
	"pagedown":   input.PageDown,
	"home":       input.Home,
	"end":        input.End,
}

func keyByName(name string) (input.Key, bool) {
	k, ok := namedKeys[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

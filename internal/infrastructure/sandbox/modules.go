package sandbox

import (
	"fmt"
	"regexp"

	"go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Flag values follow the ones agents already know from Python's re module.
const (
	flagIgnoreCase = 2
	flagMultiline  = 8
	flagDotAll     = 16
)

func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"re":     reModule,
		"json":   json.Module,
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
}

var reModule = &starlarkstruct.Module{
	Name: "re",
	Members: starlark.StringDict{
		"search":     starlark.NewBuiltin("re.search", reSearch),
		"match":      starlark.NewBuiltin("re.match", reMatch),
		"findall":    starlark.NewBuiltin("re.findall", reFindAll),
		"sub":        starlark.NewBuiltin("re.sub", reSub),
		"IGNORECASE": starlark.MakeInt(flagIgnoreCase),
		"I":          starlark.MakeInt(flagIgnoreCase),
		"MULTILINE":  starlark.MakeInt(flagMultiline),
		"M":          starlark.MakeInt(flagMultiline),
		"DOTALL":     starlark.MakeInt(flagDotAll),
		"S":          starlark.MakeInt(flagDotAll),
	},
}

func compilePattern(pattern string, flags int, anchored bool) (*regexp.Regexp, error) {
	prefix := ""
	if flags&flagIgnoreCase != 0 {
		prefix += "i"
	}
	if flags&flagMultiline != 0 {
		prefix += "m"
	}
	if flags&flagDotAll != 0 {
		prefix += "s"
	}
	if prefix != "" {
		prefix = "(?" + prefix + ")"
	}
	if anchored {
		pattern = `\A(?:` + pattern + `)`
	}
	re, err := regexp.Compile(prefix + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

func unpackPattern(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, anchored bool) (*regexp.Regexp, string, error) {
	var pattern, s string
	var flags int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "string", &s, "flags?", &flags); err != nil {
		return nil, "", err
	}
	re, err := compilePattern(pattern, flags, anchored)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", b.Name(), err)
	}
	return re, s, nil
}

func reSearch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	re, s, err := unpackPattern(b, args, kwargs, false)
	if err != nil {
		return nil, err
	}
	return newMatch(re, s), nil
}

func reMatch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	re, s, err := unpackPattern(b, args, kwargs, true)
	if err != nil {
		return nil, err
	}
	return newMatch(re, s), nil
}

// reFindAll returns whole matches, the single group, or a tuple of groups,
// depending on the number of groups in the pattern.
func reFindAll(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	re, s, err := unpackPattern(b, args, kwargs, false)
	if err != nil {
		return nil, err
	}

	var out []starlark.Value
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		switch len(m) {
		case 1:
			out = append(out, starlark.String(m[0]))
		case 2:
			out = append(out, starlark.String(m[1]))
		default:
			groups := make(starlark.Tuple, 0, len(m)-1)
			for _, g := range m[1:] {
				groups = append(groups, starlark.String(g))
			}
			out = append(out, groups)
		}
	}
	return starlark.NewList(out), nil
}

// reSub replaces matches with repl taken literally.
func reSub(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, repl, s string
	var flags int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "repl", &repl, "string", &s, "flags?", &flags); err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern, flags, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.String(re.ReplaceAllLiteralString(s, repl)), nil
}

func newMatch(re *regexp.Regexp, s string) starlark.Value {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return starlark.None
	}

	groups := make([]starlark.Value, re.NumSubexp()+1)
	for i := range groups {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			groups[i] = starlark.None
			continue
		}
		groups[i] = starlark.String(s[start:end])
	}
	names := re.SubexpNames()

	group := func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var key starlark.Value = starlark.MakeInt(0)
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &key); err != nil {
			return nil, err
		}
		switch k := key.(type) {
		case starlark.Int:
			i, ok := k.Int64()
			if !ok || i < 0 || int(i) >= len(groups) {
				return nil, fmt.Errorf("group: no such group %s", k)
			}
			return groups[i], nil
		case starlark.String:
			for i, name := range names {
				if name != "" && name == string(k) {
					return groups[i], nil
				}
			}
			return nil, fmt.Errorf("group: no such group %s", k)
		}
		return nil, fmt.Errorf("group: want int or string, got %s", key.Type())
	}

	return starlarkstruct.FromStringDict(starlark.String("match"), starlark.StringDict{
		"group":  starlark.NewBuiltin("group", group),
		"groups": starlark.NewBuiltin("groups", func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
			return starlark.Tuple(groups[1:]), nil
		}),
		"start": offset("start", loc[0]),
		"end":   offset("end", loc[1]),
	})
}

func offset(name string, n int) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
		return starlark.MakeInt(n), nil
	})
}

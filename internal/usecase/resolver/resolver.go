// Package resolver maps abstract agent actions onto concrete environment
// action strings of the form "<verb> [<handle>] <value>".
//
// When an action carries no handle the selector is looked up in the textual
// accessibility tree with a fixed, ordered list of patterns. This is heuristic
// text matching over a tree dump, not a DOM query: the order below is part of
// the observable behaviour and must not be changed casually.
package resolver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"agent-evaluator/internal/domain/entity"
)

// Pattern names, most specific first.
const (
	PatternQuoted    = "quoted"
	PatternText      = "text"
	PatternAttribute = "attribute"
	PatternRole      = "role"
)

type selectorPattern struct {
	name  string
	build func(quotedKey string) string
}

// A node segment is everything after "[<handle>]" up to the next bracket.
const nodeSegment = `\[(\d+)\][^\[\]]*?`

var selectorPatterns = []selectorPattern{
	{PatternQuoted, func(k string) string { return nodeSegment + `['"][^'"\[\]]*?` + k + `[^'"\[\]]*?['"]` }},
	{PatternText, func(k string) string { return nodeSegment + k }},
	{PatternAttribute, func(k string) string { return nodeSegment + `\b(?:id|name|class)=['"]?[^'"\s\[\]]*?` + k }},
}

var roleFallbacks = map[entity.ActionType]*regexp.Regexp{
	entity.ActionClick: regexp.MustCompile(`\[(\d+)\]\s+(?:button|link)\b`),
	entity.ActionInput: regexp.MustCompile(`\[(\d+)\]\s+(?:textbox|input)\b`),
}

// Match is a handle found in the tree together with the pattern that found it.
type Match struct {
	Handle  string
	Pattern string
}

// SearchKey strips one leading '#' or '.'; id and class selectors are not
// distinguished any further.
func SearchKey(selector string) string {
	if strings.HasPrefix(selector, "#") || strings.HasPrefix(selector, ".") {
		return selector[1:]
	}
	return selector
}

// FindHandle runs the selector patterns in order and then the role fallback
// for the action type.
func FindHandle(actionType entity.ActionType, selector, tree string) (Match, bool) {
	key := SearchKey(selector)
	if key != "" {
		quoted := regexp.QuoteMeta(key)
		for _, p := range selectorPatterns {
			re, err := regexp.Compile(p.build(quoted))
			if err != nil {
				continue
			}
			if m := re.FindStringSubmatch(tree); m != nil {
				return Match{Handle: m[1], Pattern: p.name}, true
			}
		}
	}

	if re, ok := roleFallbacks[actionType]; ok {
		if m := re.FindStringSubmatch(tree); m != nil {
			return Match{Handle: m[1], Pattern: PatternRole}, true
		}
	}

	return Match{}, false
}

// Resolve returns the concrete action string for a. Stop actions have no
// concrete form and yield ErrStopAction.
func Resolve(a entity.Action, tree string) (string, error) {
	switch a.Type {
	case entity.ActionStop:
		return "", entity.ErrStopAction
	case entity.ActionRaw:
		if err := a.Validate(); err != nil {
			return "", err
		}
		return strings.TrimSpace(a.Raw), nil
	}

	if err := a.Validate(); err != nil {
		return "", err
	}

	if a.HasHandle() {
		return format(a.Type, a.ElementID, a.Value), nil
	}

	m, ok := FindHandle(a.Type, a.Selector, tree)
	if !ok {
		return "", &entity.ElementNotFoundError{Selector: a.Selector}
	}
	return format(a.Type, m.Handle, a.Value), nil
}

// ResolveOrDegrade behaves like Resolve, but on a miss it still returns a
// concrete action that uses the raw selector as the handle. The returned error
// is the ElementNotFoundError so callers can log the degradation; the action
// may well be rejected by the environment.
func ResolveOrDegrade(a entity.Action, tree string) (string, error) {
	concrete, err := Resolve(a, tree)
	if err == nil {
		return concrete, nil
	}

	var notFound *entity.ElementNotFoundError
	if errors.As(err, &notFound) {
		return format(a.Type, notFound.Selector, a.Value), err
	}
	return "", err
}

func verb(t entity.ActionType) string {
	switch t {
	case entity.ActionInput:
		return "type"
	case entity.ActionSelect:
		return "select"
	default:
		return "click"
	}
}

func format(t entity.ActionType, handle, value string) string {
	if t == entity.ActionClick || value == "" {
		return fmt.Sprintf("%s [%s]", verb(t), handle)
	}
	return fmt.Sprintf("%s [%s] %s", verb(t), handle, value)
}

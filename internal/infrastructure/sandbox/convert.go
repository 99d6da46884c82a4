package sandbox

import (
	"fmt"

	"agent-evaluator/internal/domain/entity"

	"go.starlark.net/starlark"
)

// toActions normalizes an agent_logic return value.
func toActions(v starlark.Value) ([]entity.Action, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String, *starlark.Dict:
		a, err := toAction(v)
		if err != nil {
			return nil, err
		}
		return []entity.Action{a}, nil
	case *starlark.List:
		return sequenceActions(v)
	case starlark.Tuple:
		return sequenceActions(v)
	}
	return nil, fmt.Errorf("%w: agent_logic returned %s, want dict, list or string", entity.ErrInvalidAction, v.Type())
}

func sequenceActions(seq starlark.Indexable) ([]entity.Action, error) {
	actions := make([]entity.Action, 0, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		a, err := toAction(seq.Index(i))
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func toAction(v starlark.Value) (entity.Action, error) {
	switch v := v.(type) {
	case starlark.String:
		return entity.Action{Type: entity.ActionRaw, Raw: string(v)}, nil
	case *starlark.Dict:
		return dictAction(v)
	}
	return entity.Action{}, fmt.Errorf("%w: %s is not an action", entity.ErrInvalidAction, v.Type())
}

func dictAction(d *starlark.Dict) (entity.Action, error) {
	rawType, err := stringField(d, "type")
	if err != nil {
		return entity.Action{}, err
	}
	t, err := entity.ParseActionType(rawType)
	if err != nil {
		return entity.Action{}, err
	}

	a := entity.Action{Type: t}
	if a.ElementID, err = handleField(d, "element_id"); err != nil {
		return entity.Action{}, err
	}
	if a.Selector, err = stringField(d, "selector"); err != nil {
		return entity.Action{}, err
	}
	if a.Value, err = valueField(d, "value"); err != nil {
		return entity.Action{}, err
	}
	return a, nil
}

func lookup(d *starlark.Dict, key string) (starlark.Value, bool) {
	v, found, err := d.Get(starlark.String(key))
	if err != nil || !found || v == starlark.None {
		return nil, false
	}
	return v, true
}

func stringField(d *starlark.Dict, key string) (string, error) {
	v, ok := lookup(d, key)
	if !ok {
		return "", nil
	}
	s, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %s", entity.ErrInvalidAction, key, v.Type())
	}
	return s, nil
}

// handleField accepts element_id as int or string.
func handleField(d *starlark.Dict, key string) (string, error) {
	v, ok := lookup(d, key)
	if !ok {
		return "", nil
	}
	switch v := v.(type) {
	case starlark.Int:
		return v.String(), nil
	case starlark.String:
		return string(v), nil
	}
	return "", fmt.Errorf("%w: %q must be an int or string, got %s", entity.ErrInvalidAction, key, v.Type())
}

// valueField stringifies scalars so that {"value": 3} selects "3".
func valueField(d *starlark.Dict, key string) (string, error) {
	v, ok := lookup(d, key)
	if !ok {
		return "", nil
	}
	switch v := v.(type) {
	case starlark.String:
		return string(v), nil
	case starlark.Int, starlark.Float, starlark.Bool:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: %q must be a scalar, got %s", entity.ErrInvalidAction, key, v.Type())
}

package resolver

import (
	"errors"
	"testing"

	"agent-evaluator/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mailTree = `[1] RootWebArea 'GoMail' focused: True
	[4] link 'Inbox (3)'
	[5] button 'Compose'
	[9] textbox 'To' required: False id='recipient'
	[10] textbox 'Subject' name='subject'
	[11] textbox '' class='editor message-body'
	[42] button 'Send'
	[43] combobox 'Priority' hasPopup: menu`

func TestResolve_SelectorText(t *testing.T) {
	got, err := Resolve(entity.Action{Type: entity.ActionClick, Selector: "Send"}, "[42] button 'Send'")
	require.NoError(t, err)
	assert.Equal(t, "click [42]", got)
}

func TestResolve_ExplicitHandleShortCircuits(t *testing.T) {
	for _, tree := range []string{"", mailTree, "[7] button 'Other'"} {
		got, err := Resolve(entity.Action{Type: entity.ActionClick, ElementID: "7", Selector: "Send"}, tree)
		require.NoError(t, err)
		assert.Equal(t, "click [7]", got)
	}
}

func TestResolve_Verbs(t *testing.T) {
	tests := []struct {
		name   string
		action entity.Action
		want   string
	}{
		{"input by handle", entity.Action{Type: entity.ActionInput, ElementID: "9", Value: "john@example.com"}, "type [9] john@example.com"},
		{"select by handle", entity.Action{Type: entity.ActionSelect, ElementID: "43", Value: "High"}, "select [43] High"},
		{"click ignores value", entity.Action{Type: entity.ActionClick, ElementID: "5", Value: "x"}, "click [5]"},
		{"id selector", entity.Action{Type: entity.ActionInput, Selector: "#recipient", Value: "a@b.c"}, "type [9] a@b.c"},
		{"class selector", entity.Action{Type: entity.ActionInput, Selector: ".message-body", Value: "hi"}, "type [11] hi"},
		{"quoted name", entity.Action{Type: entity.ActionClick, Selector: "Compose"}, "click [5]"},
		{"raw passthrough", entity.Action{Type: entity.ActionRaw, Raw: " goto [https://example.com] "}, "goto [https://example.com]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.action, mailTree)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindHandle_PatternOrder(t *testing.T) {
	tree := "[3] StaticText 'Inbox'\n[8] link 'Inbox'"

	m, ok := FindHandle(entity.ActionClick, "Inbox", tree)
	require.True(t, ok)
	assert.Equal(t, "3", m.Handle, "first occurrence in text wins within a pattern")
	assert.Equal(t, PatternQuoted, m.Pattern)

	m, ok = FindHandle(entity.ActionClick, "heading", "[2] heading Inbox level: 1")
	require.True(t, ok)
	assert.Equal(t, "2", m.Handle)
	assert.Equal(t, PatternText, m.Pattern)
}

func TestFindHandle_DoesNotCrossNodes(t *testing.T) {
	_, ok := FindHandle(entity.ActionSelect, "Archive", "[1] button 'Send' [menu] Archive")
	assert.False(t, ok)
}

func TestFindHandle_RoleFallback(t *testing.T) {
	m, ok := FindHandle(entity.ActionClick, "#does-not-exist", mailTree)
	require.True(t, ok)
	assert.Equal(t, PatternRole, m.Pattern)
	assert.Equal(t, "4", m.Handle, "first button or link")

	m, ok = FindHandle(entity.ActionInput, "nothing-like-this", mailTree)
	require.True(t, ok)
	assert.Equal(t, "9", m.Handle)

	_, ok = FindHandle(entity.ActionSelect, "nothing-like-this", mailTree)
	assert.False(t, ok, "select has no role fallback")
}

func TestFindHandle_EscapesKey(t *testing.T) {
	m, ok := FindHandle(entity.ActionClick, "Save (draft)", "[6] button 'Save (draft)'")
	require.True(t, ok)
	assert.Equal(t, "6", m.Handle)
}

func TestResolve_ElementNotFound(t *testing.T) {
	_, err := Resolve(entity.Action{Type: entity.ActionClick, Selector: "#missing"}, "[1] RootWebArea 'Empty'")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrElementNotFound))

	var nf *entity.ElementNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "#missing", nf.Selector)
}

func TestResolveOrDegrade(t *testing.T) {
	got, err := ResolveOrDegrade(entity.Action{Type: entity.ActionClick, Selector: "#missing"}, "")
	assert.ErrorIs(t, err, entity.ErrElementNotFound)
	assert.Equal(t, "click [#missing]", got)

	got, err = ResolveOrDegrade(entity.Action{Type: entity.ActionClick, Selector: "Send"}, mailTree)
	require.NoError(t, err)
	assert.Equal(t, "click [42]", got)

	got, err = ResolveOrDegrade(entity.Action{Type: entity.ActionStop}, mailTree)
	assert.ErrorIs(t, err, entity.ErrStopAction)
	assert.Empty(t, got)
}

func TestResolve_InvalidAction(t *testing.T) {
	_, err := Resolve(entity.Action{Type: entity.ActionClick}, mailTree)
	assert.ErrorIs(t, err, entity.ErrInvalidAction)

	_, err = Resolve(entity.Action{Type: "hover", Selector: "x"}, mailTree)
	assert.ErrorIs(t, err, entity.ErrInvalidAction)
}

func TestSearchKey(t *testing.T) {
	assert.Equal(t, "send", SearchKey("#send"))
	assert.Equal(t, "btn", SearchKey(".btn"))
	assert.Equal(t, "button", SearchKey("button"))
	assert.Equal(t, "", SearchKey("#"))
}

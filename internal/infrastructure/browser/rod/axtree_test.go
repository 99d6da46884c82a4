package rod

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

func axValue(v any) *proto.AccessibilityAXValue {
	return &proto.AccessibilityAXValue{Value: gson.New(v)}
}

func axNode(id, parent, role, name string, backend int, children ...string) *proto.AccessibilityAXNode {
	n := &proto.AccessibilityAXNode{
		NodeID:           proto.AccessibilityAXNodeID(id),
		ParentID:         proto.AccessibilityAXNodeID(parent),
		Role:             axValue(role),
		BackendDOMNodeID: proto.DOMBackendNodeID(backend),
	}
	if name != "" {
		n.Name = axValue(name)
	}
	for _, c := range children {
		n.ChildIDs = append(n.ChildIDs, proto.AccessibilityAXNodeID(c))
	}
	return n
}

func TestRenderAXTree_ContactForm(t *testing.T) {
	nodes := []*proto.AccessibilityAXNode{
		axNode("1", "", "RootWebArea", "Contact", 1, "2"),
		axNode("2", "1", "generic", "", 2, "3", "4", "42"),
		axNode("3", "2", "heading", "Contact us", 3, "5"),
		axNode("5", "3", "StaticText", "Contact us", 5),
		axNode("4", "2", "textbox", "Name", 4),
		axNode("42", "2", "button", "Send", 42),
	}
	nodes[2].Properties = []*proto.AccessibilityAXProperty{
		{Name: proto.AccessibilityAXPropertyNameLevel, Value: axValue(2)},
	}
	nodes[4].Properties = []*proto.AccessibilityAXProperty{
		{Name: proto.AccessibilityAXPropertyNameRequired, Value: axValue(true)},
		{Name: proto.AccessibilityAXPropertyNameEditable, Value: axValue("plaintext")},
	}
	attrs := map[proto.DOMBackendNodeID]domAttrs{
		4:  {ID: "name", Name: "name"},
		42: {Class: "btn primary"},
	}

	snap := renderAXTree(nodes, attrs)

	want := "[1] RootWebArea 'Contact'\n" +
		"\t[3] heading 'Contact us' level: 2\n" +
		"\t[4] textbox 'Name' required: True id='name' name='name'\n" +
		"\t[42] button 'Send' class='btn primary'"
	assert.Equal(t, want, snap.Text)
	assert.Equal(t, proto.DOMBackendNodeID(42), snap.Handles["42"])
	assert.Len(t, snap.Handles, 4)
}

func TestRenderAXTree_SkipsIgnoredAndKeepsChildren(t *testing.T) {
	nodes := []*proto.AccessibilityAXNode{
		axNode("1", "", "RootWebArea", "", 1, "2"),
		axNode("2", "1", "none", "", 2, "3"),
		axNode("3", "2", "link", "Home", 3),
	}
	nodes[1].Ignored = true

	snap := renderAXTree(nodes, nil)

	assert.Equal(t, "[1] RootWebArea ''\n\t[3] link 'Home'", snap.Text)
}

func TestRenderAXTree_Empty(t *testing.T) {
	snap := renderAXTree(nil, nil)

	assert.Empty(t, snap.Text)
	assert.Empty(t, snap.Handles)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'Send'", quote("Send"))
	assert.Equal(t, `"It's"`, quote("It's"))
	assert.Equal(t, `'say "hi" it's'`, quote(`say "hi" it's`))
}

func TestAXString(t *testing.T) {
	assert.Equal(t, "", axString(nil))
	assert.Equal(t, "False", axString(axValue(false)))
	assert.Equal(t, "3", axString(axValue(3.0)))
	assert.Equal(t, "0.5", axString(axValue(0.5)))
	assert.Equal(t, "text", axString(axValue("text")))
}

func TestCollectDOMAttrs(t *testing.T) {
	root := &proto.DOMNode{
		BackendNodeID: 1,
		Children: []*proto.DOMNode{
			{BackendNodeID: 2, Attributes: []string{"id", "priority", "class", "  a\tb "}},
			{
				BackendNodeID: 3,
				ShadowRoots: []*proto.DOMNode{
					{BackendNodeID: 4, Attributes: []string{"name", "q"}},
				},
			},
			{
				BackendNodeID:   5,
				ContentDocument: &proto.DOMNode{BackendNodeID: 6, Attributes: []string{"id", "inner"}},
			},
		},
	}

	attrs := collectDOMAttrs(root)

	require.Len(t, attrs, 3)
	assert.Equal(t, domAttrs{ID: "priority", Class: "a b"}, attrs[2])
	assert.Equal(t, domAttrs{Name: "q"}, attrs[4])
	assert.Equal(t, domAttrs{ID: "inner"}, attrs[6])
}

package rod

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// Roles that only structure the page. They are dropped when they carry no
// name; their children are still rendered.
var structuralRoles = map[string]bool{
	"generic":       true,
	"none":          true,
	"presentation":  true,
	"img":           true,
	"list":          true,
	"listitem":      true,
	"strong":        true,
	"paragraph":     true,
	"banner":        true,
	"navigation":    true,
	"Section":       true,
	"LabelText":     true,
	"Legend":        true,
	"InlineTextBox": true,
	"LineBreak":     true,
}

// Properties shown after the name; everything else is noise for agents.
var shownProperties = map[proto.AccessibilityAXPropertyName]bool{
	proto.AccessibilityAXPropertyNameFocused:  true,
	proto.AccessibilityAXPropertyNameRequired: true,
	proto.AccessibilityAXPropertyNameChecked:  true,
	proto.AccessibilityAXPropertyNameDisabled: true,
	proto.AccessibilityAXPropertyNameExpanded: true,
	proto.AccessibilityAXPropertyNameSelected: true,
	proto.AccessibilityAXPropertyNameLevel:    true,
	proto.AccessibilityAXPropertyNameHasPopup: true,
	proto.AccessibilityAXPropertyNameURL:      true,
}

// domAttrs are the DOM attributes appended to a node line so that id and
// class selectors can be found in the tree text.
type domAttrs struct {
	ID    string
	Name  string
	Class string
}

// axSnapshot is one rendered tree plus the handle → DOM node mapping that
// belongs to it.
type axSnapshot struct {
	Text    string
	Handles map[string]proto.DOMBackendNodeID
}

// renderAXTree flattens the accessibility tree into the "[handle] role 'name'"
// text format. A handle is the AX node id, which Chrome derives from the DOM
// node, so it stays valid across observations of the same document.
func renderAXTree(nodes []*proto.AccessibilityAXNode, attrs map[proto.DOMBackendNodeID]domAttrs) axSnapshot {
	snap := axSnapshot{Handles: make(map[string]proto.DOMBackendNodeID)}
	if len(nodes) == 0 {
		return snap
	}

	byID := make(map[proto.AccessibilityAXNodeID]*proto.AccessibilityAXNode, len(nodes))
	for _, n := range nodes {
		byID[n.NodeID] = n
	}

	var root *proto.AccessibilityAXNode
	for _, n := range nodes {
		if n.ParentID == "" {
			root = n
			break
		}
	}
	if root == nil {
		root = nodes[0]
	}

	var sb strings.Builder
	visited := make(map[proto.AccessibilityAXNodeID]bool, len(nodes))

	var walk func(n *proto.AccessibilityAXNode, depth int, parentName string)
	walk = func(n *proto.AccessibilityAXNode, depth int, parentName string) {
		if n == nil || visited[n.NodeID] {
			return
		}
		visited[n.NodeID] = true

		role := axString(n.Role)
		name := strings.TrimSpace(axString(n.Name))

		childDepth := depth
		if keepNode(n, role, name, parentName) {
			handle := string(n.NodeID)
			if n.BackendDOMNodeID != 0 {
				snap.Handles[handle] = n.BackendDOMNodeID
			}

			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strings.Repeat("\t", depth))
			sb.WriteString(formatNode(handle, role, name, n.Properties, attrs[n.BackendDOMNodeID]))
			childDepth = depth + 1
		}

		for _, id := range n.ChildIDs {
			walk(byID[id], childDepth, name)
		}
	}
	walk(root, 0, "")

	snap.Text = sb.String()
	return snap
}

func keepNode(n *proto.AccessibilityAXNode, role, name, parentName string) bool {
	if n.Ignored || role == "" {
		return false
	}
	if structuralRoles[role] && name == "" {
		return false
	}
	// Static text repeating its parent's accessible name adds nothing.
	if role == "StaticText" && (name == "" || strings.Contains(parentName, name)) {
		return false
	}
	return true
}

func formatNode(handle, role, name string, props []*proto.AccessibilityAXProperty, a domAttrs) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s %s", handle, role, quote(name))

	for _, p := range props {
		if p == nil || !shownProperties[p.Name] {
			continue
		}
		v := axString(p.Value)
		if v == "" {
			continue
		}
		fmt.Fprintf(&sb, " %s: %s", p.Name, v)
	}

	if a.ID != "" {
		fmt.Fprintf(&sb, " id=%s", quote(a.ID))
	}
	if a.Name != "" {
		fmt.Fprintf(&sb, " name=%s", quote(a.Name))
	}
	if a.Class != "" {
		fmt.Fprintf(&sb, " class=%s", quote(a.Class))
	}
	return sb.String()
}

// quote wraps s in single quotes, switching to double quotes when s has one.
func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}

// axString renders an AX value the way agents expect: booleans as True/False
// and whole numbers without a fraction.
func axString(v *proto.AccessibilityAXValue) string {
	if v == nil || v.Value.Nil() {
		return ""
	}
	switch val := v.Value.Val().(type) {
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}

// collectDOMAttrs walks a DOM.getDocument tree, shadow roots and frames
// included, and keeps id, name and class per backend node.
func collectDOMAttrs(root *proto.DOMNode) map[proto.DOMBackendNodeID]domAttrs {
	out := make(map[proto.DOMBackendNodeID]domAttrs)

	var walk func(n *proto.DOMNode)
	walk = func(n *proto.DOMNode) {
		if n == nil {
			return
		}
		if len(n.Attributes) > 0 {
			var a domAttrs
			for i := 0; i+1 < len(n.Attributes); i += 2 {
				switch n.Attributes[i] {
				case "id":
					a.ID = n.Attributes[i+1]
				case "name":
					a.Name = n.Attributes[i+1]
				case "class":
					a.Class = strings.Join(strings.Fields(n.Attributes[i+1]), " ")
				}
			}
			if a != (domAttrs{}) {
				out[n.BackendNodeID] = a
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
		for _, s := range n.ShadowRoots {
			walk(s)
		}
		walk(n.ContentDocument)
	}
	walk(root)

	return out
}

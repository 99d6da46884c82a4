package rod

import (
	"strings"
	"testing"
)

func renderForTest(t *testing.T, raw string, cfg *CleanConfig) string {
	t.Helper()
	out, err := renderHTMLTree(raw, cfg)
	if err != nil {
		t.Fatalf("render html tree: %v", err)
	}
	return out
}

func TestRenderHTMLTree_RemovesScriptStyle(t *testing.T) {
	raw := `
<body>
    <div id="main">Hello</div>
    <script>alert("hi")</script>
    <style>.x {}</style>
</body>`

	out := renderForTest(t, raw, nil)

	if strings.Contains(out, "<script") || strings.Contains(out, "<style") {
		t.Errorf("script/style tags must be removed, output: %s", out)
	}
	if !strings.Contains(out, `id="main"`) {
		t.Errorf("expected to keep normal elements")
	}
}

func TestRenderHTMLTree_RemovesComments(t *testing.T) {
	out := renderForTest(t, `<body><!-- comment --><div>Text</div></body>`, nil)

	if strings.Contains(out, "comment") {
		t.Errorf("HTML comments must be removed")
	}
}

func TestRenderHTMLTree_FiltersAttributes(t *testing.T) {
	raw := `<body><a href="/next" class="link" id="x" data-x="1" onclick="go()" style="color:red" aria-label="Next">Go</a></body>`

	out := renderForTest(t, raw, nil)

	for _, kept := range []string{`href="/next"`, `class="link"`, `id="x"`, `aria-label="Next"`} {
		if !strings.Contains(out, kept) {
			t.Errorf("%s must be kept, output: %s", kept, out)
		}
	}
	for _, dropped := range []string{"data-x", "onclick", "style="} {
		if strings.Contains(out, dropped) {
			t.Errorf("%s must be removed, output: %s", dropped, out)
		}
	}
}

func TestRenderHTMLTree_PrefixesHandles(t *testing.T) {
	raw := `<body>
<p>Contact</p>
<input id="name" data-eval-handle="1">
<button data-eval-handle="2">Send</button>
</body>`

	out := renderForTest(t, raw, nil)

	if !strings.Contains(out, `[1] <input id="name"/>`) {
		t.Errorf("input must carry its handle, output: %s", out)
	}
	if !strings.Contains(out, `[2] <button>Send</button>`) {
		t.Errorf("button must carry its handle, output: %s", out)
	}
	if strings.Contains(out, handleAttr) {
		t.Errorf("handle attribute must not leak, output: %s", out)
	}
}

func TestRenderHTMLTree_RemovesHead(t *testing.T) {
	raw := `<html><head><meta charset="utf-8"><link rel="stylesheet" href="x.css"></head><body><p>Hi</p></body></html>`

	out := renderForTest(t, raw, nil)

	if strings.Contains(out, "<meta") || strings.Contains(out, "<link") {
		t.Errorf("head/meta/link must be removed")
	}
	if out != "<p>Hi</p>" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRenderHTMLTree_Truncation(t *testing.T) {
	var big strings.Builder
	big.WriteString("<body>")
	for i := 0; i < 100; i++ {
		big.WriteString("<div>test</div>")
	}
	big.WriteString("</body>")

	cfg := DefaultCleanConfig
	cfg.MaxOutputSize = 200

	out := renderForTest(t, big.String(), &cfg)

	if !strings.HasSuffix(out, "<!-- HTML truncated -->") {
		t.Errorf("truncation notice must appear")
	}
	if len(out) > 200+len("\n<!-- HTML truncated -->") {
		t.Errorf("output must be truncated, got %d bytes", len(out))
	}
}

package rod

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/domain/entity"
)

var _ output.EnvironmentPort = (*Environment)(nil)

// errActionFailed marks failures of the action itself. They are reported in
// the step info instead of ending the evaluation.
var errActionFailed = errors.New("action failed")

const (
	settleTimeout = 2 * time.Second
	scrollJS      = `(dy) => window.scrollBy(0, dy * window.innerHeight)`
)

// Environment is one isolated browser context with a single page.
type Environment struct {
	cfg    Config
	logger output.LoggerPort

	// session is the incognito browser owning the page.
	session *rod.Browser
	page    *rod.Page

	mu      sync.Mutex
	handles map[string]proto.DOMBackendNodeID
	closed  bool
}

func newEnvironment(cfg Config, session *rod.Browser, page *rod.Page, logger output.LoggerPort) *Environment {
	return &Environment{
		cfg:     cfg,
		logger:  logger,
		session: session,
		page:    page,
		handles: make(map[string]proto.DOMBackendNodeID),
	}
}

func (e *Environment) Reset(ctx context.Context, url string) (*entity.Observation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	page := e.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.Timeout(e.cfg.Timeout).WaitLoad(); err != nil {
		e.logger.Warn("Page load did not finish", "url", url, "error", err)
	}

	if e.cfg.WaitForLoad {
		_, ready, err := waitForContent(ctx, e.cfg.LoadTimeout, loadPollInterval, func(ctx context.Context) (string, error) {
			return e.renderTree(e.page.Context(ctx))
		})
		if err != nil {
			return nil, fmt.Errorf("wait for content: %w", err)
		}
		if !ready {
			e.logger.Warn("Page still looks incomplete", "url", url, "timeout", e.cfg.LoadTimeout)
		}
	}

	return e.observe(page)
}

// Step executes one action string. Only browser failures are returned as
// errors; a failed action still yields the fresh observation together with
// Info["fail_error"].
func (e *Environment) Step(ctx context.Context, action string) (*entity.StepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	page := e.page.Context(ctx)
	res := &entity.StepResult{Info: map[string]any{}}

	cmd, err := ParseCommand(action)
	if err == nil {
		err = e.execute(page, cmd, res)
	} else {
		err = fmt.Errorf("%w: %w", errActionFailed, err)
	}

	if err != nil {
		if ctx.Err() != nil || !errors.Is(err, errActionFailed) {
			return nil, err
		}
		e.logger.Warn("Action failed", "action", action, "error", err)
		res.Info["fail_error"] = err.Error()
	}

	_ = page.WaitIdle(settleTimeout)

	obs, err := e.observe(page)
	if err != nil {
		return nil, err
	}
	res.Observation = obs
	return res, nil
}

func (e *Environment) execute(page *rod.Page, cmd Command, res *entity.StepResult) error {
	var el *rod.Element
	if cmd.IsElementAction() {
		var err error
		if el, err = e.element(page, cmd.Arg); err != nil {
			return err
		}
	}

	switch cmd.Verb {
	case VerbClick:
		return soft(el.Timeout(e.cfg.Timeout).Click(proto.InputMouseButtonLeft, 1))
	case VerbType:
		if err := el.Timeout(e.cfg.Timeout).SelectAllText(); err == nil {
			_ = el.Input("")
		}
		if err := el.Timeout(e.cfg.Timeout).Input(cmd.Value); err != nil {
			return soft(err)
		}
		if cmd.Enter {
			return page.Keyboard.Type(input.Enter)
		}
		return nil
	case VerbSelect:
		return soft(selectOption(el.Timeout(e.cfg.Timeout), cmd.Value))
	case VerbGoto:
		if err := page.Navigate(cmd.Arg); err != nil {
			return soft(err)
		}
		return soft(page.Timeout(e.cfg.Timeout).WaitLoad())
	case VerbScroll:
		dy := 1
		if cmd.Arg == "up" {
			dy = -1
		}
		_, err := page.Eval(scrollJS, dy)
		return err
	case VerbPress:
		key, _ := keyByName(cmd.Arg)
		return page.Keyboard.Type(key)
	case VerbGoBack:
		return soft(page.NavigateBack())
	case VerbGoForward:
		return soft(page.NavigateForward())
	case VerbNoop:
		if cmd.Wait > 0 {
			return sleep(page.GetContext(), cmd.Wait)
		}
		return nil
	case VerbStop:
		res.Terminated = true
		res.Info["answer"] = cmd.Value
		return nil
	}
	return fmt.Errorf("%w: %w: %s", errActionFailed, ErrUnknownAction, cmd.Verb)
}

func selectOption(el *rod.Element, value string) error {
	if err := el.Select([]string{value}, true, rod.SelectorTypeText); err == nil {
		return nil
	}
	return el.Select([]string{fmt.Sprintf("option[value=%q]", value)}, true, rod.SelectorTypeCSSSector)
}

// element finds the DOM element behind a handle of the last observation.
func (e *Environment) element(page *rod.Page, handle string) (*rod.Element, error) {
	if e.cfg.ObservationType == ObservationHTML {
		els, err := page.Elements(fmt.Sprintf("[%s=%q]", handleAttr, handle))
		if err != nil {
			return nil, err
		}
		if len(els) == 0 {
			return nil, fmt.Errorf("%w: no element with handle [%s]", errActionFailed, handle)
		}
		return els.First(), nil
	}

	id, ok := e.handles[handle]
	if !ok {
		n, err := strconv.Atoi(handle)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: no element with handle [%s]", errActionFailed, handle)
		}
		id = proto.DOMBackendNodeID(n)
	}

	el, err := page.ElementFromNode(&proto.DOMNode{BackendNodeID: id})
	if err != nil {
		return nil, fmt.Errorf("%w: element [%s] is gone: %w", errActionFailed, handle, err)
	}
	return el, nil
}

func (e *Environment) observe(page *rod.Page) (*entity.Observation, error) {
	text, err := e.renderTree(page)
	if err != nil {
		return nil, err
	}
	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}
	return &entity.Observation{Text: text, URL: info.URL}, nil
}

func (e *Environment) renderTree(page *rod.Page) (string, error) {
	if e.cfg.ObservationType == ObservationHTML {
		if _, err := page.Eval(stampHandlesJS); err != nil {
			return "", fmt.Errorf("stamp handles: %w", err)
		}
		raw, err := page.HTML()
		if err != nil {
			return "", fmt.Errorf("read html: %w", err)
		}
		return renderHTMLTree(raw, nil)
	}

	tree, err := proto.AccessibilityGetFullAXTree{}.Call(page)
	if err != nil {
		return "", fmt.Errorf("accessibility tree: %w", err)
	}
	doc, err := proto.DOMGetDocument{Depth: gson.Int(-1), Pierce: true}.Call(page)
	if err != nil {
		return "", fmt.Errorf("dom document: %w", err)
	}

	snap := renderAXTree(tree.Nodes, collectDOMAttrs(doc.Root))
	e.handles = snap.Handles
	return snap.Text, nil
}

func (e *Environment) Render(ctx context.Context) (*entity.Screenshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errors.New("environment closed")
	}

	raw, err := e.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return encodeScreenshot(raw)
}

// Close disposes the browser context together with its page. Safe to call
// more than once.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.session.Close(); err != nil {
		return fmt.Errorf("close browser context: %w", err)
	}
	return nil
}

// soft marks an element interaction error as an action failure.
func soft(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errActionFailed, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Package rod is the browser environment: a go-rod driven Chrome page that
// turns action strings into browser input and renders the page back as a
// text tree agents can read.
package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"agent-evaluator/internal/application/port/output"
)

var _ output.EnvironmentFactory = (*Factory)(nil)

type ObservationType string

const (
	ObservationAXTree ObservationType = "accessibility_tree"
	ObservationHTML   ObservationType = "html"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultLoadTimeout = 60 * time.Second
	viewportWidth      = 1280
	viewportHeight     = 720
)

type Config struct {
	Headless  bool
	NoSandbox bool
	// Bin overrides the browser binary; empty lets the launcher pick one.
	Bin string
	// ControlURL connects to an already running browser instead of launching.
	ControlURL      string
	Timeout         time.Duration
	ObservationType ObservationType
	WaitForLoad     bool
	LoadTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		Headless:        true,
		Timeout:         defaultTimeout,
		ObservationType: ObservationAXTree,
		LoadTimeout:     defaultLoadTimeout,
	}
}

func ParseObservationType(s string) (ObservationType, error) {
	switch ObservationType(s) {
	case "", ObservationAXTree:
		return ObservationAXTree, nil
	case ObservationHTML:
		return ObservationHTML, nil
	}
	return "", fmt.Errorf("unsupported observation type %q", s)
}

// Factory shares one browser process; every environment gets its own
// incognito context.
type Factory struct {
	cfg    Config
	logger output.LoggerPort

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func NewFactory(cfg Config, logger output.LoggerPort) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaultLoadTimeout
	}
	if cfg.ObservationType == "" {
		cfg.ObservationType = ObservationAXTree
	}
	return &Factory{cfg: cfg, logger: logger}
}

func (f *Factory) NewEnvironment(ctx context.Context) (output.EnvironmentPort, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := f.connect()
	if err != nil {
		return nil, err
	}

	session, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	page, err := session.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  viewportWidth,
		Height: viewportHeight,
	}); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if f.cfg.ObservationType == ObservationAXTree {
		if err := (proto.AccessibilityEnable{}).Call(page); err != nil {
			_ = session.Close()
			return nil, fmt.Errorf("enable accessibility: %w", err)
		}
	}

	return newEnvironment(f.cfg, session, page, f.logger), nil
}

// connect starts or attaches to the browser on first use.
func (f *Factory) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	url := f.cfg.ControlURL
	if url == "" {
		l := launcher.New().
			Headless(f.cfg.Headless).
			NoSandbox(f.cfg.NoSandbox).
			Delete("use-mock-keychain").
			Set("disable-dev-shm-usage")
		if f.cfg.Bin != "" {
			l = l.Bin(f.cfg.Bin)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		url = u
		f.launcher = l
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		f.killLauncher()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	f.logger.Info("Browser connected", "headless", f.cfg.Headless, "observation_type", f.cfg.ObservationType)
	f.browser = browser
	return browser, nil
}

// Close shuts the shared browser down. Environments still open become
// unusable.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if f.browser != nil {
		if f.launcher != nil {
			err = f.browser.Close()
		}
		f.browser = nil
	}
	f.killLauncher()
	return err
}

func (f *Factory) killLauncher() {
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher.Cleanup()
		f.launcher = nil
	}
}

package di

import (
	"fmt"
	"time"

	"agent-evaluator/internal/adapter/api"
	"agent-evaluator/internal/application/port/output"
	"agent-evaluator/internal/infrastructure/browser/rod"
	"agent-evaluator/internal/infrastructure/callback"
	"agent-evaluator/internal/infrastructure/logger"
	"agent-evaluator/internal/infrastructure/sandbox"
	"agent-evaluator/internal/usecase/evaluator"
)

const (
	defaultHTTPAddr        = ":8000"
	defaultShutdownTimeout = 30 * time.Second
)

// Config is everything the container needs, resolved from the environment
// once at startup.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	Logger    logger.Config
	Router    api.RouterConfig
	Evaluator evaluator.Config
	Browser   rod.Config
	Sandbox   sandbox.Config
	Callback  callback.Config
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:        defaultHTTPAddr,
		ShutdownTimeout: defaultShutdownTimeout,
		Logger:          logger.DefaultConfig(),
		Router:          api.DefaultRouterConfig(),
		Evaluator:       evaluator.DefaultConfig(),
		Browser:         rod.DefaultConfig(),
		Sandbox:         sandbox.DefaultConfig(),
		Callback:        callback.DefaultConfig(),
	}
}

// LoadConfig overlays environment keys on DefaultConfig.
func LoadConfig(env output.ConfigPort) (Config, error) {
	cfg := DefaultConfig()

	cfg.HTTPAddr = env.GetWithDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.ShutdownTimeout = env.GetDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.Logger.Level = env.GetWithDefault("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = env.GetWithDefault("LOG_FORMAT", cfg.Logger.Format)
	cfg.Logger.File = env.GetWithDefault("LOG_FILE", cfg.Logger.File)
	cfg.Logger.MaxSizeMB = env.GetInt("LOG_MAX_SIZE_MB", cfg.Logger.MaxSizeMB)
	cfg.Logger.MaxBackups = env.GetInt("LOG_MAX_BACKUPS", cfg.Logger.MaxBackups)
	cfg.Logger.MaxAgeDays = env.GetInt("LOG_MAX_AGE_DAYS", cfg.Logger.MaxAgeDays)

	cfg.Router.RequestTimeout = env.GetDuration("HTTP_REQUEST_TIMEOUT", cfg.Router.RequestTimeout)
	cfg.Router.AccessLog = env.GetBool("HTTP_ACCESS_LOG", cfg.Router.AccessLog)
	cfg.Router.JSONAccess = cfg.Logger.Format != "console"

	cfg.Evaluator.MaxSteps = env.GetInt("MAX_STEPS", cfg.Evaluator.MaxSteps)
	cfg.Evaluator.StepDelay = env.GetDuration("STEP_DELAY", cfg.Evaluator.StepDelay)
	cfg.Evaluator.Timeout = env.GetDuration("EVALUATION_TIMEOUT", cfg.Evaluator.Timeout)
	if cfg.Evaluator.MaxSteps <= 0 {
		return Config{}, fmt.Errorf("MAX_STEPS must be positive, got %d", cfg.Evaluator.MaxSteps)
	}

	cfg.Browser.Headless = env.GetBool("BROWSER_HEADLESS", cfg.Browser.Headless)
	cfg.Browser.NoSandbox = env.GetBool("BROWSER_NO_SANDBOX", cfg.Browser.NoSandbox)
	cfg.Browser.Bin = env.GetWithDefault("BROWSER_BIN", cfg.Browser.Bin)
	cfg.Browser.ControlURL = env.GetWithDefault("BROWSER_CONTROL_URL", cfg.Browser.ControlURL)
	cfg.Browser.Timeout = env.GetDuration("BROWSER_TIMEOUT", cfg.Browser.Timeout)
	cfg.Browser.WaitForLoad = env.GetBool("WAIT_FOR_LOAD", cfg.Browser.WaitForLoad)
	cfg.Browser.LoadTimeout = env.GetDuration("LOAD_TIMEOUT", cfg.Browser.LoadTimeout)
	obsType, err := rod.ParseObservationType(env.GetWithDefault("OBSERVATION_TYPE", string(cfg.Browser.ObservationType)))
	if err != nil {
		return Config{}, fmt.Errorf("OBSERVATION_TYPE: %w", err)
	}
	cfg.Browser.ObservationType = obsType

	if steps := env.GetInt("AGENT_MAX_EXECUTION_STEPS", 0); steps > 0 {
		cfg.Sandbox.MaxExecutionSteps = uint64(steps)
	}
	cfg.Sandbox.TempDir = env.GetWithDefault("AGENT_TEMP_DIR", cfg.Sandbox.TempDir)

	cfg.Callback.Timeout = env.GetDuration("CALLBACK_TIMEOUT", cfg.Callback.Timeout)

	return cfg, nil
}

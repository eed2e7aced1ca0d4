package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/solkit/pkg/http/app"
	"github.com/code-payments/solkit/pkg/instruction"
	"github.com/code-payments/solkit/pkg/netutil"
	"github.com/code-payments/solkit/pkg/rate"
)

const (
	rateLimitIdleTTL = 10 * time.Minute
)

// ServiceConfig is the app specific configuration, found under the "app" key.
type ServiceConfig struct {
	CORSEnabled        bool     `mapstructure:"cors_enabled"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders []string `mapstructure:"cors_allowed_headers"`

	// RateLimitPerSecond is the per client IP request rate. Zero disables
	// rate limiting.
	RateLimitPerSecond     float64 `mapstructure:"rate_limit_per_second"`
	RateLimitPruneSchedule string  `mapstructure:"rate_limit_prune_schedule"`
	TrustForwardedFor      bool    `mapstructure:"trust_forwarded_for"`

	// DerivationCacheBudget is the number of associated account derivations
	// kept in memory. Zero disables the cache.
	DerivationCacheBudget int `mapstructure:"derivation_cache_budget"`
}

// Empty CORS lists fall back to the policy defaults.
var defaultServiceConfig = ServiceConfig{
	CORSEnabled: true,

	RateLimitPerSecond:     0,
	RateLimitPruneSchedule: "@every 5m",

	DerivationCacheBudget: 1024,
}

// DecodeServiceConfig decodes the app section of the configuration on top of
// the defaults.
func DecodeServiceConfig(raw app.Config) (ServiceConfig, error) {
	config := defaultServiceConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return ServiceConfig{}, err
	}
	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return ServiceConfig{}, errors.Wrap(err, "invalid app config")
	}

	origins := make([]string, len(config.CORSAllowedOrigins))
	for i, origin := range config.CORSAllowedOrigins {
		if origins[i], err = netutil.NormalizeOrigin(origin); err != nil {
			return ServiceConfig{}, errors.Wrapf(err, "invalid cors origin %q", origin)
		}
	}
	if len(origins) > 0 {
		config.CORSAllowedOrigins = origins
	}
	if config.RateLimitPerSecond < 0 {
		return ServiceConfig{}, errors.New("rate limit must not be negative")
	}

	return config, nil
}

// App runs the web Server within an app.App lifecycle.
type App struct {
	log  *logrus.Entry
	opts []Option

	server  *Server
	limiter *rate.LocalRateLimiter
	cron    *cron.Cron

	stopOnce   sync.Once
	shutdownCh chan struct{}
}

// NewApp returns an App. The options are applied after the ones derived from
// configuration.
func NewApp(opts ...Option) *App {
	return &App{
		log:        logrus.StandardLogger().WithField("type", "web/app"),
		opts:       opts,
		shutdownCh: make(chan struct{}),
	}
}

// Init implements app.App.Init.
func (a *App) Init(raw app.Config, _ *newrelic.Application) error {
	config, err := DecodeServiceConfig(raw)
	if err != nil {
		return err
	}

	opts := []Option{
		WithBuilder(instruction.NewBuilder(instruction.WithDerivationCache(config.DerivationCacheBudget))),
		WithTrustedForwardedFor(config.TrustForwardedFor),
	}

	if config.CORSEnabled {
		opts = append(opts, WithCORS(config.CORSAllowedOrigins, config.CORSAllowedMethods, config.CORSAllowedHeaders))
	}

	if config.RateLimitPerSecond > 0 {
		a.limiter = rate.NewLocalRateLimiter(xrate.Limit(config.RateLimitPerSecond))
		opts = append(opts, WithRateLimiter(a.limiter))

		a.cron = cron.New()
		_, err := a.cron.AddFunc(config.RateLimitPruneSchedule, func() {
			removed := a.limiter.Prune(rateLimitIdleTTL)
			a.log.WithField("removed", removed).Debug("pruned idle rate limit state")
		})
		if err != nil {
			return errors.Wrap(err, "invalid rate limit prune schedule")
		}
		a.cron.Start()
	}

	a.server = NewServer(append(opts, a.opts...)...)

	a.log.WithFields(logrus.Fields{
		"cors_enabled":            config.CORSEnabled,
		"rate_limit_per_second":   config.RateLimitPerSecond,
		"derivation_cache_budget": config.DerivationCacheBudget,
	}).Info("web app initialized")

	return nil
}

// RegisterWithHTTP implements app.App.RegisterWithHTTP.
func (a *App) RegisterWithHTTP(mux *http.ServeMux) {
	a.server.RegisterWithHTTP(mux)
}

// ShutdownChan implements app.App.ShutdownChan.
func (a *App) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

// Stop implements app.App.Stop.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		if a.cron != nil {
			<-a.cron.Stop().Done()
		}
		close(a.shutdownCh)
	})
}

package app

import (
	"context"
	"crypto/tls"
	"expvar"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/solkit/pkg/metrics"
	"github.com/code-payments/solkit/pkg/osutil"
)

// App is a long lived application that services HTTP requests.
//
// The lifecycle of the App is tied to the process. The app gets initialized
// before the HTTP server runs, and gets stopped after the HTTP server has stopped
// serving.
type App interface {
	// Init initializes the application in a blocking fashion. When Init returns, it
	// is expected that the application is ready to start receiving requests.
	Init(config Config, metricsProvider *newrelic.Application) error

	// RegisterWithHTTP provides a mechanism for the application to install its
	// handlers on the HTTP server.
	RegisterWithHTTP(mux *http.ServeMux)

	// ShutdownChan returns a channel that is closed when the application is shutdown.
	//
	// If the channel is closed, the HTTP server will initiate a shutdown if it has
	// not already done so.
	ShutdownChan() <-chan struct{}

	// Stop stops the service, allowing for it to clean up any resources. When Stop()
	// returns, the process exits.
	//
	// Stop should be idempotent.
	Stop()
}

func Run(app App, options ...Option) error {
	var opts opts
	for _, o := range options {
		o(&opts)
	}

	logger := logrus.StandardLogger().WithField("type", "http/app")

	config, err := LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}

		metricsProvider = nr
	}

	configureLogger(config, metricsProvider)

	// pprof and expvar install themselves on the default mux, so they're only
	// ever served from the dedicated debug server.
	http.DefaultServeMux = http.NewServeMux()

	debugHTTPMux := http.NewServeMux()
	if config.EnableExpvar {
		debugHTTPMux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		debugHTTPMux.HandleFunc("/debug/pprof/", pprof.Index)
		debugHTTPMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		debugHTTPMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		debugHTTPMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		debugHTTPMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	if config.EnableExpvar || config.EnablePprof {
		go func() {
			for {
				if err := http.ListenAndServe(config.DebugListenAddress, debugHTTPMux); err != nil {
					logger.WithError(err).Warn("Debug HTTP server failed. Retrying in 5s...")
				}
				time.Sleep(5 * time.Second)
			}
		}()
	}

	var ballast []byte
	if config.EnableBallast {
		ballast = make([]byte, ballastSize(config.BallastCapacity, osutil.GetTotalMemory()))
	}

	memoryLeakShutdownCh := make(chan struct{})
	if config.EnableMemoryLeakCron {
		cronJob := cron.New(cron.WithLocation(time.Local))
		_, err = cronJob.AddFunc(config.MemoryLeakCronSchedule, func() {
			close(memoryLeakShutdownCh)
		})
		if err != nil {
			return errors.Wrap(err, "failed to initialize memory leak cron")
		}
		cronJob.Start()
		defer cronJob.Stop()
	}

	var tlsConfig *tls.Config
	if config.TLSCertificate != "" {
		tlsConfig, err = loadTLSConfig(config.TLSCertificate, config.TLSKey)
		if err != nil {
			return err
		}
	}

	lis, err := net.Listen("tcp", config.ListenAddress)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", config.ListenAddress)
	}
	if tlsConfig != nil {
		lis = tls.NewListener(lis, tlsConfig)
	}

	if err := app.Init(config.AppConfig, metricsProvider); err != nil {
		lis.Close()
		return errors.Wrap(err, "failed to initialize application")
	}

	mux := http.NewServeMux()
	app.RegisterWithHTTP(mux)

	middlewares := []Middleware{recoveryMiddleware(logger), requestIDMiddleware()}
	if metricsProvider != nil {
		middlewares = append(middlewares, newRelicMiddleware(metricsProvider))
	}
	middlewares = append(middlewares, opts.middlewares...)

	server := &http.Server{
		Handler:           chain(mux, middlewares),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	serverShutdownCh := make(chan struct{})
	go func() {
		if err := server.Serve(lis); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http serve stopped")
		} else {
			logger.Info("http server stopped")
		}

		close(serverShutdownCh)
	}()

	logger.WithField("address", lis.Addr().String()).Info("http server started")

	osSigCh := make(chan os.Signal, 1)
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer signal.Stop(osSigCh)

	// Wait for the following shutdown conditions:
	//    1. OS Signal telling us to shutdown
	//    2. The HTTP Server has shutdown (for whatever reason)
	//    3. The application has shutdown (for whatever reason)
	select {
	case <-osSigCh:
		logger.Info("interrupt received, shutting down")
	case <-serverShutdownCh:
		logger.Info("http server shutdown")
	case <-memoryLeakShutdownCh:
		logger.Info("shutdown to deal with memory leak")
	case <-app.ShutdownChan():
		logger.Info("app shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod)
	defer cancel()

	shutdownCh := make(chan struct{})
	go func() {
		// Both the HTTP server and the application have idempotent shutdown
		// methods, so it's fine call them both, regardless of the shutdown
		// condition.
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("failure shutting down http server")
		}
		app.Stop()

		close(shutdownCh)
	}()

	select {
	case <-shutdownCh:
		// Ensure the ballast is used to avoid any possible compiler optimizations
		// around unused variable.
		if len(ballast) > 0 {
			ballast[0] = 1
		}

		if metricsProvider != nil {
			metricsProvider.Shutdown(5 * time.Second)
		}

		return nil
	case <-ctx.Done():
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}
}

func loadTLSConfig(certURL, keyURL string) (*tls.Config, error) {
	if keyURL == "" {
		return nil, errors.New("tls key must be provided if certificate is specified")
	}

	certBytes, err := LoadFile(certURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tls certificate")
	}

	keyBytes, err := LoadFile(keyURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tls key")
	}

	cert, err := tls.X509KeyPair(certBytes, keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "invalid certificate/private key")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func ballastSize(capacity float32, totalMemory uint64) uint64 {
	if capacity > 0.5 {
		capacity = 0.5
	}
	if capacity < 0 {
		capacity = 0
	}
	return uint64(capacity * float32(totalMemory))
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/auth"
	"github.com/ismaiel54/fix-order-client/internal/chaos"
	"github.com/ismaiel54/fix-order-client/internal/config"
	"github.com/ismaiel54/fix-order-client/internal/journal"
	"github.com/ismaiel54/fix-order-client/internal/logging"
	"github.com/ismaiel54/fix-order-client/internal/msg"
	"github.com/ismaiel54/fix-order-client/internal/observability"
	"github.com/ismaiel54/fix-order-client/internal/order"
	"github.com/ismaiel54/fix-order-client/internal/rfq"
	"github.com/ismaiel54/fix-order-client/internal/scenario"
	"github.com/ismaiel54/fix-order-client/internal/session"
	"github.com/ismaiel54/fix-order-client/internal/transport"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	env := flag.String("env", "development", "environment: development, test or production")
	flag.Parse()

	cfg, err := config.Load(*env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLoggerWithFile(cfg.ServiceName, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if err := scenario.Check(cfg.Scenario); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	trading, err := scenario.ParseTrading(cfg.Trading)
	if err != nil {
		logger.Fatal("invalid trading parameters", zap.Error(err))
	}

	logger.Info("starting fix client",
		zap.String("env", *env),
		zap.String("server", cfg.ServerAddr()),
		zap.String("scenario", cfg.Scenario),
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
	)

	if err := run(cfg, trading, logger); err != nil {
		logger.Error("fix client failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("fix client stopped")
}

// run connects, logs on and executes the configured scenario.
func run(cfg *config.Config, trading scenario.Trading, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker(logger, metrics.Registry())

	httpErrCh := make(chan error, 1)
	if cfg.HTTPPort > 0 {
		go func() {
			if err := healthChecker.StartHTTPServer(cfg.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErrCh <- err
			}
		}()
	}

	var grpcServer *grpc.Server
	if cfg.GRPCPort > 0 {
		grpcServer = grpc.NewServer()
		healthChecker.RegisterGRPC(grpcServer)
		grpcListener, err := net.Listen("tcp", cfg.GRPCAddr())
		if err != nil {
			return fmt.Errorf("listen on gRPC port: %w", err)
		}
		go func() {
			logger.Info("gRPC health server listening", zap.String("addr", cfg.GRPCAddr()))
			if err := grpcServer.Serve(grpcListener); err != nil {
				logger.Error("gRPC server error", zap.Error(err))
			}
		}()
	}

	// Lifecycle journal and its Kafka outbox are both optional.
	var (
		store    *journal.Store
		producer *msg.Producer
		err      error
	)
	kafkaCfg := msg.LoadConfig()
	if cfg.JournalPath != "" {
		store, err = journal.Open(cfg.JournalPath, kafkaCfg.Topic)
		if err != nil {
			return fmt.Errorf("open lifecycle journal: %w", err)
		}
		defer store.Close()
		logger.Info("lifecycle journal opened", zap.String("path", cfg.JournalPath))

		if kafkaCfg.Enabled() {
			producer, err = msg.NewProducer(kafkaCfg, logger)
			if err != nil {
				return fmt.Errorf("create kafka producer: %w", err)
			}
			defer producer.Close()
			healthChecker.SetKafkaReady(true)
		}
	}

	key, err := auth.LoadPrivateKey(cfg.PemFile)
	if err != nil {
		return err
	}
	signer := auth.NewTokenSigner(key, cfg.APIURI)

	stream, err := transport.DialTLS(ctx, transport.Options{
		Addr:               cfg.ServerAddr(),
		RootCAFile:         cfg.PubKeyFile,
		InsecureSkipVerify: cfg.InsecureTLS,
		ReadTimeout:        cfg.ReadTimeout,
	})
	if err != nil {
		return err
	}
	chaosTransport := chaos.Wrap(stream, chaos.New(chaos.LoadConfig(), logger))
	defer chaosTransport.Close()

	establisher := session.NewEstablisher(session.EstablisherConfig{
		Session: session.Config{
			SenderCompID: cfg.APIKey,
			TargetCompID: cfg.TargetCompID,
		},
		HeartBtInt:  cfg.HeartbeatSecs,
		LogonEpochs: cfg.LogonEpochs,
		Backoff:     cfg.LogonBackoff,
	}, signer, session.WithLogger(logger), session.WithObserver(metrics))

	conn, err := establisher.Logon(ctx, chaosTransport)
	if err != nil {
		return fmt.Errorf("logon (state %s): %w", establisher.State(), err)
	}
	healthChecker.SetSessionReady(true)
	metrics.SetSessionUp(true)

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()

	observers := order.Observers{metrics}
	publisherDone := make(chan struct{})
	if store != nil {
		observers = append(observers, journal.NewRecorder(store, conn.ID(), logger))
	}
	if store != nil && producer != nil {
		publisher := journal.NewPublisher(store, producer, logger)
		go func() {
			defer close(publisherDone)
			if err := publisher.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("publisher error", zap.Error(err))
			}
		}()
	} else {
		close(publisherDone)
	}

	if cfg.HeartbeatEnabled {
		hb := session.NewHeartbeater(conn, time.Duration(cfg.HeartbeatSecs)*time.Second)
		go func() {
			if err := hb.Run(bgCtx); err != nil {
				logger.Error("heartbeat stopped", zap.Error(err))
			}
		}()
	}

	orders := order.NewController(conn, order.Config{
		Confirm: order.WaitPolicy{Epochs: cfg.ConfirmEpochs, Backoff: cfg.ConfirmBackoff},
		Cancel:  order.WaitPolicy{Epochs: cfg.CancelEpochs, Backoff: cfg.CancelBackoff, Interval: cfg.CancelBackoff},
	}, order.WithLogger(logger), order.WithObserver(observers))
	quotes := rfq.NewController(conn, logger)

	runner := scenario.NewRunner(scenario.Settings{
		Name:          cfg.Scenario,
		CancelOrder:   cfg.CancelOrder,
		OrderCount:    cfg.OrderCount,
		PublishEpochs: cfg.PublishEpoch,
		ListenEpochs:  cfg.ListenEpoch,
	}, trading, orders, quotes, logger)

	runErr := superviseScenario(ctx, runner.Run, httpErrCh, logger)
	if runErr == nil && ctx.Err() == nil {
		logger.Info("scenario completed", zap.String("scenario", cfg.Scenario))
	}

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	healthChecker.SetSessionReady(false)
	metrics.SetSessionUp(false)
	cancelBg()
	<-publisherDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthChecker.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down health checker", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	return runErr
}

// superviseScenario runs the scenario until it finishes, ctx is done or a
// server fails. It always waits for the scenario to return, so nothing it
// uses is closed under it.
func superviseScenario(ctx context.Context, runScenario func(context.Context) (scenario.Report, error), serverErrCh <-chan error, logger *zap.Logger) error {
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		_, err := runScenario(runCtx)
		runErrCh <- err
	}()

	select {
	case err := <-runErrCh:
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			logger.Info("received shutdown signal")
			return nil
		}
		return err
	case err := <-serverErrCh:
		logger.Error("server failed, stopping scenario", zap.Error(err))
		cancelRun()
		<-runErrCh
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")
		<-runErrCh
		return nil
	}
}

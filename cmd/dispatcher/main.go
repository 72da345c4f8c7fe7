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
	"strconv"
	"syscall"

	"judgegate/internal/common/db"
	commonmw "judgegate/internal/common/http/middleware"
	"judgegate/internal/common/metrics"
	"judgegate/internal/common/mq"
	"judgegate/internal/submit/controller"
	"judgegate/internal/submit/repository"
	"judgegate/internal/submit/service"
	"judgegate/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConfigPath = "configs/dispatcher.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	port := flag.Int("port", 0, "Listen port, overrides server.addr")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		host, _, err := net.SplitHostPort(appCfg.Server.Addr)
		if err != nil {
			host = ""
		}
		appCfg.Server.Addr = net.JoinHostPort(host, strconv.Itoa(*port))
	}

	if err := run(appCfg); err != nil {
		os.Exit(1)
	}
}

func run(appCfg *AppConfig) error {
	// the aggregator starts before any component logs and stops last
	logs, err := logger.New(appCfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return err
	}
	defer func() {
		_ = logs.Close()
	}()
	log := logs.For("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store, err := db.NewStore(appCfg.Database, log, db.WithReconnectHook(m.ReconnectCounter("mysql")))
	if err != nil {
		log.Error("init database failed", zap.Error(err))
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	connector, err := newConnector(appCfg.Broker)
	if err != nil {
		log.Error("init broker failed", zap.Error(err))
		return err
	}
	publisher := mq.NewResilientPublisher(ctx, connector, appCfg.Broker.Reconnect, log,
		mq.WithHooks(mq.Hooks{
			Connected: m.ReconnectCounter(connector.Name()),
			Published: m.ObservePublish,
		}))
	defer func() {
		_ = publisher.Close()
	}()

	auth, err := newAuthenticator(appCfg.Auth)
	if err != nil {
		log.Error("init auth failed", zap.Error(err))
		return err
	}

	dispatchService, err := service.NewDispatchService(service.Config{
		SubmissionRepo: repository.NewSubmissionRepository(store),
		Auth:           auth,
		Publisher:      publisher,
		Logger:         log,
		Timeouts:       appCfg.Dispatch.Timeouts,
	})
	if err != nil {
		log.Error("init dispatch service failed", zap.Error(err))
		return err
	}

	httpServer := buildHTTPServer(appCfg.Server, dispatchService, log, logs.For("access"), m)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		log.Error("init http listener failed", zap.Error(err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("dispatcher http server started", zap.String("addr", listener.Addr().String()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("http server stopped", zap.Error(err))
		return err
	}
	log.Info("dispatcher stopped")
	return nil
}

func newConnector(cfg BrokerConfig) (mq.Connector, error) {
	switch cfg.Driver {
	case "kafka":
		return mq.NewKafkaConnector(cfg.Kafka)
	default:
		return mq.NewAMQPConnector(cfg.AMQP)
	}
}

func newAuthenticator(cfg AuthConfig) (service.Authenticator, error) {
	if cfg.Mode == "jwt" {
		return service.NewJWTAuthenticator(cfg.JWTSecret, cfg.Issuer)
	}
	return service.AllowAll{}, nil
}

func buildHTTPServer(cfg ServerConfig, dispatcher controller.Dispatcher, log, access *zap.Logger, m *metrics.Metrics) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(commonmw.AccessLog(access, m))

	dispatchController := controller.NewDispatchController(dispatcher, log, m)
	router.POST("/submission", dispatchController.Submit)
	router.GET("/rejudge", dispatchController.Rejudge)
	router.GET("/healthz", dispatchController.Health)
	router.GET("/", dispatchController.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

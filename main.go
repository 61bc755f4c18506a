package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/delivery"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/warehouse"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	catalogclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/http"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/kafka"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	natssignals "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/nats"
	infraobs "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/worker"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type repositories struct {
	items      inventory.Repository
	bookings   booking.Repository
	deliveries delivery.Repository
	payments   payment.Repository
	orders     order.Repository
	close      func()
}

type catalog interface {
	warehouse.CatalogPort
	apppayment.CatalogPort
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	if err := run(cfg, baseLogger); err != nil {
		baseLogger.Error("service_exit", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, baseLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zaplogger.New(baseLogger)
	systemLogger := logger.With(observability.F("component", "main"))

	shutdownTracing, err := oteltrace.NewProvider(ctx, oteltrace.ProviderConfig{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Env,
		Exporter:     cfg.TracesExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			systemLogger.Warn("tracing_shutdown_error", observability.F("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms := prometrics.Standard(prometrics.New(registry, ""))
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	repos, err := openRepositories(ctx, cfg, systemLogger)
	if err != nil {
		return err
	}
	defer repos.close()

	var products catalog = memory.NewCatalog()
	if cfg.CatalogURL != "" {
		products = catalogclient.NewCatalogClient(cfg.CatalogURL, cfg.CatalogTimeout)
	}

	bus := outbox.NewBus(tel)
	var publisher domoutbox.Publisher = bus
	if len(cfg.KafkaBrokers) > 0 {
		mirror := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = mirror.Close() }()
		publisher = outbox.NewMirror(bus, logger, mirror)
		systemLogger.Info("kafka_mirror_enabled", observability.F("topic", cfg.KafkaTopic))
	}

	ids := id.NewUUIDGenerator()
	warehouseService := warehouse.NewService(repos.items, repos.bookings, products, publisher, cfg.WarehouseAddress, tel)
	deliveryService := appdelivery.NewService(repos.deliveries, warehouseService, cfg.DeliveryCost, ids, publisher, tel)
	paymentService := apppayment.NewService(repos.payments, products, ids, publisher, tel)
	orderService := apporder.NewService(repos.orders, ids, publisher, tel)

	workerpresentation.NewWarehouseWorker(warehouseService, bus, tel).Start()
	workerpresentation.NewDeliveryWorker(deliveryService, bus, tel).Start()
	workerpresentation.NewPaymentWorker(paymentService, bus, tel).Start()
	workerpresentation.NewOrderWorker(orderService, bus, tel).Start()

	bus.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		bus.Stop(stopCtx)
	}()

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			return fmt.Errorf("nats: connect: %w", err)
		}
		defer nc.Close()
		signals := natssignals.NewSubscriber(nc, cfg.NATSQueue, deliveryService, paymentService, tel)
		if err := signals.Start(); err != nil {
			return err
		}
		defer signals.Stop()
	}

	handler := httppresentation.NewHandler(httppresentation.Services{
		Warehouse: warehouseService,
		Order:     orderService,
		Delivery:  deliveryService,
		Payment:   paymentService,
	}, logger, tel)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	serveErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	return nil
}

func openRepositories(ctx context.Context, cfg config.Config, log observability.Logger) (repositories, error) {
	if cfg.DatabaseURL == "" {
		log.Info("storage_selected", observability.F("backend", "memory"))
		return repositories{
			items:      memory.NewInventoryRepository(),
			bookings:   memory.NewBookingRepository(),
			deliveries: memory.NewDeliveryRepository(),
			payments:   memory.NewPaymentRepository(),
			orders:     memory.NewOrderRepository(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return repositories{}, err
	}
	log.Info("storage_selected", observability.F("backend", "postgres"))
	return repositories{
		items:      postgres.NewInventoryRepository(pool),
		bookings:   postgres.NewBookingRepository(pool),
		deliveries: postgres.NewDeliveryRepository(pool),
		payments:   postgres.NewPaymentRepository(pool),
		orders:     postgres.NewOrderRepository(pool),
		close:      pool.Close,
	}, nil
}

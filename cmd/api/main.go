package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/application/restock"
	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	infracache "github.com/jhoicas/pos-api/internal/infrastructure/cache"
	"github.com/jhoicas/pos-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-api/internal/infrastructure/messaging"
	infrapdf "github.com/jhoicas/pos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-api/internal/interfaces/http"
	"github.com/jhoicas/pos-api/pkg/config"
	"github.com/jhoicas/pos-api/pkg/logger"
	"github.com/jhoicas/pos-api/pkg/telemetry"
)

// storage puertos de persistencia resueltos según STORAGE_DRIVER.
type storage struct {
	products  repository.ProductRepository
	ledger    repository.StockLedger
	sales     repository.SaleRepository
	restocks  repository.RestockRepository
	saleTx    sales.SaleTxRunner
	restockTx restock.RestockTxRunner
	close     func()
}

type eventPublisher interface {
	ports.EventPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("events", cfg.Events.Broker).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.App.Env,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	store := openStorage(ctx, cfg, log)
	defer store.close()

	rdb, err := infracache.NewRedisClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if err != nil {
		// Sin Redis la caché degrada a lecturas directas con singleflight.
		log.Warn().Err(err).Msg("redis no disponible")
		rdb = nil
	}
	productCache := infracache.NewProductCache(store.products, rdb, cfg.Cache.ProductTTL, log)

	publisher := openPublisher(cfg, log)
	defer func() { _ = publisher.Close() }()

	// Casos de uso
	coordinator := sales.NewCoordinator(store.saleTx, store.ledger, publisher, productCache, log)
	sessions := sales.NewCartSessions(store.products)
	checkoutUC := sales.NewCheckoutUseCase(sessions, productCache, coordinator)
	saleQueryUC := sales.NewSaleQueryUseCase(store.sales, store.products, infrapdf.NewMarotoReceiptGenerator(cfg.App.Name))
	workflow := restock.NewWorkflow(store.restockTx, store.products, store.restocks, publisher, productCache, log)
	stockUC := inventory.NewStockUseCase(store.products, store.ledger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Stock:     stockUC,
		Checkout:  checkoutUC,
		Sales:     saleQueryUC,
		Restocks:  workflow,
		JWTSecret: cfg.JWT.Secret,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sweepCarts(sweepCtx, sessions, cfg.Sales.CartIdleTTL, log)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.NewStore()
		store.Seed(demoProducts()...)
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return storage{
			products:  store,
			ledger:    store.Ledger(),
			sales:     store.Sales(),
			restocks:  store.Restocks(),
			saleTx:    store,
			restockTx: store,
			close:     func() {},
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración del esquema")
		}
	}
	txRunner := postgres.NewTxRunner(pool, cfg.Sales.MaxTxAttempts, log)
	return storage{
		products:  postgres.NewProductRepository(pool),
		ledger:    postgres.NewStockLedger(pool),
		sales:     postgres.NewSaleRepository(pool),
		restocks:  postgres.NewRestockRepository(pool),
		saleTx:    txRunner,
		restockTx: txRunner,
		close:     pool.Close,
	}
}

func openPublisher(cfg *config.Config, log *logger.Logger) eventPublisher {
	switch cfg.Events.Broker {
	case config.EventsBrokerKafka:
		writer := messaging.NewKafkaWriter(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		return messaging.NewKafkaPublisher(writer)
	case config.EventsBrokerRabbitMQ:
		conn, ch, err := messaging.SetupRabbit(cfg.Events.AMQPURL, cfg.Events.AMQPExchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		return &rabbitPublisher{RabbitPublisher: messaging.NewRabbitPublisher(ch, cfg.Events.AMQPExchange), closeConn: conn.Close}
	default:
		return messaging.NewLogPublisher(log)
	}
}

// rabbitPublisher cierra también la conexión AMQP.
type rabbitPublisher struct {
	*messaging.RabbitPublisher
	closeConn func() error
}

func (p *rabbitPublisher) Close() error {
	_ = p.RabbitPublisher.Close()
	return p.closeConn()
}

func sweepCarts(ctx context.Context, sessions *sales.CartSessions, idle time.Duration, log *logger.Logger) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(idle); n > 0 {
				log.Info().Int("carts", n).Msg("carritos inactivos descartados")
			}
		}
	}
}

func demoProducts() []entity.Product {
	return []entity.Product{
		{Name: "Café molido 500g", Price: decimal.RequireFromString("18900"), Quantity: 40, MinStock: 10, Category: "despensa"},
		{Name: "Leche entera 1L", Price: decimal.RequireFromString("4200"), Quantity: 60, MinStock: 20, Category: "lácteos"},
		{Name: "Pan tajado", Price: decimal.RequireFromString("6500"), Quantity: 8, MinStock: 10, Category: "panadería"},
	}
}

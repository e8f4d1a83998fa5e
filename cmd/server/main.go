package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brickDelivery/internal/auth"
	"brickDelivery/internal/booking"
	"brickDelivery/internal/config"
	"brickDelivery/internal/db"
	"brickDelivery/internal/draft"
	"brickDelivery/internal/faq"
	"brickDelivery/internal/geocode"
	grpcserver "brickDelivery/internal/grpc"
	"brickDelivery/internal/httpapi"
	"brickDelivery/internal/lifecycle"
	"brickDelivery/internal/live"
	"brickDelivery/internal/logger"
	"brickDelivery/internal/notify"
	"brickDelivery/internal/orders"
	"brickDelivery/models"
	"brickDelivery/repository"
)

const (
	adminTokenTTL = 12 * time.Hour
	draftMaxIdle  = 24 * time.Hour
	sweepEvery    = time.Minute
	throttleIdle  = 10 * time.Minute
)

type stores struct {
	orders   repository.OrderStore
	messages repository.MessageStore
	probe    grpcserver.Probe
	close    func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, d *sql.DB) (*stores, error) {
	if cfg.Database.Backend != "mongo" {
		return &stores{
			orders:   repository.NewOrderRepository(d),
			messages: repository.NewMessageRepository(d),
			probe:    d.PingContext,
			close:    func(context.Context) error { return nil },
		}, nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Database.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	mdb := client.Database(cfg.Database.MongoDBName)
	return &stores{
		orders:   repository.NewMongoOrderRepository(mdb),
		messages: repository.NewMongoMessageRepository(mdb),
		probe:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close:    client.Disconnect,
	}, nil
}

func main() {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		logger.New("error").Error("load config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	log.Info("configuration loaded", "config", cfg.String())
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Error("open db", "path", cfg.Database.Path, "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Warn("close db", "err", err)
		}
	}()

	st, err := openStores(ctx, cfg, d)
	if err != nil {
		log.Error("open order store", "backend", cfg.Database.Backend, "err", err)
		os.Exit(1)
	}
	users := repository.NewUserRepository(d)

	policy, err := lifecycle.PolicyByName(cfg.Orders.LifecyclePolicy)
	if err != nil {
		log.Error("lifecycle policy", "err", err)
		os.Exit(1)
	}
	broker := live.NewBroker(st.orders, log.With("component", "live"))
	orderSvc := orders.NewService(st.orders, policy, broker, log.With("component", "orders"))

	dispatcher, closeNotify, err := notify.Open(notify.Options{
		Backend:        cfg.Notify.Backend,
		RabbitURL:      cfg.Notify.RabbitURL,
		RabbitExchange: cfg.Notify.RabbitExchange,
		KafkaBrokers:   cfg.Notify.KafkaBrokers,
		KafkaTopic:     cfg.Notify.KafkaTopic,
		TelegramToken:  cfg.Notify.TelegramToken,
		TelegramChatID: cfg.Notify.TelegramChatID,
		Timeout:        cfg.Notify.Timeout,
	}, log.With("component", "notify"))
	if err != nil {
		log.Error("open notifier", "backend", cfg.Notify.Backend, "err", err)
		os.Exit(1)
	}

	reducer := draft.NewReducer(models.DefaultCatalog)
	drafts := draft.NewStore(reducer)
	sessions := auth.NewSessions(cfg.Auth.IdleTimeout)
	throttle := auth.NewThrottle()
	gate := auth.NewAdminGate(cfg.Auth.AdminPassword, cfg.Auth.JWTSecret, adminTokenTTL, users, throttle)
	if cfg.Auth.AdminPassword != "" {
		if _, err := gate.EnsureAdminUser(ctx); err != nil {
			log.Error("ensure admin user", "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("ADMIN_PASSWORD is empty; admin login is disabled")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Catalog:        models.DefaultCatalog,
		Drafts:         drafts,
		Geocoder:       geocode.NewClient(cfg.Geocoder.URL, "brick-delivery/1.0"),
		Booking:        booking.NewWorkflow(reducer, orderSvc, dispatcher, log.With("component", "booking"), cfg.Orders.MinProcessing),
		Orders:         orderSvc,
		Messages:       st.messages,
		Broker:         broker,
		Users:          users,
		Sessions:       sessions,
		Admin:          gate,
		FAQ:            faq.NewResponder(faq.DefaultRules),
		Notifier:       dispatcher,
		JWTSecret:      cfg.Auth.JWTSecret,
		WhatsAppNumber: cfg.Orders.WhatsAppNumber,
		Log:            log.With("component", "http"),
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open SSE streams end when the broker closes, letting Shutdown drain.
	httpSrv.RegisterOnShutdown(broker.Close)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server listening", "addr", cfg.HTTP.Address)

	grpcSrv, err := grpcserver.StartGRPC(cfg.GRPC.Address, cfg.Auth.JWTSecret, st.probe, log.With("component", "grpc"))
	if err != nil {
		log.Error("start grpc", "err", err)
		os.Exit(1)
	}
	log.Info("gRPC server listening", "addr", cfg.GRPC.Address)

	go sweep(ctx, sessions, drafts, throttle, log)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("grpc shutdown", "err", err)
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "err", err)
	}
	if err := closeNotify(); err != nil {
		log.Warn("close notifier", "err", err)
	}
	if err := st.close(shutdownCtx); err != nil {
		log.Warn("close order store", "err", err)
	}
}

// sweep expires idle sessions, abandoned drafts and quiet login throttle
// entries until ctx is done.
func sweep(ctx context.Context, sessions *auth.Sessions, drafts *draft.Store, throttle *auth.Throttle, log logger.Logger) {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			expired := sessions.Sweep()
			dropped := drafts.Sweep(draftMaxIdle)
			forgotten := throttle.Sweep(throttleIdle)
			if expired > 0 || dropped > 0 || forgotten > 0 {
				log.Debug("sweep", "sessions_expired", expired, "drafts_dropped", dropped, "throttle_forgotten", forgotten)
			}
		}
	}
}

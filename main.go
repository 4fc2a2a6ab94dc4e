package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"tandem-server/config"
	"tandem-server/handlers"
	"tandem-server/presence"
	"tandem-server/repositories"
	"tandem-server/services"
)

type stores struct {
	accounts repositories.AccountStore
	members  repositories.MemberStore
	profiles repositories.ProfileStore
	client   *mongo.Client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open stores", zap.Error(err))
	}
	if st.client != nil {
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := st.client.Disconnect(disconnectCtx); err != nil {
				logger.Warn("MongoDB disconnect failed", zap.Error(err))
			}
		}()
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()
	var cache services.MemberCache = services.NewRedisMemberCache(redisClient, logger)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, member cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		cache = services.NopMemberCache{}
	}

	pictures, err := services.NewDiskPictureStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	// Initialize services and handlers
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(st.accounts, st.members, tokens, logger)
	profileService := services.NewProfileService(st.profiles, st.accounts, pictures, logger)
	memberService := services.NewMemberService(st.members, cache, logger)

	if err := memberService.ResetPresence(ctx); err != nil {
		logger.Warn("Failed to reset presence", zap.Error(err))
	}
	hub := presence.NewHub(memberService, logger)
	go hub.Heartbeat(ctx, presence.PingInterval)

	router := handlers.NewRouter(
		handlers.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			UploadDir:      pictures.Root(),
			Tokens:         tokens,
			Logger:         logger,
		},
		handlers.NewAuthHandler(authService, tokens.TTL(), cfg.Production()),
		handlers.NewProfileHandler(profileService, cfg.MaxUploadBytes, logger),
		handlers.NewMemberHandler(memberService),
		handlers.NewPresenceHandler(hub, cfg.AllowedOrigins, logger),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  2 * cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown failed", zap.Error(err))
	}
	hub.CloseAll()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("Using in-memory stores; data is lost on restart")
		return &stores{
			accounts: repositories.NewInMemoryAccountStore(),
			members:  repositories.NewInMemoryMemberStore(),
			profiles: repositories.NewInMemoryProfileStore(),
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, db, err := repositories.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	if err := repositories.EnsureIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
	return &stores{
		accounts: repositories.NewMongoAccountStore(db),
		members:  repositories.NewMongoMemberStore(db),
		profiles: repositories.NewMongoProfileStore(db),
		client:   client,
	}, nil
}

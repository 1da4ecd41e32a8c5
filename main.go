package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mgoutil "PTalk/data/database/mgo/mongoutil"
	"PTalk/global/config"
	"PTalk/logger"
	"PTalk/middleware"
	midsec "PTalk/middleware/security"
	"PTalk/module/chat/api"
	"PTalk/module/chat/service"
	"PTalk/module/chat/store"
	"PTalk/service/chat"
	"PTalk/service/chat/handlers"
	"PTalk/service/eventbus"
	"PTalk/service/mgo"
	"PTalk/service/online"
	"PTalk/service/storage"
	redisx "PTalk/service/storage/redis"
	"PTalk/tools/ids"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	path := flag.String("config", os.Getenv("PTALK_CONFIG"), "path to app.yaml")
	flag.Parse()
	if *path == "" {
		*path = "config/app.yaml"
	}

	cfg, err := config.Load(*path)
	if err != nil {
		logger.Error("load config failed", zap.String("path", *path), zap.Error(err))
		os.Exit(1)
	}
	if err := run(*path, cfg); err != nil {
		logger.Error("server stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(path string, cfg *config.AppConfig) error {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		logger.Warn("bad log level, keeping default", zap.String("level", cfg.Log.Level), zap.Error(err))
	}
	ids.SetNodeID(cfg.Server.WorkerID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	bus, err := openBus(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	reg := online.NewRegistry()
	presenceOpts := []online.Option{online.WithBus(bus)}
	var mirror *storage.RedisPresence
	if cfg.Redis.Enabled {
		rdb, err := redisx.NewClient(ctx, redisx.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		mirror = storage.NewRedisPresence(rdb, cfg.Server.NodeID, cfg.Redis.PresenceTTL)
		presenceOpts = append(presenceOpts, online.WithMirror(mirror))
	}
	presence := online.NewPresence(reg, st, presenceOpts...)
	if mirror != nil {
		// keys are written once per connect; keep them alive for long sessions
		go presence.KeepAlive(ctx, mirror.TTL()/3)
	}

	notify := service.NewNotifier(reg)
	friends := service.NewFriendService(st, notify, bus)
	calls := service.NewCallService(st, notify, presence, bus)

	disp := chat.NewDispatcher()
	handlers.Register(disp, handlers.Services{
		Friends:       friends,
		Conversations: service.NewConversationService(st, cfg.Avatar.BaseURL),
		Messages:      service.NewMessageService(st, notify, bus),
		Calls:         calls,
	})

	auth := midsec.DefaultOptions([]byte(cfg.Auth.Secret), cfg.Auth.Alg)
	if cfg.Auth.Secret == "" {
		logger.Warn("auth.secret is empty: clients identify themselves with ?user_id=")
	}
	origins := middleware.NewOrigins(cfg.Server.AllowedOrigins)
	ws := chat.NewServer(cfg.Server, auth, origins, presence, disp)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog())
	chain := middleware.NewChain()
	chain.Set("origin", middleware.Origin(origins))
	r.Use(chain.Handler())

	// log level and allowed origins follow edits to the config file; the
	// rest needs a restart
	if err := config.Watch(path, func(c *config.AppConfig) {
		if err := logger.SetLevel(c.Log.Level); err != nil {
			logger.Warn("bad log level in reloaded config", zap.String("level", c.Log.Level))
		}
		origins.Set(c.Server.AllowedOrigins)
	}); err != nil {
		logger.Warn("config watch disabled", zap.Error(err))
	}

	r.GET("/ws", ws.HandleWS)
	(&api.Server{Friends: friends, Calls: calls}).Mount(r, auth)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("node_id", cfg.Server.NodeID),
			zap.Strings("events", disp.Events()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Int("connections", reg.Len()), zap.Int64("dropped_notifications", notify.Dropped()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// hijacked websockets are not tracked by Shutdown; close them so their
	// disconnect path runs
	for _, uid := range reg.Users() {
		if h := presence.Evict(shutdownCtx, uid); h != nil {
			_ = h.Close()
		}
	}
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.AppConfig) (store.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using the in-memory store; data is lost on exit")
		return store.NewMemStore(), func() {}, nil
	}

	mgr := mgo.NewManager(&mgoutil.Config{
		Uri:         cfg.Mongo.Uri,
		Address:     cfg.Mongo.Address,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		AuthSource:  cfg.Mongo.AuthSource,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	mgr.StartAsync(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := mgr.WaitReady(waitCtx); err != nil {
		mgr.Close()
		return nil, nil, err
	}
	ms := store.NewMongoStore(mgr.DB)
	if err := ms.EnsureIndexes(waitCtx); err != nil {
		mgr.Close()
		return nil, nil, err
	}
	return ms, mgr.Close, nil
}

func openBus(cfg *config.AppConfig) (*eventbus.Bus, error) {
	var pub eventbus.Publisher
	switch cfg.Bus.Driver {
	case config.BusDriverNats:
		n := cfg.Bus.Nats
		p, err := eventbus.NewNatsPublisher(eventbus.NatsConfig{
			Servers:       n.Servers,
			Name:          n.Name,
			User:          n.User,
			Password:      n.Password,
			SubjectPrefix: n.SubjectPrefix,
			JetStream:     n.JetStream,
			ReconnectWait: n.ReconnectWait,
			Timeout:       n.Timeout,
		})
		if err != nil {
			return nil, err
		}
		pub = p
	case config.BusDriverKafka:
		k := cfg.Bus.Kafka
		p, err := eventbus.NewKafkaPublisher(eventbus.KafkaConfig{
			Brokers:     k.Brokers,
			Topic:       k.Topic,
			Retries:     k.Retries,
			Compression: k.Compression,
		})
		if err != nil {
			return nil, err
		}
		pub = p
	default:
		pub = eventbus.Nop{}
	}
	logger.Info("event bus ready", zap.String("driver", cfg.Bus.Driver))
	return eventbus.NewBus(pub, cfg.Server.NodeID), nil
}

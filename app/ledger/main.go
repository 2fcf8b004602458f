package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/database/mongoclient"
	"github.com/x-xyz/goledger/base/database/redisclient"
	"github.com/x-xyz/goledger/base/goroutine"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/base/metrics"
	bValidator "github.com/x-xyz/goledger/base/validator"
	"github.com/x-xyz/goledger/domain"
	"github.com/x-xyz/goledger/domain/item"
	mmiddleware "github.com/x-xyz/goledger/middleware"
	"github.com/x-xyz/goledger/service/emitter"
	"github.com/x-xyz/goledger/service/query"
	"github.com/x-xyz/goledger/service/redis"
	hc_delivery "github.com/x-xyz/goledger/stores/healthcheck/delivery/http"
	hc_repo "github.com/x-xyz/goledger/stores/healthcheck/repository"
	hc_usecase "github.com/x-xyz/goledger/stores/healthcheck/usecase"
	item_repository "github.com/x-xyz/goledger/stores/item/repository"
	ledger_delivery "github.com/x-xyz/goledger/stores/ledger/delivery/http"
	ledger_usecase "github.com/x-xyz/goledger/stores/ledger/usecase"

	_ "github.com/x-xyz/goledger/app/ledger/docs"
)

func init() {
	configPath := pflag.String("config", "infra/configs/config.yaml", "path of the yaml config file")
	pflag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configPath)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	log.SetDebug(viper.GetBool(`debug`))
	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

//	@title			Ledger API
//	@version		1.0
//	@description	Ownership and listing ledger of marketplace items.
func main() {
	defer func() { _ = log.Sync() }()

	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.AddContext())
	e.Use(middL.ResponseLogger())
	e.Use(middL.CORS)
	e.Validator = bValidator.NewCustomValidator(bValidator.New())

	context := ctx.Background()

	// init Redis service
	var redisCache redis.Service
	if uri := viper.GetString("redis_cache.uri"); uri != "" {
		context.Info("init redis cache")
		redisCacheName := viper.GetString("redis_cache.name")
		redisCachePool := redisclient.MustConnectRedis(redisclient.Config{
			URI:            uri,
			Password:       viper.GetString("redis_cache.password"),
			PoolMultiplier: viper.GetFloat64("redis_cache.poolMultiplier"),
			Retry:          true,
		})
		redisCache = redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
			Src: redisCachePool,
		})
	}

	// init durable store
	var (
		q       query.Mongo
		durable item.Repo
	)
	if uri := viper.GetString("mongo.uri"); uri != "" {
		context.Info("init mongo")
		mongoClient := mongoclient.MustConnectMongoClient(mongoclient.Config{
			URI:        uri,
			AuthDBName: viper.GetString("mongo.authDBName"),
			DBName:     viper.GetString("mongo.dbName"),
			EnableSSL:  viper.GetBool("mongo.enableSSL"),
			SetSafe:    true,
		})
		q = query.New(mongoClient, viper.GetBool("mongo.checkIndex"))
		if err := q.EnsureIndexes(context, domain.TableItems, item_repository.ItemIndexes); err != nil {
			context.WithField("err", err).Warn("q.EnsureIndexes failed")
		}
		durable = item_repository.NewItem(&item_repository.ItemRepoCfg{
			Mongo: q,
			Redis: redisCache,
		})
	} else {
		context.Warn("mongo.uri not set, items are kept in memory only")
		durable = item_repository.NewMemory()
	}

	store := item_repository.NewStore(&item_repository.StoreCfg{
		Durable:      durable,
		MirrorSizeMB: viper.GetInt("ledger.mirrorSizeMB"),
		Timeout:      viper.GetDuration("ledger.storeTimeout"),
		ProbeTimeout: viper.GetDuration("ledger.probeTimeout"),
		Cooldown:     viper.GetDuration("ledger.cooldown"),
		Metrics:      metrics.New("store"),
	})

	// init event publishers
	publishers := []item.Publisher{}
	if url := viper.GetString("nats.url"); url != "" {
		nc, err := emitter.ConnectNats(emitter.NatsConfig{
			URL:            url,
			SubjectPrefix:  viper.GetString("nats.subjectPrefix"),
			ConnectTimeout: viper.GetDuration("nats.connectTimeout"),
		})
		if err != nil {
			context.WithField("err", err).Panic("emitter.ConnectNats failed")
		}
		publishers = append(publishers, emitter.NewNats(nc, viper.GetString("nats.subjectPrefix")))
	}
	if redisCache != nil {
		publishers = append(publishers, emitter.NewRedis(redisCache))
	}
	dispatcher := emitter.New(&emitter.Config{
		Publishers:  publishers,
		Workers:     viper.GetInt("emitter.workers"),
		QueueLength: viper.GetInt("emitter.queueLength"),
		Metrics:     metrics.New("emitter"),
	})
	defer dispatcher.Close()

	ledger := ledger_usecase.New(&ledger_usecase.LedgerUseCaseCfg{
		Store:           store,
		Emitter:         dispatcher,
		Metrics:         metrics.New("ledger"),
		ConflictRetries: viper.GetInt("ledger.conflictRetries"),
		ConflictBackoff: viper.GetDuration("ledger.conflictBackoff"),
	})
	hc := hc_usecase.New(hc_repo.New(q, redisCache), store)

	hc_delivery.New(e, hc)
	ledger_delivery.New(e, ledger)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	stopReconcile := startReconcileTicker(context, ledger, viper.GetDuration("reconcile.interval"))
	defer stopReconcile()

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}

// startReconcileTicker runs an idle reconcile pass every interval while dirty records remain.
// A zero interval disables it.
func startReconcileTicker(c ctx.Ctx, ledger item.Usecase, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	c, cancel := ctx.WithCancel(c)
	goroutine.RecoverableGo(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.Done():
				return
			case <-ticker.C:
				if _, err := ledger.Reconcile(c); err != nil {
					c.WithField("err", err).Debug("idle reconcile skipped")
				}
			}
		}
	}, goroutine.Named("reconcile-ticker"))
	return cancel
}

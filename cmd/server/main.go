// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/config"
	"github.com/unclebandit/clinic-crm/internal/controller"
	"github.com/unclebandit/clinic-crm/internal/handler"
	"github.com/unclebandit/clinic-crm/internal/logging"
	"github.com/unclebandit/clinic-crm/internal/outreach"
	"github.com/unclebandit/clinic-crm/internal/queue"
	"github.com/unclebandit/clinic-crm/internal/remote"
	"github.com/unclebandit/clinic-crm/internal/repository"
	"github.com/unclebandit/clinic-crm/internal/seed"
	"github.com/unclebandit/clinic-crm/internal/service"
	"github.com/unclebandit/clinic-crm/internal/session"
)

func main() {
	// Load .env
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		log.Info("⚠️ No .env file found, relying on OS environment variables")
	}
	log.Info(cfg.String())

	ctx := context.Background()
	stores, err := repository.Open(ctx, cfg.Mirror, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open local mirror")
	}
	defer stores.Close()

	if cfg.LocalOnly() {
		log.Warn("REMOTE_URL not set, running in local-only mode")
	}
	source := remote.New(cfg.Remote)

	var q queue.Queue
	var memQueue *queue.InMemoryQueue
	switch cfg.Queue.Backend {
	case "amqp":
		amqpQueue, err := queue.DialAMQP(cfg.Queue.AMQPURL, cfg.Queue.MaxRetries, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to queue")
		}
		defer amqpQueue.Close()
		q = amqpQueue
	default:
		memQueue = queue.NewInMemoryQueue(cfg.Queue.MaxRetries, log)
		q = memQueue
	}

	syncService := service.NewSyncService(stores.Mirror, source, q, cfg.Queue.Topic, stores.PushLog, log)
	// with RabbitMQ the worker binary consumes pushes
	if memQueue != nil {
		if err := syncService.Subscribe(); err != nil {
			log.WithError(err).Fatal("failed to subscribe push handler")
		}
	}

	sessions := session.NewCookieStore(cfg.Session.Secret)
	authHandler := &handler.AuthHandler{
		Auth:     service.NewAuthService(source, seed.Credentials(), log),
		Sessions: sessions,
		Log:      log,
	}
	customerController := &controller.CustomerController{
		SyncService: syncService,
		Drafter:     outreach.New(cfg.AI, log),
		Log:         log,
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.NewRouter(authHandler, customerController, sessions, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("🚀 Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if memQueue != nil {
		// let in-flight pushes finish
		memQueue.Wait()
	}
	log.Info("server stopped")
}

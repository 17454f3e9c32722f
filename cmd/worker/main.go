// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/config"
	"github.com/unclebandit/clinic-crm/internal/logging"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/queue"
	"github.com/unclebandit/clinic-crm/internal/remote"
	"github.com/unclebandit/clinic-crm/internal/repository"
	"github.com/unclebandit/clinic-crm/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.LocalOnly() {
		log.Fatal("REMOTE_URL is required for the push worker")
	}
	source := remote.New(cfg.Remote)

	stores, err := repository.Open(context.Background(), cfg.Mirror, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open push log")
	}
	defer stores.Close()

	// Connect to RabbitMQ
	q, err := queue.DialAMQP(cfg.Queue.AMQPURL, cfg.Queue.MaxRetries, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to RabbitMQ")
	}
	defer q.Close()

	syncService := service.NewSyncService(stores.Mirror, source, q, cfg.Queue.Topic, stores.PushLog, log)
	q.OnSettled = recordSettled(syncService, log)

	if err := syncService.Subscribe(); err != nil {
		log.WithError(err).Fatal("failed to register consumer")
	}

	log.WithField("queue", cfg.Queue.Topic).Info("Worker running, waiting for status updates...")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("worker stopped")
}

// recordSettled stores the outcome of each finished delivery in the push log.
func recordSettled(svc *service.SyncService, log logrus.FieldLogger) func(topic string, body []byte, attempts int, err error) {
	return func(topic string, body []byte, attempts int, err error) {
		var update model.StatusUpdate
		if jerr := json.Unmarshal(body, &update); jerr != nil {
			log.WithFields(logrus.Fields{"topic": topic, "error": jerr}).Warn("settled delivery is not a status update")
			return
		}
		state := model.PushSent
		if err != nil {
			state = model.PushFailed
		}
		svc.RecordPushOutcome(update, state, attempts, err)
	}
}

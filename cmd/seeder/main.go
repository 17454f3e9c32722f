// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/config"
	"github.com/unclebandit/clinic-crm/internal/logging"
	"github.com/unclebandit/clinic-crm/internal/remote"
	"github.com/unclebandit/clinic-crm/internal/repository"
	"github.com/unclebandit/clinic-crm/internal/service"
)

func main() {
	reset := flag.Bool("reset", false, "overwrite the local mirror with the demo customers")
	workbook := flag.String("workbook", "", "import customers from an .xlsx or .xls file into the local mirror")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if !*reset && *workbook == "" {
		flag.Usage()
		return
	}

	ctx := context.Background()
	stores, err := repository.Open(ctx, cfg.Mirror, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open local mirror")
	}
	defer stores.Close()

	if *reset {
		svc := service.NewSyncService(stores.Mirror, nil, nil, cfg.Queue.Topic, stores.PushLog, log)
		customers := svc.Resync(ctx)
		fmt.Printf("Seeded: %d demo customers into %s mirror\n", len(customers), cfg.Mirror.Backend)
	}

	if *workbook != "" {
		source := remote.New(config.RemoteConfig{URL: *workbook})
		svc := service.NewSyncService(stores.Mirror, source, nil, cfg.Queue.Topic, stores.PushLog, log)
		customers, err := svc.Import(ctx)
		if err != nil {
			log.WithError(err).WithField("workbook", *workbook).Fatal("import failed")
		}
		fmt.Printf("Imported: %d customers from %s\n", len(customers), *workbook)
	}

	fmt.Println("Mirror seeding completed successfully!")
}

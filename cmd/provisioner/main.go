package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/aitorle/geovault/internal/adapters/nats"
	"github.com/aitorle/geovault/internal/adapters/regionsync"
	"github.com/aitorle/geovault/internal/adapters/valkey"
	"github.com/aitorle/geovault/internal/pkg/config"
	"github.com/aitorle/geovault/internal/workflows"
)

func main() {
	cfg, err := config.Load("geovault-provisioner")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Region commands travel over the same JetStream streams the API uses
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RegionProvisionWorkflow)
	w.RegisterActivity(&workflows.RegionProvisionActivities{
		Regions: regionsync.NewMonitor(publisher.JetStream()),
		Cache:   cache,
	})

	log.Println("provisioner worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

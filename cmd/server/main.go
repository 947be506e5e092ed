package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jointly-dev/jointly/internal/config"
	"github.com/jointly-dev/jointly/internal/events/kafka"
	"github.com/jointly-dev/jointly/internal/interfaces"
	"github.com/jointly-dev/jointly/internal/ledger"
	"github.com/jointly-dev/jointly/internal/server"
	"github.com/jointly-dev/jointly/internal/storage/memory"
	"github.com/jointly-dev/jointly/internal/storage/postgres"
)

// allowAllMembers stands in for the application's membership service. The
// real check lives outside this core; every caller here is assumed to have
// passed it already.
type allowAllMembers struct{}

func (allowAllMembers) IsMember(ctx context.Context, accountID, userID string) (bool, error) {
	return true, nil
}

func main() {
	cfg := config.Load()

	var (
		store   interfaces.LedgerStore
		mirrors interfaces.MirrorGateway
		linked  interfaces.LinkedMirrorGateway
	)
	switch cfg.StorageDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("failed to open postgres: %v", err)
		}
		defer db.Close()
		store = postgres.NewStore(db)
		mirrors = postgres.NewMirrorStore(db)
		linked = postgres.NewLinkedMirrorStore(db)
		log.Println("using postgres storage")
	case "memory":
		store = memory.NewStore()
		mirrors = memory.NewMirrorStore()
		linked = memory.NewLinkedMirrorStore()
		log.Println("using in-memory storage")
	default:
		log.Fatalf("unknown storage driver %q", cfg.StorageDriver)
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
		log.Printf("publishing transfer events to %v", cfg.KafkaBrokers)
	}

	svc := ledger.NewTransferService(store, mirrors, linked, publisher, cfg.MirrorTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := ledger.NewReconciler(store, svc)
	go reconciler.Run(ctx, cfg.ReconcileInterval)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewServer(svc, allowAllMembers{}).Router(),
	}

	go func() {
		log.Printf("starting server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("server exited")
}

// Command doener-client places an order against the Döner backend and
// follows its lifecycle until the invoice arrives. It doubles as the
// reference wiring for the core packages: config → telemetry → cart →
// submitter → channel → tracker.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/doenerwerk/ordering-client/internal/cart"
	cartredis "github.com/doenerwerk/ordering-client/internal/cart/redis"
	cartsqlite "github.com/doenerwerk/ordering-client/internal/cart/sqlite"
	"github.com/doenerwerk/ordering-client/internal/ordering/channel"
	"github.com/doenerwerk/ordering-client/internal/ordering/domain"
	"github.com/doenerwerk/ordering-client/internal/ordering/submit"
	"github.com/doenerwerk/ordering-client/internal/ordering/tracker"
	"github.com/doenerwerk/ordering-client/internal/pkg/config"
	"github.com/doenerwerk/ordering-client/internal/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("client failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	notes := flag.String("notes", "Mit Alles und scharf", "order notes passed to the backend")
	quantity := flag.Int("quantity", 2, "how many Döner to put in the cart")
	flag.Parse()

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, "doener-client")
	if err != nil {
		// Tracing is observability, not functionality: run without it.
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer func() { _ = shutdown(context.Background()) }()
	}

	storage, closeStorage, err := openCartStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := cart.NewStore(storage)
	if err := store.Hydrate(ctx); err != nil {
		return err
	}

	doener := domain.Food{ID: 1, Name: "Döner", Price: 5.0}
	if _, err := store.AddOrMerge(doener, *quantity); err != nil {
		return err
	}
	if err := store.Persist(ctx); err != nil {
		// The in-memory cart stays usable for this session.
		slog.WarnContext(ctx, "cart not persisted", "error", err)
	}
	fmt.Printf("Warenkorb: %s\n", domain.FormatEUR(store.Total()))

	customerID := uuid.NewString()
	submitter := submit.New(cfg.APIBaseURL, cfg.RequestTimeout)
	orderID, err := submitter.PlaceOrder(ctx, customerID, submit.Details{Notes: *notes})
	if err != nil {
		return err
	}

	return track(ctx, cfg, orderID)
}

// track opens the push channel and prints every stage until the terminal
// one arrives, the channel ends, or the process is interrupted.
func track(ctx context.Context, cfg config.Config, orderID string) error {
	t := tracker.New(orderID)
	updates := make(chan tracker.State, 16)

	registry := channel.NewRegistry()
	ch, err := registry.Dial(ctx, cfg.WSBaseURL, orderID, func(ctx context.Context, msg domain.UpdateMessage) {
		updates <- t.Apply(ctx, msg)
	})
	if err != nil {
		return err
	}
	defer ch.Close()

	firstUpdate := time.NewTimer(cfg.FirstUpdateTimeout)
	defer firstUpdate.Stop()

	for {
		select {
		case state := <-updates:
			firstUpdate.Stop()
			printState(state)
			if state.Stage == domain.InvoiceCreated {
				return nil
			}
		case <-firstUpdate.C:
			// Not fatal: the order may still be in flight server-side.
			slog.WarnContext(ctx, "no update received yet, status unknown",
				"order_id", orderID, "waited", cfg.FirstUpdateTimeout)
		case <-ch.Closed():
			if err := ch.Err(); err != nil {
				return fmt.Errorf("tracking interrupted: %w", err)
			}
			fmt.Println("Tracking beendet.")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func printState(state tracker.State) {
	if state.LastError != nil {
		fmt.Printf("Fehler: %s\n", state.LastError.Message)
		return
	}
	if percent, ok := state.Progress(); ok {
		fmt.Printf("[%3d%%] %s\n", percent, state.Stage.DisplayText())
	}
	if state.Shop != nil {
		fmt.Printf("Dein Dönerladen: %s (%s)\n", state.Shop.Name, domain.FormatEUR(state.Shop.Price))
	}
}

func openCartStorage(cfg config.Config) (cart.Storage, func(), error) {
	if cfg.CartRedisAddr != "" {
		s := cartredis.New(cfg.CartRedisAddr, "doener-client", cart.Key)
		return s, func() { _ = s.Close() }, nil
	}
	s, err := cartsqlite.Open(cfg.CartDBPath, cart.Key)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

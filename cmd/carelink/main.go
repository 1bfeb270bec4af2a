package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carelink/internal/app"
	"carelink/internal/config"
	"carelink/pkg/types"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires the notification layer, authenticates from the environment,
// and logs stored notifications until interrupted.
func run() error {
	// STEP 1: Load configuration with precedence (file > env > defaults).
	configPath := os.Getenv("CARELINK_CONFIG_FILE")
	cfg := config.LoadConfigWithPrecedence(configPath)

	// STEP 2: Create the application with configuration.
	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	application.Start()

	// STEP 3: Mirror stored notifications to the log so the binary shows
	// live activity (or the demo script when the server is unreachable).
	unsubscribe := application.Store().OnAdd(func(n *types.Notification) {
		log.Printf("[%s/%s] %s: %s", n.Type, n.Priority, n.Title, n.Message)
	})
	defer unsubscribe()

	// STEP 4: Authenticate from the environment.
	identity := types.Identity{
		ID:   envOr("CARELINK_USER_ID", "demo-patient"),
		Name: envOr("CARELINK_USER_NAME", "Demo Patient"),
		Role: envOr("CARELINK_USER_ROLE", types.RolePatient),
	}
	if err := application.Session().SetIdentity(identity); err != nil {
		return fmt.Errorf("invalid identity: %w", err)
	}

	// STEP 5: Wait for shutdown signal.
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalCh
	log.Printf("Received signal %v, shutting down gracefully", sig)

	// STEP 6: Logout, then stop with a bounded shutdown budget.
	application.Session().Clear()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sweepline-robotics/coverage.plan/internal/api"
	"github.com/sweepline-robotics/coverage.plan/internal/db"
	"github.com/sweepline-robotics/coverage.plan/internal/machinelink"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode  = flag.Bool("dev", false, "Run in dev mode (mock machine link, static files from disk)")
	listen   = flag.String("listen", ":8080", "Listen address")
	dbFile   = flag.String("db", "trajectories.db", "Path to the sqlite database")
	portPath = flag.String("port", "", "Serial port of the machine controller (empty: no machine link)")
)

// handleTelemetry processes one telemetry line from the machine controller.
func handleTelemetry(payload string) {
	switch {
	case strings.HasPrefix(payload, "POS,"):
		// position updates are high-rate; log only at the default level
		log.Printf("machine position: %s", strings.TrimPrefix(payload, "POS,"))
	case strings.HasPrefix(payload, "DONE"):
		log.Print("machine reports path complete")
	case strings.HasPrefix(payload, "ERR,"):
		log.Printf("machine error: %s", strings.TrimPrefix(payload, "ERR,"))
	default:
		log.Printf("machine: %s", payload)
	}
}

// Main
func main() {
	// Subcommands (migrate, version) run before flag-based startup.
	if ran := runCommand(os.Args[1:]); ran {
		return
	}

	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	var link machinelink.LinkInterface
	if *devMode {
		link = machinelink.NewMockLink([]byte("POS,0.0,0.0\n"), 500*time.Millisecond)
	} else if *portPath != "" {
		var err error
		link, err = machinelink.NewSerialLink(*portPath, machinelink.DefaultPortOptions())
		if err != nil {
			log.Fatalf("failed to open machine link: %v", err)
		}
	}

	if link != nil {
		defer link.Close()
		if err := link.Initialize(); err != nil {
			log.Fatalf("failed to initialize machine link: %v", err)
		}
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Wait group for the HTTP server and machine link routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if link != nil {
		// run the monitor routine to manage IO on the serial port
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := link.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor machine link: %v", err)
			}
			log.Print("monitor routine terminated")
		}()

		// subscribe to telemetry lines and pass them to the handler
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, c := link.Subscribe()
			defer link.Unsubscribe(id)
			for {
				select {
				case payload := <-c:
					handleTelemetry(payload)
				case <-ctx.Done():
					log.Printf("telemetry routine terminated")
					return
				}
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)

		// mount the API handlers
		apiMux := api.NewServer(database, link).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		// read static files from the embedded filesystem in production or from
		// the local ./static in dev for easier iteration without restarting the
		// server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticRoot, err := fs.Sub(staticFiles, "static")
			if err != nil {
				log.Fatalf("failed to open embedded static files: %v", err)
			}
			staticHandler = http.FileServer(http.FS(staticRoot))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

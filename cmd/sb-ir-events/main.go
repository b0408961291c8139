// sb-ir-events watches a Squeezebox player for power and volume changes
// reported by the LMS server and runs configured shell commands (typically
// LIRC's irsend) in response.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	flag "github.com/spf13/pflag"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/audit"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/config"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/db"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/dispatch"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/events"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/scheduler"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/server"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/status"
)

const version = "1.0.0"

func main() {
	showVersion := flag.BoolP("version", "V", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("sb-ir-events %s\n", version)
		return
	}

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(args[0])
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if len(args) == 2 {
		cfg.PlayerName = args[1]
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	tracker := status.NewTracker(cfg.PlayerName)
	broadcaster := status.NewBroadcaster()

	var (
		dbPair       *db.DBPair
		auditService *audit.Service
	)
	if cfg.Audit.Enabled {
		dbPair, err = db.Init(cfg.Audit.Path)
		if err != nil {
			log.Fatalf("audit db error: %v", err)
		}
		auditService = audit.NewService(cfg.Audit, dbPair, nil)
		auditService.RecordStartup(cfg.PlayerName)
		auditService.StartPruneJob()
		tracker.OnStateChange(func(state status.ConnectionState) {
			auditService.RecordSessionState(string(state))
		})
	}

	notify := func(event status.Event) {
		tracker.RecordEvent(event)
		broadcaster.Publish(event)
		if auditService != nil {
			auditService.RecordDispatch(event)
		}
	}

	dispatcher := dispatch.NewShellDispatcher(nil)
	runner := events.NewRunner(cfg, dispatcher, notify, nil)

	supervisor := events.NewSupervisor(cfg, runner, tracker, nil)
	if auditService != nil {
		supervisor.OnSessionError(auditService.RecordSessionError)
	}

	cronService := scheduler.NewService(cfg.Schedules, runner, nil)
	if err := cronService.Start(); err != nil {
		log.Fatalf("scheduler error: %v", err)
	}

	var srv *http.Server
	if cfg.API.Enabled {
		addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
		srv = &http.Server{
			Addr:              addr,
			Handler:           server.NewHandler(tracker, broadcaster, auditService, nil),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("API: listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("api server error: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("sb-ir-events %s watching player %q on %s:%d",
		version, cfg.PlayerName, cfg.Server.Host, cfg.Server.Port)

	// Blocks until the process is told to shut down.
	supervisor.Run(ctx)

	cronService.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		cancel()
	}
	if auditService != nil {
		auditService.StopPruneJob()
	}
	if dbPair != nil {
		if err := dbPair.Close(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <config.yaml> [player-name]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "The optional player-name argument overrides player_name from the config file.\n\nFlags:\n")
	flag.PrintDefaults()
}

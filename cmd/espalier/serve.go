package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	httpAdapter "github.com/aretw0/espalier/internal/adapters/http"
	"github.com/aretw0/espalier/pkg/adapters/graphdoc"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/session"
	"github.com/aretw0/espalier/pkg/world"
)

var serveCmd = &cobra.Command{
	Use:   "serve <rig.yaml>",
	Short: "Start the debug server over a simulated world",
	Long: `Compiles a rig document, spawns a population of instances, steps them
at a fixed rate and exposes the debug API and Prometheus metrics over HTTP.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		population, _ := cmd.Flags().GetInt("instances")
		fps, _ := cmd.Flags().GetInt("fps")
		snapDir, _ := cmd.Flags().GetString("snapshots")

		if err := runServe(cmd, args[0], port, snapDir, population, fps); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Int("instances", 1, "Instances to spawn")
	serveCmd.Flags().Int("fps", 60, "World steps per second")
	serveCmd.Flags().String("snapshots", "", "Directory for snapshot persistence (in-memory when empty)")
}

func runServe(cmd *cobra.Command, path, port, snapDir string, population, fps int) error {
	logger := newLogger(cmd)

	rig, err := graphdoc.LoadFile(path)
	if err != nil {
		return err
	}
	clips := registry.NewRegistry()
	clips.Register("unit", unitClips{})

	collector := observability.NewCollector(prometheus.DefaultRegisterer)
	eng, err := espalier.New(rig,
		espalier.WithLogger(logger),
		espalier.WithClipSource(clips),
		espalier.WithLifecycleHooks(collector.Hooks()))
	if err != nil {
		return err
	}

	w := world.New(eng, world.WithLogger(logger), world.WithCollector(collector))
	for i := 0; i < population; i++ {
		w.Spawn()
	}

	var store ports.SnapshotStore = session.NewMemStore()
	if snapDir != "" {
		store = session.NewFileStore(snapDir)
	}
	snapshots := session.NewManager(store, session.WithLogger(logger))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: httpAdapter.NewHandler(eng, w, httpAdapter.WithSnapshots(snapshots)),
	}

	if fps <= 0 {
		fps = 60
	}
	stepCtx, stopStepping := context.WithCancel(context.Background())
	defer stopStepping()
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		dt := float32(1) / float32(fps)
		for {
			select {
			case <-stepCtx.Done():
				return
			case <-ticker.C:
				w.Step(dt)
			}
		}
	}()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("debug server listening", "addr", srv.Addr, "instances", population)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())
		stopStepping()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
	}
	return nil
}

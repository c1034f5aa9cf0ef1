// Command minikv-master runs the master coordinator: it binds a TCP
// listener, parses CLI flags, wires the index, key-lock table, volume
// roster, and blob client together, and dispatches requests to the
// request handler. No business logic lives here.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamware/minikv/internal/index"
	"github.com/dreamware/minikv/internal/keylock"
	"github.com/dreamware/minikv/internal/master"
	"github.com/dreamware/minikv/internal/mlog"
	"github.com/dreamware/minikv/internal/volumeclient"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "minikv-master",
	Short: "minikv master coordinator",
	Long: `minikv-master is the coordinator of a distributed key-value store
for medium-to-large opaque blobs. It owns a persistent embedded index
mapping keys to volume placements and delegates byte storage to a set
of stateless HTTP volume servers.`,
	RunE: run,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("leveldb-path", "", "path to the durable index directory (required)")
	flags.String("volumes", "", "comma-separated ordered list of volume host[:port] entries (required)")
	flags.Int("port", 3000, "listener port")
	flags.Int("replicas", 3, "replication factor N, 1 <= N <= number of volumes")
	flags.Int("subvolumes", 0, "optional volume-internal sharding count; 0 disables subvolume path prefixes")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "emit structured JSON logs instead of console output")
	flags.Int("max-idle-conns-per-host", 100, "bounded per-host idle connection pool size for the volume client")

	_ = rootCmd.MarkFlagRequired("leveldb-path")
	_ = rootCmd.MarkFlagRequired("volumes")
}

func run(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	logLevel, _ := flags.GetString("log-level")
	logJSON, _ := flags.GetBool("log-json")
	mlog.Init(mlog.Config{Level: mlog.Level(logLevel), JSONOutput: logJSON})
	log := mlog.WithComponent("minikv-master")

	leveldbPath, _ := flags.GetString("leveldb-path")
	volumesRaw, _ := flags.GetString("volumes")
	port, _ := flags.GetInt("port")
	replicas, _ := flags.GetInt("replicas")
	subvolumes, _ := flags.GetInt("subvolumes")
	maxIdlePerHost, _ := flags.GetInt("max-idle-conns-per-host")

	volumes := splitVolumes(volumesRaw)
	if len(volumes) == 0 {
		return fmt.Errorf("minikv-master: --volumes must list at least one volume")
	}
	if replicas < 1 || replicas > len(volumes) {
		return fmt.Errorf("minikv-master: --replicas must satisfy 1 <= N <= %d, got %d", len(volumes), replicas)
	}

	idx, err := index.Open(leveldbPath)
	if err != nil {
		return fmt.Errorf("minikv-master: open index: %w", err)
	}
	defer func() {
		if err := idx.Close(); err != nil {
			log.Error().Err(err).Msg("index close failed")
		}
	}()

	srv := master.NewServer(master.Config{
		Index:      idx,
		Locks:      keylock.New(1024),
		Volumes:    volumes,
		Replicas:   replicas,
		Subvolumes: subvolumes,
		Blobs:      volumeclient.New(maxIdlePerHost),
	})

	addr := ":" + strconv.Itoa(port)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(addr); err != nil {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("minikv-master: listen: %w", err)
	case <-stop:
		log.Info().Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func splitVolumes(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

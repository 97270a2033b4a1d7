package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bascanada/tentacle/pkg/config"
	"github.com/bascanada/tentacle/pkg/ioworker"
	"github.com/bascanada/tentacle/pkg/merge"
	"github.com/bascanada/tentacle/pkg/printer"
	"github.com/bascanada/tentacle/pkg/querycontext"
	"github.com/bascanada/tentacle/pkg/source"
	"github.com/bascanada/tentacle/pkg/stream"
)

var (
	tailFrom   uint64
	tailLevels string
	tailWatch  bool
)

var tailCmd = &cobra.Command{
	Use:   "tail <source-id> [source-id...]",
	Short: "Stream one or more configured sources to stdout, bypassing HTTP",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		logger := newLogger()

		if configPath == "" {
			logger.Error("--config is required")
			os.Exit(1)
		}

		pool := ioworker.New(runtime.NumCPU())
		defer pool.StopAndWait()

		sources, err := config.Load(configPath, pool, logger)
		if err != nil {
			logger.Error("failed to load registry", "err", err)
			os.Exit(1)
		}
		registry, err := source.NewRegistry(sources)
		if err != nil {
			logger.Error("failed to build source registry", "err", err)
			os.Exit(1)
		}

		var levels []string
		if tailLevels != "" {
			for _, l := range strings.Split(tailLevels, ",") {
				levels = append(levels, strings.ToUpper(strings.TrimSpace(l)))
			}
		}
		qc := querycontext.New(tailFrom, levels, tailWatch)

		ctx, cancel := context.WithCancel(context.Background())
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			cancel()
		}()
		defer cancel()

		streams := make([]stream.Stream, 0, len(args))
		for _, id := range args {
			src, err := registry.Get(id)
			if err != nil {
				logger.Error("source not found", "id", id, "err", err)
				os.Exit(1)
			}
			st, err := src.Open(ctx, qc)
			if err != nil {
				logger.Error("failed to open source", "id", id, "err", err)
				os.Exit(1)
			}
			streams = append(streams, st)
		}

		m := merge.New(streams, logger)
		defer m.Close()

		p := printer.New(os.Stdout)
		for {
			entry, err := m.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				return
			}
			p.Print(entry)
		}
	},
}

func init() {
	tailCmd.Flags().Uint64Var(&tailFrom, "from", 0, "only show entries at or after this unix millisecond timestamp")
	tailCmd.Flags().StringVar(&tailLevels, "level", "", "comma-separated loglevel filter")
	tailCmd.Flags().BoolVar(&tailWatch, "watch", false, "keep streaming new lines appended to the live file")
}

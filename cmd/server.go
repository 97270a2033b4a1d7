package cmd

import (
	"errors"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bascanada/tentacle/pkg/api"
	"github.com/bascanada/tentacle/pkg/config"
	"github.com/bascanada/tentacle/pkg/ioworker"
	"github.com/bascanada/tentacle/pkg/server"
	"github.com/bascanada/tentacle/pkg/source"
)

var (
	port       int
	host       string
	poolSize   int
)

var serverCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server exposing the configured sources",
	Run: func(_ *cobra.Command, _ []string) {
		logger := newLogger()

		if configPath == "" {
			logger.Error("--config is required")
			os.Exit(1)
		}

		pool := ioworker.New(poolSize)
		defer pool.StopAndWait()

		logger.Info("loading source registry", "path", configPath)
		sources, err := config.Load(configPath, pool, logger)
		if err != nil {
			switch {
			case errors.Is(err, config.ErrConfigParse):
				logger.Error("invalid registry file", "path", configPath, "err", err, "hint", "check the YAML syntax")
			case errors.Is(err, config.ErrDuplicateID):
				logger.Error("duplicate source id in registry", "err", err)
			case errors.Is(err, config.ErrUnknownType):
				logger.Error("unknown source type in registry", "err", err, "hint", `type must be "file" or "journal"`)
			case errors.Is(err, config.ErrInvalidPattern):
				logger.Error("invalid pattern in registry", "err", err)
			case errors.Is(err, config.ErrInvalidTimezone):
				logger.Error("invalid timezone in registry", "err", err)
			case errors.Is(err, config.ErrMissingField):
				logger.Error("missing required field in registry", "err", err)
			default:
				logger.Error("failed to load registry", "err", err)
			}
			os.Exit(1)
		}

		registry, err := source.NewRegistry(sources)
		if err != nil {
			logger.Error("failed to build source registry", "err", err)
			os.Exit(1)
		}

		s := server.NewServer(host, strconv.Itoa(port), registry, pool, logger, api.OpenAPISpec)

		if err := s.Start(); err != nil {
			logger.Error("server failed to start", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	serverCmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	serverCmd.Flags().StringVarP(&host, "host", "H", "0.0.0.0", "host to bind to")
	serverCmd.Flags().IntVar(&poolSize, "io-workers", runtime.NumCPU(), "size of the blocking-I/O worker pool")
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-mmir/catalog"
	"github.com/RyanBlaney/sonido-mmir/configs"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/pipeline"
	"github.com/RyanBlaney/sonido-mmir/transcode"
)

var (
	configFile string
	envFile    string
	logLevel   string
	workers    int
	recompute  bool
)

var rootCmd = &cobra.Command{
	Use:   "sonido",
	Short: "Music information retrieval over an audio catalog",
	Long: `Extract acoustic feature vectors from an audio catalog, build pairwise
distance matrices, rank catalog items against queries and score the rankings
against a relevance ground truth derived from curated metadata.

Examples:
  # Full evaluation with the default configuration
  sonido evaluate

  # Feature matrix of the reference kit only
  sonido features --kit reference

  # Top 10 cosine neighbours of one recording
  sonido rank MT0000004637.mp3 --metric cosine -n 10`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is ./sonido.yaml or $HOME/.config/sonido/sonido.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"environment file loaded before SONIDO_* variables are read")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0,
		"parallel workers (0 uses every CPU)")
	rootCmd.PersistentFlags().BoolVar(&recompute, "recompute", false,
		"ignore cached artifacts and rebuild them")

	viper.BindPFlag("runtime.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("runtime.workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("runtime.recompute", rootCmd.PersistentFlags().Lookup("recompute"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if err := configs.LoadDotEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sonido"))
		}
		viper.SetConfigName("sonido")
		viper.SetConfigType("yaml")
	}

	configs.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || configFile != "" {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config: %v\n", err)
		}
	}
}

// app holds what every subcommand needs
type app struct {
	cfg     *configs.Config
	logger  *logging.ZapLogger
	decoder *transcode.MultiDecoder
	cache   *catalog.RowCache
}

func newApp() (*app, error) {
	cfg, err := configs.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewZapLogger(cfg.Runtime.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.SetGlobalLogger(logger)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		decoder: transcode.NewMultiDecoder(&cfg.Decoder, logger.WithFields(logging.Fields{"component": "decoder"})),
	}

	if cfg.Paths.CacheDB != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Paths.CacheDB), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		cache, err := catalog.OpenRowCache(cfg.Paths.CacheDB)
		if err != nil {
			return nil, err
		}
		a.cache = cache
	}
	return a, nil
}

func (a *app) runner() *pipeline.Runner {
	return pipeline.NewRunner(a.cfg, a.decoder, a.cache, a.logger)
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close row cache", logging.Fields{"error": err.Error()})
		}
	}
	_ = a.logger.Sync()
}

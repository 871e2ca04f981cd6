package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dapperlabs/lmtht/lmtht"
	"github.com/dapperlabs/lmtht/lmtht/hash"
	"github.com/dapperlabs/lmtht/lmtht/index"
	"github.com/dapperlabs/lmtht/lmtht/storage"
	"github.com/dapperlabs/lmtht/module/metrics"
)

var (
	flagDatadir  string
	flagLogLevel string
	flagHash     string
	flagIndex    uint
	flagMetrics  bool
)

var rootCmd = &cobra.Command{
	Use:   "lmhtctl",
	Short: "Inspect and append to a logarithmic multi-tier hash tree store",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setLogLevel()
	},
}

// Execute runs the root command, exiting the process with a non-zero
// status on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	homedir, _ := os.UserHomeDir()
	datadir := filepath.Join(homedir, ".lmtht", "store.log")

	rootCmd.PersistentFlags().StringVarP(&flagDatadir, "file", "f", datadir,
		"path to the storage file")
	rootCmd.PersistentFlags().StringVarP(&flagLogLevel, "loglevel", "l", "info",
		"log level (panic, fatal, error, warn, info, debug)")
	rootCmd.PersistentFlags().StringVar(&flagHash, "hash", "sha256",
		"digest algorithm: sha224, sha256, sha512, sha512-224, sha512-256, or fast")
	rootCmd.PersistentFlags().UintVar(&flagIndex, "lru-index", 0,
		"size of the in-process LRU node-position index (0 disables it)")
	rootCmd.PersistentFlags().BoolVar(&flagMetrics, "metrics", false,
		"instrument this run with the Prometheus collector (registers against the default registry)")

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("lmhtctl")
}

func setLogLevel() {
	switch flagLogLevel {
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		log.Fatal().Str("loglevel", flagLogLevel).Msg("unsupported log level, choose one of \"panic\", \"fatal\", " +
			"\"error\", \"warn\", \"info\" or \"debug\"")
	}
}

func resolveHasher() hash.Hasher {
	switch flagHash {
	case "sha224":
		return hash.SHA224()
	case "sha256":
		return hash.SHA256()
	case "sha512":
		return hash.SHA512()
	case "sha512-224":
		return hash.SHA512_224()
	case "sha512-256":
		return hash.SHA512_256()
	case "fast":
		return hash.Fast()
	default:
		log.Fatal().Str("hash", flagHash).Msg("unsupported hash algorithm")
		return nil
	}
}

// openTree opens the storage file named by --file, wiring in the hash
// algorithm and optional LRU index chosen on the command line.
func openTree() *lmtht.Tree {
	if err := os.MkdirAll(filepath.Dir(flagDatadir), 0o755); err != nil {
		log.Fatal().Err(err).Str("file", flagDatadir).Msg("could not create storage directory")
	}

	opts := []lmtht.Option{lmtht.WithLogger(log.Logger)}
	if flagMetrics {
		opts = append(opts, lmtht.WithMetrics(metrics.NewPrometheusCollector()))
	}
	if flagIndex > 0 {
		idx, err := index.NewLRUIndex(int(flagIndex))
		if err != nil {
			log.Fatal().Err(err).Msg("could not construct LRU index")
		}
		opts = append(opts, lmtht.WithIndex(idx))
	}

	s := storage.NewFileStorage(flagDatadir)
	tree, err := lmtht.Open(s, resolveHasher(), opts...)
	if err != nil {
		log.Fatal().Err(err).Str("file", flagDatadir).Msg("could not open storage")
	}
	return tree
}

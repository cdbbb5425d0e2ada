package cmd

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fueltrack/config"
)

var RootCmd = NewRootCmd()

// settings is resolved once per invocation in PersistentPreRunE.
type settings struct {
	v   *viper.Viper
	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:   "fueltrack",
		Short: "split fuel costs of a shared car",
		Long: `fueltrack keeps the odometer log of a shared car, derives the distance each
member drove between fill-ups and splits every fuel payment accordingly`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config-dir", "", "directory holding fueltrack.yaml")
	pf.String("store", "", "storage backend (mem, csv, badger, pg)")
	pf.String("data-dir", "", "directory for csv and badger data")
	pf.String("members", "", "comma separated member names")
	pf.String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(recordCommand(s))
	root.AddCommand(tankCommand(s))
	root.AddCommand(checkCommand(s))
	root.AddCommand(recomputeCommand(s))
	root.AddCommand(importCommand(s))
	root.AddCommand(serverCommand(s))
	root.AddCommand(migrateCommand(s))
	return root
}

var persistentKeys = map[string]string{
	"store":     "store",
	"data-dir":  "data_dir",
	"members":   "members",
	"log-level": "log_level",
}

func (s *settings) load(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	v, err := config.New(configDir)
	if err != nil {
		return err
	}
	for flag, key := range persistentKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	// command specific flags are bound by name
	for flag, key := range commandKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	s.v, s.cfg = v, cfg
	setupLogger(cmd.ErrOrStderr(), cfg)
	return nil
}

var commandKeys = map[string]string{
	"port":  "port",
	"dev":   "dev",
	"mq":    "mq_mode",
	"limit": "rate_limit",
}

func setupLogger(w io.Writer, cfg *config.Config) {
	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.IsDev {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func Execute() int {
	if err := RootCmd.Execute(); err != nil {
		// cobra already printed the error
		return 1
	}
	return 0
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

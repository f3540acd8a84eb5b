package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lending-deploy/core"
)

const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
	flagStrict   = "strict"
	flagRPC      = "rpc"
	flagJournal  = "journal"
	flagPending  = "pending"
	flagBuffer   = "eta-buffer"
	flagInterval = "poll-interval"
	flagExecTx   = "execution-tx"

	envMnemonic = "MNEMONIC"
	envRPC      = "DEPLOYCTL_RPC"

	maxConnections = 4
)

var (
	ErrNoConfigFile = errors.New("no config file provided")
	ErrNoRPC        = errors.New("no rpc url provided")
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "deployctl",
		Short:        "Inspects and governs a lending protocol deployment",
		Version:      Version,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringP(flagConfig, "c", "", "Path to the deployment address book (.yaml, .yml or .json).")
	pf.String(flagLogLevel, "info", "Log level (trace, debug, info, warn, error).")
	pf.Bool(flagStrict, false, "Require every address to be a 20 byte hex address.")

	root.AddCommand(
		newValidateCommand(),
		newTiersCommand(),
		newShowCommand(),
		newVerifyCommand(),
		newTimelockCommand(),
	)

	return root
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	levelName, _ := cmd.Flags().GetString(flagLogLevel)

	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().
		Logger()
}

func newValidator(cmd *cobra.Command) (*core.Validator, error) {
	var opts []core.Option
	if strict, _ := cmd.Flags().GetBool(flagStrict); strict {
		opts = append(opts, core.WithStrictAddresses())
	}

	return core.NewValidator(opts...)
}

// loadConfig reads and validates the address book named by --config.
func loadConfig(cmd *cobra.Command) (core.Config, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	if len(path) == 0 {
		return core.Config{}, ErrNoConfigFile
	}

	v, err := newValidator(cmd)
	if err != nil {
		return core.Config{}, err
	}

	conf, err := core.LoadConfig(path)
	if err != nil {
		return core.Config{}, err
	}

	if err := v.ValidateConfig(conf); err != nil {
		return core.Config{}, err
	}

	return conf, nil
}

// environment holds the settings read from environment variables.
type environment struct {
	Mnemonic string `env:"MNEMONIC"`
	RPC      string `env:"DEPLOYCTL_RPC"`
}

func loadEnvironment() (environment, error) {
	var e environment
	if err := env.Parse(&e); err != nil {
		return environment{}, fmt.Errorf("error getting env configs: %w", err)
	}

	return e, nil
}

// rpcURL returns --rpc, falling back to DEPLOYCTL_RPC.
func rpcURL(cmd *cobra.Command) (string, error) {
	url, _ := cmd.Flags().GetString(flagRPC)
	if len(url) != 0 {
		return url, nil
	}

	e, err := loadEnvironment()
	if err != nil {
		return "", err
	}
	if len(e.RPC) == 0 {
		return "", ErrNoRPC
	}

	return e.RPC, nil
}

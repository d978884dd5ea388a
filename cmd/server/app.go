package main

import (
	"context"
	"fmt"
	"io"

	"github.com/liondadev/quick-file-stash/config"
	"github.com/liondadev/quick-file-stash/kv"
	"github.com/liondadev/quick-file-stash/logging"
	"github.com/liondadev/quick-file-stash/reader"
	"github.com/liondadev/quick-file-stash/registry"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	ConfigPath string
	Driver     string
	StorePath  string
	Key        string
}

// app is what every subcommand works with, opened once the flags are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer
	fs     afero.Fs
	opts   globalOptions

	cfg   *config.Config
	log   logging.Logger
	store kv.Store
	reg   *registry.Registry
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, fs: afero.NewOsFs()}
}

// loadConfig reads the config file and lets flags override it.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Driver = a.opts.Driver
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = a.opts.StorePath
	}
	if flags.Changed("key") {
		cfg.StorageKey = a.opts.Key
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	return nil
}

func (a *app) open(ctx context.Context, cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	log, err := logging.New(a.errOut, a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log

	store, err := kv.Open(a.cfg.Store)
	if err != nil {
		return err
	}

	reg, err := registry.New(ctx, store,
		registry.WithKey(a.cfg.StorageKey),
		registry.WithLogger(log),
		registry.WithReader(reader.New(a.cfg.MaxUploadBytes)),
	)
	if err != nil {
		_ = store.Close()
		return err
	}

	if err := reg.LoadErr(); err != nil {
		log.Warn(ctx, "continuing with an empty registry", "err", err)
	}

	a.store = store
	a.reg = reg
	return nil
}

func (a *app) close() error {
	if a.reg != nil {
		a.reg.Wait()
	}
	if a.store == nil {
		return nil
	}

	err := a.store.Close()
	a.store = nil
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jbweber/vbsnap/internal/command"
	"github.com/jbweber/vbsnap/internal/config"
	"github.com/jbweber/vbsnap/internal/inventory"
	"github.com/jbweber/vbsnap/internal/logging"
	"github.com/jbweber/vbsnap/internal/output"
	"github.com/jbweber/vbsnap/internal/reconcile"
	"github.com/jbweber/vbsnap/internal/session"
	"github.com/jbweber/vbsnap/internal/vbox"
	"github.com/jbweber/vbsnap/internal/vm"
)

func runRoot(cmd *cobra.Command, args []string) (err error) {
	cfg, err := config.Load(settings, configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	if writeConfigPath != "" {
		if err := config.WriteFile(writeConfigPath, cfg); err != nil {
			return err
		}
		log.Infof("Configuration written to %s", writeConfigPath)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics, err := vbox.NewMetrics(reg)
	if err != nil {
		return err
	}
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := vbox.WriteTextfile(cfg.MetricsFile, reg); werr != nil {
				log.WithError(werr).Warn("Failed to write metrics")
			}
		}()
	}

	client := vbox.NewClient(vbox.NewExecRunner(cfg.VBoxManage, log, metrics), log)

	store := inventory.Load(cfg.DB, cfg.Group, log)
	defer func() {
		if perr := store.Persist(); perr != nil {
			log.WithError(perr).Error("Failed to save inventory")
			if err == nil {
				err = perr
			}
		}
	}()

	rec := reconcile.New(client, store, log, reconcile.Options{Prune: cfg.Prune})
	if !cfg.NoScan {
		if err := rec.Refresh(ctx); err != nil && !vbox.IsToolError(err) {
			return err
		}
	}

	formatter, err := output.NewFormatter(output.Options{Format: output.Format(cfg.Output)})
	if err != nil {
		return err
	}
	manager := vm.NewManager(client, rec, store, vm.Options{
		Formatter: formatter,
		Out:       os.Stdout,
		StartPort: cfg.StartPort,
		Log:       log,
	})
	dispatcher := command.NewDispatcher(manager, os.Stderr, log)

	if cfg.Interactive {
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return session.Run(ctx, os.Stdin, os.Stdout, interactive, dispatcher, log)
	}
	return oneShot(ctx, dispatcher, args, log)
}

// oneShot runs a single command. Tool failures are reported in the log and
// do not fail the process.
func oneShot(ctx context.Context, d *command.Dispatcher, args []string, log logrus.FieldLogger) error {
	err := d.Run(ctx, args)
	if err == nil {
		return nil
	}
	if vbox.IsToolError(err) {
		log.WithError(err).WithField("stderr", vbox.ToolStderr(err)).Error("VBoxManage failed")
		return nil
	}
	return fmt.Errorf("failed to run command: %w", err)
}

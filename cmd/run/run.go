// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package run

import (
	"context"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/config"
	"github.com/stratastor/zclone/internal/status"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/lifecycle"
	"github.com/stratastor/zclone/pkg/notify"
	"github.com/stratastor/zclone/pkg/replication"
	"github.com/stratastor/zclone/pkg/zfs/catalog"
	"github.com/stratastor/zclone/pkg/zfs/command"
	"github.com/stratastor/zclone/pkg/zfs/publish"
	"github.com/stratastor/zclone/pkg/zfs/remote"
	"github.com/stratastor/zclone/pkg/zfs/retention"
	"github.com/stratastor/zclone/pkg/zfs/transfer"
)

var (
	detached   bool
	configPath string
)

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the replication daemon",
		Run:   runDaemon,
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	return cmd
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg := config.LoadConfig(configPath)
	lcfg := config.NewLoggerConfig(cfg)
	log, err := logger.NewTag(lcfg, "run")
	if err != nil {
		panic(err)
	}

	// Configuration errors fail before any cycle starts
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	pidFile := cfg.PIDFilePath()
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		if errors.HasCode(err, errors.LifecycleInstanceConflict) {
			// Not a crash: the profile is already being replicated
			log.Info("zclone instance already running", "error", err)
			os.Exit(0)
		}
		log.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	if detached {
		dargs := []string{"zclone", "run"}
		if configPath != "" {
			dargs = append(dargs, "--config", configPath)
		}

		dctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			WorkDir:     "/",
			Umask:       027,
			Args:        dargs,
		}

		d, err := dctx.Reborn()
		if err != nil {
			log.Error("Failed to start daemon", "error", err)
			os.Exit(1)
		}

		if d != nil {
			log.Info("zclone is running as a daemon", "pid", d.Pid)
			return
		}
		defer dctx.Release()
	}

	startEngine(cfg)
}

func startEngine(cfg *config.Config) {
	lcfg := config.NewLoggerConfig(cfg)
	log, err := logger.NewTag(lcfg, "run")
	if err != nil {
		panic(err)
	}

	executor, err := command.NewCommandExecutor(true, lcfg)
	if err != nil {
		log.Error("Failed to create command executor", "error", err)
		os.Exit(1)
	}

	remoteExec, err := remote.NewExecutor(remote.Config{
		Host:           cfg.Master.Host,
		User:           cfg.Remote.User,
		SSHBinary:      cfg.Remote.SSHBinary,
		ConnectTimeout: time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
		Options:        cfg.Remote.Options,
	}, lcfg)
	if err != nil {
		log.Error("Failed to create remote executor", "error", err)
		os.Exit(1)
	}

	pipeline, err := transfer.NewPipeline(remoteExec, transfer.Config{UseSudo: true}, lcfg)
	if err != nil {
		log.Error("Failed to create transfer pipeline", "error", err)
		os.Exit(1)
	}

	retMgr, err := retention.NewManager(lcfg)
	if err != nil {
		log.Error("Failed to create retention manager", "error", err)
		os.Exit(1)
	}

	var publisher replication.Publisher
	if cfg.PublishEnabled() {
		pub, err := publish.NewManager(executor, cfg.Clone.MountRoot, cfg.Clone.LinkPath, lcfg)
		if err != nil {
			log.Error("Failed to create publish manager", "error", err)
			os.Exit(1)
		}
		publisher = pub
	}

	var notifier replication.Notifier
	if cfg.Notify.WebhookURL != "" {
		wh, err := notify.NewWebhook(notify.Config{
			WebhookURL: cfg.Notify.WebhookURL,
			Timeout:    time.Duration(cfg.Notify.TimeoutSeconds) * time.Second,
			RetryCount: cfg.Notify.RetryCount,
		}, lcfg)
		if err != nil {
			log.Error("Failed to create webhook notifier", "error", err)
			os.Exit(1)
		}
		notifier = wh
	}

	engine, err := replication.New(replication.Params{
		Config:          cfg,
		MasterCatalog:   catalog.NewRemoteCatalog(remoteExec, cfg.Profile),
		LocalCatalog:    catalog.NewLocalCatalog(executor, cfg.Profile),
		Snapshotter:     remote.NewSnapshotter(remoteExec),
		Pipeline:        pipeline,
		Publisher:       publisher,
		Retention:       retMgr,
		LocalDestroyer:  retention.NewLocalDestroyer(executor),
		MasterDestroyer: retention.NewRemoteDestroyer(remoteExec),
		Notifier:        notifier,
	}, lcfg)
	if err != nil {
		log.Error("Failed to create replication engine", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lifecycle.RegisterContextCanceller(cancel)
	go lifecycle.HandleSignals(ctx)

	if cfg.Status.Enabled {
		statusSrv, err := status.NewServer(engine, cfg.Profile, lcfg)
		if err != nil {
			log.Error("Failed to create status API", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := statusSrv.Start(ctx, cfg.Status.Port); err != nil {
				log.Error("Status API failed", "error", err)
			}
		}()
	}

	log.Info("Starting replication",
		"master", cfg.Master.Host,
		"dataset", cfg.Master.Dataset,
		"local", cfg.LocalDataset(),
		"profile", cfg.Profile)

	if cfg.Replication.Schedule != "" {
		runScheduled(ctx, cfg, engine, log)
		return
	}

	if err := engine.Run(ctx); err != nil {
		log.Error("Replication terminated", "error", err)
		os.Exit(1)
	}
}

// runScheduled fires cycles from a cron schedule instead of the continuous
// loop. Singleton mode prevents overlapping cycles when one outlasts the
// schedule interval.
func runScheduled(ctx context.Context, cfg *config.Config, engine *replication.Engine, log logger.Logger) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		os.Exit(1)
	}

	fatal := make(chan error, 1)
	_, err = scheduler.NewJob(
		gocron.CronJob(cfg.Replication.Schedule, false),
		gocron.NewTask(func() {
			if _, err := engine.RunCycle(ctx); err != nil {
				select {
				case fatal <- err:
				default:
				}
			}
		}),
		gocron.WithName("replication-cycle"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Error("Failed to schedule replication cycles", "error", err)
		os.Exit(1)
	}

	scheduler.Start()
	log.Info("Replication cycles scheduled", "schedule", cfg.Replication.Schedule)

	select {
	case <-ctx.Done():
		scheduler.Shutdown()
	case err := <-fatal:
		scheduler.Shutdown()
		log.Error("Replication terminated", "error", err)
		os.Exit(1)
	}
}

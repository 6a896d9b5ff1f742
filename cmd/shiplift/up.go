package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/avezina/shiplift/internal/config"
	"github.com/avezina/shiplift/internal/db"
	"github.com/avezina/shiplift/internal/notify"
	"github.com/avezina/shiplift/internal/pipeline"
)

func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Run the full pipeline: build, push, deploy, migrate, dns",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			s := newServices()
			run, err := newPipelineRunner(s).Execute(cmd.Context(), from)
			if run != nil {
				recordRelease(cmd.Context(), s, run)
				notifyFinished(cmd.Context(), s, run)
			}
			return err
		},
	}
	cmd.Flags().String("from", "", "resume from the named step")
	return cmd
}

// recordRelease appends the run outcome to the deployment ledger. Ledger
// problems are logged and swallowed: the rollout already happened.
func recordRelease(ctx context.Context, s *services, run *pipeline.Run) {
	if config.DBHost() == "" {
		return
	}
	database, err := openDatabase()
	if err != nil {
		s.log.Error(err, "open ledger database")
		return
	}
	defer database.Close()

	releases := db.NewReleaseRepository(database)
	if err := releases.EnsureSchema(ctx); err != nil {
		s.log.Error(err, "ensure ledger schema")
		return
	}

	status := db.ReleaseDeployed
	var notes *string
	if run.Status != pipeline.RunSucceeded {
		status = db.ReleaseFailed
		if run.Error != "" {
			msg := run.Error
			notes = &msg
		}
	}
	release := &db.Release{
		Service:     config.ServiceName(),
		ImageTag:    config.ImageTag(),
		ImageDigest: run.Artifacts.ImageDigest,
		Revision:    run.Artifacts.Revision,
		TaskDefARN:  run.Artifacts.TaskDefARN,
		Status:      status,
		Notes:       notes,
	}
	if err := releases.Record(ctx, release); err != nil {
		s.log.Error(err, "record release")
		return
	}
	s.log.Info("release recorded", "service", release.Service, "status", status)
}

func notifyFinished(ctx context.Context, s *services, run *pipeline.Run) {
	event := notify.Event{
		Service:  config.ServiceName(),
		Status:   run.Status,
		ImageRef: run.Artifacts.ImageRef,
		Revision: run.Artifacts.Revision,
		URL:      run.Artifacts.URL,
		Error:    run.Error,
	}
	if run.FinishedAt != nil {
		event.Duration = run.FinishedAt.Sub(run.StartedAt)
	}
	if err := notify.New(config.SlackWebhookURL(), s.log).DeployFinished(ctx, event); err != nil {
		s.log.Error(err, "send deploy notification")
	}
}

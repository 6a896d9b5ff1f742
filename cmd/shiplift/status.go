package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/avezina/shiplift/internal/config"
	"github.com/avezina/shiplift/internal/pipeline"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the ECS service state and the last pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newServices()
			out := cmd.OutOrStdout()

			summary, err := s.aws.DescribeService(cmd.Context(), config.ClusterName(), config.ServiceName())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Service:         %s/%s\n", config.ClusterName(), config.ServiceName())
			fmt.Fprintf(out, "Status:          %s\n", summary.Status)
			if summary.RolloutState != "" {
				fmt.Fprintf(out, "Rollout:         %s\n", summary.RolloutState)
			}
			fmt.Fprintf(out, "Tasks:           %d desired, %d running, %d pending\n",
				summary.Desired, summary.Running, summary.Pending)
			if summary.TaskDefinition != "" {
				fmt.Fprintf(out, "Task definition: %s\n", summary.TaskDefinition)
			}

			run, err := s.store.LoadLastRun()
			if err != nil {
				return err
			}
			printLastRun(out, run)
			return nil
		},
	}
}

func printLastRun(out io.Writer, run *pipeline.Run) {
	if run == nil {
		fmt.Fprintln(out, "\nNo recorded pipeline run.")
		return
	}
	fmt.Fprintf(out, "\nLast run:        %s (started %s)\n",
		run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FailedStep != "" {
		fmt.Fprintf(out, "Failed step:     %s\n", run.FailedStep)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:           %s\n", run.Error)
	}
	for _, step := range run.Steps {
		fmt.Fprintf(out, "  %-8s %-8s %6dms\n", step.Name, step.Status, step.DurationMS)
	}
	if run.Artifacts.ImageRef != "" {
		fmt.Fprintf(out, "Image:           %s\n", run.Artifacts.ImageRef)
	}
	if run.Artifacts.Revision != "" {
		fmt.Fprintf(out, "Revision:        %s\n", run.Artifacts.Revision)
	}
	if run.Artifacts.URL != "" {
		fmt.Fprintf(out, "URL:             %s\n", run.Artifacts.URL)
	}
}

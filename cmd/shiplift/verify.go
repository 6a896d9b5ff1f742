package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/avezina/shiplift/internal/config"
	"github.com/avezina/shiplift/internal/probe"
)

// verify lives outside the pipeline on purpose: the deploy sequence never
// gates on application health, so the probe is a separate observation.
func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Probe the deployed application until it responds",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newServices()

			url := ""
			if run, err := s.store.LoadLastRun(); err != nil {
				return err
			} else if run != nil {
				url = run.Artifacts.URL
			}
			if url == "" && config.DomainName() != "" {
				url = "https://" + config.DomainName() + "/"
			}
			if url == "" {
				return errors.New("no URL to probe: configure domain_name or run the dns step")
			}

			result, err := probe.New(s.log).WaitHealthy(cmd.Context(), url)
			if err != nil {
				return err
			}
			s.log.Info("application responding",
				"url", result.URL, "status", result.StatusCode, "attempts", result.Attempts)
			return nil
		},
	}
}

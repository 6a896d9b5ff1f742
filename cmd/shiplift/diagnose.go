package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avezina/shiplift/internal/config"
	"github.com/avezina/shiplift/internal/diagnose"
)

func newDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Ask a local LLM to explain the last failed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newServices()
			run, err := s.store.LoadLastRun()
			if err != nil {
				return err
			}
			if run == nil {
				return errors.New("no recorded run to diagnose")
			}

			var timeout time.Duration
			if raw := config.LLMCallTimeout(); raw != "" {
				timeout, err = time.ParseDuration(raw)
				if err != nil {
					return fmt.Errorf("parse llm_call_timeout: %w", err)
				}
			}

			diagnoser, err := diagnose.New(diagnose.Config{
				OllamaURL:   config.OllamaURL(),
				ModelName:   config.DiagnoseModel(),
				CallTimeout: timeout,
			}, s.log)
			if err != nil {
				return err
			}

			explanation, err := diagnoser.Explain(cmd.Context(), run)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), explanation)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avezina/shiplift/internal/envfile"
)

func newEnvCmd() *cobra.Command {
	var (
		templatePath string
		withSecrets  bool
	)

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Render the application env file from the current configuration",
		Long: "Renders the env file the build stage would stage into the image. By default\n" +
			"credentials are left at their template values, exactly as they are in the\n" +
			"image; --with-secrets renders the full runtime set instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			content := envfile.DefaultTemplate
			if templatePath != "" {
				raw, err := os.ReadFile(templatePath)
				if err != nil {
					return fmt.Errorf("read template: %w", err)
				}
				content = string(raw)
			}

			values := nonSecretEnv()
			if withSecrets {
				values = fullEnv()
			}
			fmt.Fprint(cmd.OutOrStdout(), envfile.Render(content, values.Values()))
			return nil
		},
	}

	cmd.Flags().StringVar(&templatePath, "template", "", "env template file (default: built-in)")
	cmd.Flags().BoolVar(&withSecrets, "with-secrets", false, "include database credentials in the output")
	return cmd
}

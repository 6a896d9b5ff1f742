package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avezina/shiplift/internal/config"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shiplift",
		Short: "Build, push, and deploy the application to ECS",
		Long: "Shiplift drives the deployment pipeline for the PHP application: it fetches\n" +
			"the source from GitHub, builds and pushes the container image, rolls the\n" +
			"Fargate service onto it, runs database migrations, and publishes DNS and TLS.",
	}

	cmd.PersistentFlags().String("region", "", "AWS region")
	cmd.PersistentFlags().String("profile", "", "AWS profile")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("state-dir", "", "directory for run state")

	cmd.AddCommand(newUpCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newPushCmd())
	cmd.AddCommand(newDeployCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newDNSCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newReleasesCmd())
	cmd.AddCommand(newEnvCmd())
	cmd.AddCommand(newDiagnoseCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shiplift %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func main() {
	root := newRootCmd()
	config.Init(root)
	flags := root.PersistentFlags()
	_ = viper.BindPFlag(config.KeyAWSRegion, flags.Lookup("region"))
	_ = viper.BindPFlag(config.KeyAWSProfile, flags.Lookup("profile"))
	_ = viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyStateDir, flags.Lookup("state-dir"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shiplift: %v\n", err)
		os.Exit(1)
	}
}

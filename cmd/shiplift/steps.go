package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avezina/shiplift/internal/build"
	"github.com/avezina/shiplift/internal/config"
	"github.com/avezina/shiplift/internal/db"
	dbmigrate "github.com/avezina/shiplift/internal/db/migrate"
	"github.com/avezina/shiplift/internal/dns"
	"github.com/avezina/shiplift/internal/envfile"
	"github.com/avezina/shiplift/internal/fargate"
	"github.com/avezina/shiplift/internal/pipeline"
	"github.com/avezina/shiplift/internal/publish"
	"github.com/avezina/shiplift/internal/source"
)

// containerName is the container entry inside the task definition the load
// balancer routes to.
const containerName = "app"

func pipelineSteps(s *services) []pipeline.Step {
	return []pipeline.Step{
		{Name: "build", Run: buildStep(s)},
		{Name: "push", Run: pushStep(s)},
		{Name: "deploy", Run: deployStep(s)},
		{Name: "migrate", Run: migrateStep(s)},
		{Name: "dns", Run: dnsStep(s)},
	}
}

func newPipelineRunner(s *services) *pipeline.Runner {
	return pipeline.NewRunner(pipelineSteps(s), s.store, s.log)
}

// stageDir is where the fetched source checkout lives between steps.
func stageDir() string {
	return filepath.Join(config.StateDir(), "src")
}

// nonSecretEnv is the value set baked into the image. Credentials are left
// out; they reach the container through the task definition at launch.
func nonSecretEnv() envfile.Settings {
	return envfile.Settings{
		AppEnv:     config.AppEnv(),
		Domain:     config.DomainName(),
		DBHost:     config.DBHost(),
		DBDatabase: config.DBDatabase(),
	}
}

// fullEnv is the runtime value set for the task definition, credentials
// included.
func fullEnv() envfile.Settings {
	env := nonSecretEnv()
	env.DBUsername = config.DBUsername()
	env.DBPassword = config.DBPassword()
	return env
}

func buildStep(s *services) func(context.Context, *pipeline.Run) error {
	return func(ctx context.Context, run *pipeline.Run) error {
		repo, err := source.ParseRepo(config.SourceRepo())
		if err != nil {
			return err
		}

		stage := stageDir()
		if err := os.RemoveAll(stage); err != nil {
			return fmt.Errorf("clear staging dir: %w", err)
		}
		fetcher := source.NewFetcher(source.NewGitHubClient(config.GitHubToken()), s.log)
		revision, err := fetcher.Fetch(ctx, repo, config.SourceRef(), stage)
		if err != nil {
			return err
		}
		run.Artifacts.Revision = revision

		localTag := config.ECRRepository() + ":" + config.ImageTag()
		builder := build.NewBuilder(s.docker, s.log)
		if err := builder.Build(ctx, build.Inputs{
			ContextDir: stage,
			Tag:        localTag,
			BaseImage:  config.BaseImage(),
			Env:        nonSecretEnv(),
		}); err != nil {
			return err
		}
		run.Artifacts.LocalTag = localTag
		return nil
	}
}

func pushStep(s *services) func(context.Context, *pipeline.Run) error {
	return func(ctx context.Context, run *pipeline.Run) error {
		if run.Artifacts.LocalTag == "" {
			return errors.New("no built image recorded, run the build step first")
		}
		publisher := publish.NewPublisher(s.aws, s.docker, s.log)
		result, err := publisher.Publish(ctx, run.Artifacts.LocalTag, config.ECRRepository(), config.ImageTag())
		if err != nil {
			return err
		}
		run.Artifacts.ImageRef = result.ImageRef
		run.Artifacts.ImageDigest = result.Digest
		return nil
	}
}

func deployOptions() fargate.Options {
	return fargate.Options{
		Cluster:           config.ClusterName(),
		Service:           config.ServiceName(),
		DesiredCount:      config.DesiredCount(),
		Subnets:           config.Subnets(),
		SecurityGroups:    config.SecurityGroups(),
		TargetGroupARN:    config.TargetGroupARN(),
		ContainerName:     containerName,
		ScaleMin:          config.ScaleMin(),
		ScaleMax:          config.ScaleMax(),
		RequestsPerTarget: config.ScaleRequestsTarget(),
	}
}

func deployStep(s *services) func(context.Context, *pipeline.Run) error {
	return func(ctx context.Context, run *pipeline.Run) error {
		if run.Artifacts.ImageRef == "" {
			return errors.New("no pushed image recorded, run the push step first")
		}

		family := config.TaskFamily()
		if family == "" {
			family = config.ServiceName()
		}
		taskDefJSON, err := fargate.RenderTaskDefinition(fargate.TaskDef{
			Family:           family,
			CPU:              config.TaskCPU(),
			Memory:           config.TaskMemory(),
			Region:           config.AWSRegion(),
			ExecutionRoleARN: config.ExecutionRoleARN(),
			TaskRoleARN:      config.TaskRoleARN(),
			ContainerName:    containerName,
			Image:            run.Artifacts.ImageRef,
			LogGroup:         config.LogGroup(),
			Environment:      fargate.EnvFromValues(fullEnv().Values()),
		})
		if err != nil {
			return err
		}

		deployer := fargate.NewDeployer(s.aws, s.log)
		opts := deployOptions()
		arn, err := deployer.Deploy(ctx, taskDefJSON, opts)
		if err != nil {
			return err
		}
		run.Artifacts.TaskDefARN = arn
		return deployer.ConfigureScaling(ctx, opts)
	}
}

// migrationsDir prefers the staged checkout so the schema matches the code
// being deployed, falling back to the configured path when nothing is staged.
func migrationsDir() string {
	staged := filepath.Join(stageDir(), config.MigrationsDir())
	if info, err := os.Stat(staged); err == nil && info.IsDir() {
		return staged
	}
	return config.MigrationsDir()
}

func migrateStep(s *services) func(context.Context, *pipeline.Run) error {
	return func(ctx context.Context, run *pipeline.Run) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		dir := migrationsDir()
		manager, err := dbmigrate.NewManager(database.Bun(), dir)
		if err != nil {
			return err
		}
		if err := manager.Init(ctx); err != nil {
			return err
		}
		applied, err := manager.MigrateUp(ctx)
		if err != nil {
			return err
		}
		s.log.Info("migrations applied", "count", applied, "dir", dir)
		return nil
	}
}

func openDatabase() (*db.Database, error) {
	dsn, err := db.BuildDSN(config.DBConnection(), config.DBHost(), config.DBPort(),
		config.DBDatabase(), config.DBUsername(), config.DBPassword())
	if err != nil {
		return nil, err
	}
	return db.NewDatabase(db.Config{
		Connection: config.DBConnection(),
		DSN:        dsn,
		Debug:      config.DBDebug(),
	})
}

func dnsStep(s *services) func(context.Context, *pipeline.Run) error {
	return func(ctx context.Context, run *pipeline.Run) error {
		if config.DomainName() == "" {
			s.log.Info("no domain configured, skipping DNS setup")
			return nil
		}
		manager := dns.NewManager(s.aws, s.log)
		url, err := manager.Ensure(ctx, dns.Options{
			Domain:         config.DomainName(),
			HostedZoneID:   config.HostedZoneID(),
			ListenerARN:    config.ListenerARN(),
			TargetGroupARN: config.TargetGroupARN(),
		})
		if err != nil {
			return err
		}
		run.Artifacts.URL = url
		return nil
	}
}

// newStepCmd exposes one pipeline step as its own subcommand. The step runs
// on top of the previous run's artifacts.
func newStepCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newServices()
			_, err := newPipelineRunner(s).ExecuteOne(cmd.Context(), name)
			return err
		},
	}
}

func newBuildCmd() *cobra.Command {
	return newStepCmd("build", "Fetch the source and build the container image")
}

func newPushCmd() *cobra.Command {
	return newStepCmd("push", "Push the built image to ECR")
}

func newDeployCmd() *cobra.Command {
	return newStepCmd("deploy", "Register a task definition and roll the service onto it")
}

func newMigrateCmd() *cobra.Command {
	return newStepCmd("migrate", "Apply pending database migrations")
}

func newDNSCmd() *cobra.Command {
	return newStepCmd("dns", "Publish DNS and TLS for the configured domain")
}

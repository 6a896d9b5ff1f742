// Package build stages the application source for docker build: it renders
// the runtime config file, writes the Dockerfile, and runs the build. Any
// failure aborts the build; staging is recreated from scratch on the next run.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avezina/shiplift/internal/docker"
	"github.com/avezina/shiplift/internal/envfile"
	"github.com/avezina/shiplift/internal/logging"
)

const (
	webRoot    = "/var/www/html"
	storageDir = "storage"
)

// Inputs describe one image build.
type Inputs struct {
	// ContextDir is the staged source tree, which is also the build context.
	ContextDir string
	// Tag is the local image tag.
	Tag string
	// BaseImage overrides the PHP+Apache base layer.
	BaseImage string
	// Env values are written into the staged config file and therefore into
	// an image layer. Keep secrets out of it; they are injected into the task
	// environment at launch instead.
	Env envfile.Settings
}

type Builder struct {
	docker *docker.Client
	log    logging.Logger
}

func NewBuilder(d *docker.Client, log logging.Logger) *Builder {
	return &Builder{docker: d, log: log.WithName("build")}
}

// Build stages the config file and Dockerfile into the context directory and
// runs docker build.
func (b *Builder) Build(ctx context.Context, in Inputs) error {
	if err := b.stageEnvFile(in.ContextDir, in.Env); err != nil {
		return err
	}
	dockerfile, err := b.stageDockerfile(in.ContextDir, in.BaseImage)
	if err != nil {
		return err
	}

	b.log.Info("building image", "tag", in.Tag, "context", in.ContextDir)
	if err := b.docker.Build(ctx, dockerfile, in.Tag, in.ContextDir); err != nil {
		return fmt.Errorf("build image %s: %w", in.Tag, err)
	}
	return nil
}

// stageEnvFile renders .env in the context directory. When the source ships a
// .env.example it is used as the template, otherwise the built-in one is.
func (b *Builder) stageEnvFile(dir string, env envfile.Settings) error {
	tmpl := envfile.DefaultTemplate
	if data, err := os.ReadFile(filepath.Join(dir, ".env.example")); err == nil {
		tmpl = string(data)
	}
	rendered := envfile.Render(tmpl, env.Values())
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("build: write env file: %w", err)
	}
	return nil
}

func (b *Builder) stageDockerfile(dir, baseImage string) (string, error) {
	if baseImage == "" {
		baseImage = "php:8.2-apache"
	}
	content, err := RenderDockerfile(dockerfileParams{
		BaseImage:  baseImage,
		WebRoot:    webRoot,
		StorageDir: storageDir,
	})
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "Dockerfile")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("build: write dockerfile: %w", err)
	}
	return path, nil
}

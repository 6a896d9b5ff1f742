// Package docker wraps the docker CLI operations the pipeline needs: building,
// tagging, pushing, and registry login.
package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/avezina/shiplift/internal/runner"
)

type Client struct {
	bin string
	run runner.Runner
}

func NewClient(bin string, run runner.Runner) *Client {
	if bin == "" {
		bin = "docker"
	}
	return &Client{bin: bin, run: run}
}

func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run.Run(ctx, c.bin, "version", "--format", "{{.Client.Version}}")
	return strings.TrimSpace(out), err
}

// Build runs docker build with an explicit Dockerfile and context directory.
func (c *Client) Build(ctx context.Context, dockerfile, tag, contextDir string) error {
	_, err := c.run.Run(ctx, c.bin, "build", "-f", dockerfile, "-t", tag, contextDir)
	return err
}

func (c *Client) Tag(ctx context.Context, source, target string) error {
	_, err := c.run.Run(ctx, c.bin, "tag", source, target)
	return err
}

func (c *Client) Push(ctx context.Context, image string) error {
	_, err := c.run.Run(ctx, c.bin, "push", image)
	return err
}

// Login authenticates against a registry with the password on stdin so it
// never appears in the process table.
func (c *Client) Login(ctx context.Context, registry, username, password string) error {
	_, err := c.run.RunStdin(ctx, password, c.bin, "login", "--username", username, "--password-stdin", registry)
	return err
}

// ImageDigest returns the repo digest docker recorded for a pushed image, in
// the form sha256:...
func (c *Client) ImageDigest(ctx context.Context, image string) (string, error) {
	out, err := c.run.Run(ctx, c.bin, "inspect", "--format", "{{json .RepoDigests}}", image)
	if err != nil {
		return "", err
	}
	for _, ref := range gjson.Parse(strings.TrimSpace(out)).Array() {
		if _, digest, found := strings.Cut(ref.Str, "@"); found {
			return digest, nil
		}
	}
	return "", fmt.Errorf("no repo digest recorded for %s", image)
}

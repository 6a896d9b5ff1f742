// Package awscli drives the aws CLI as a subprocess and parses its JSON
// replies. Every operation the pipeline performs against ECR, ECS, ELB,
// Route 53, and ACM goes through here; nothing talks to AWS any other way.
package awscli

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/avezina/shiplift/internal/runner"
)

type Client struct {
	bin     string
	region  string
	profile string
	run     runner.Runner
}

func NewClient(bin, region, profile string, run runner.Runner) *Client {
	if bin == "" {
		bin = "aws"
	}
	return &Client{bin: bin, region: region, profile: profile, run: run}
}

// args appends the global region/profile options to a subcommand argv.
func (c *Client) args(base ...string) []string {
	out := base
	if c.region != "" {
		out = append(out, "--region", c.region)
	}
	if c.profile != "" {
		out = append(out, "--profile", c.profile)
	}
	return out
}

// json runs a subcommand with --output json and parses the reply.
func (c *Client) json(ctx context.Context, base ...string) (gjson.Result, error) {
	argv := c.args(append(base, "--output", "json")...)
	out, err := c.run.Run(ctx, c.bin, argv...)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(out), nil
}

// text runs a subcommand whose output is plain text (tokens, waiters).
func (c *Client) text(ctx context.Context, base ...string) (string, error) {
	out, err := c.run.Run(ctx, c.bin, c.args(base...)...)
	return strings.TrimSpace(out), err
}

// AccountID resolves the caller's AWS account via STS.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	res, err := c.json(ctx, "sts", "get-caller-identity")
	if err != nil {
		return "", err
	}
	account := res.Get("Account").Str
	if account == "" {
		return "", fmt.Errorf("sts get-caller-identity: no account in reply")
	}
	return account, nil
}

// RegistryHost returns the private ECR registry hostname for an account in
// the client's region.
func (c *Client) RegistryHost(account string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", account, c.region)
}

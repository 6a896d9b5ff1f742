package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/avezina/shiplift/internal/awscli"
	"github.com/avezina/shiplift/internal/docker"
	"github.com/avezina/shiplift/internal/logging"
	"github.com/avezina/shiplift/internal/runner"
)

func TestPublishSequence(t *testing.T) {
	awsFake := &runner.Fake{Script: []runner.Response{
		{Out: `{"Account":"123456789012"}`},
		{Out: "token-abc\n"},
		{Out: `{"repositories":[{"repositoryUri":"123456789012.dkr.ecr.eu-west-1.amazonaws.com/shop"}]}`},
		{Out: `{"imageDetails":[{"imageDigest":"sha256:cafe"}]}`},
	}}
	dockerFake := &runner.Fake{}

	p := NewPublisher(
		awscli.NewClient("aws", "eu-west-1", "", awsFake),
		docker.NewClient("docker", dockerFake),
		logging.DefaultLogger(),
	)

	res, err := p.Publish(context.Background(), "shop:build", "shop", "v3")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if res.Digest != "sha256:cafe" {
		t.Errorf("digest = %q", res.Digest)
	}
	if res.ImageRef != "123456789012.dkr.ecr.eu-west-1.amazonaws.com/shop:v3" {
		t.Errorf("image ref = %q", res.ImageRef)
	}

	login, err := dockerFake.CallContaining("docker login", "--username AWS")
	if err != nil {
		t.Fatal(err)
	}
	if login.Stdin != "token-abc" {
		t.Errorf("login stdin = %q, want token on stdin", login.Stdin)
	}
	if _, err := dockerFake.CallContaining("docker tag shop:build", "shop:v3"); err != nil {
		t.Error(err)
	}
	if _, err := dockerFake.CallContaining("docker push", "shop:v3"); err != nil {
		t.Error(err)
	}
}

func TestPublishAbortsOnLoginFailure(t *testing.T) {
	awsFake := &runner.Fake{Script: []runner.Response{
		{Out: `{"Account":"123456789012"}`},
		{Out: "token-abc\n"},
	}}
	dockerFake := &runner.Fake{Script: []runner.Response{
		{Err: errors.New("docker login: exit status 1: unauthorized")},
	}}

	p := NewPublisher(
		awscli.NewClient("aws", "eu-west-1", "", awsFake),
		docker.NewClient("docker", dockerFake),
		logging.DefaultLogger(),
	)

	if _, err := p.Publish(context.Background(), "shop:build", "shop", "v3"); err == nil {
		t.Fatal("expected login failure to abort")
	}
	if len(dockerFake.Calls) != 1 {
		t.Errorf("no docker call beyond login should run, got %d", len(dockerFake.Calls))
	}
}

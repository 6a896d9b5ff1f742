// Package publish pushes a locally built image to ECR. The sequence is fixed:
// resolve the account registry, log docker in with a short-lived token, make
// sure the repository exists, tag, push, and read the stored digest back. Any
// failure aborts; there is no retry layer, reruns start over.
package publish

import (
	"context"
	"fmt"

	"github.com/avezina/shiplift/internal/awscli"
	"github.com/avezina/shiplift/internal/docker"
	"github.com/avezina/shiplift/internal/logging"
)

// Result describes the pushed image.
type Result struct {
	Registry   string
	Repository string
	ImageRef   string
	Digest     string
}

type Publisher struct {
	aws    *awscli.Client
	docker *docker.Client
	log    logging.Logger
}

func NewPublisher(aws *awscli.Client, docker *docker.Client, log logging.Logger) *Publisher {
	return &Publisher{aws: aws, docker: docker, log: log.WithName("publish")}
}

// Publish pushes localTag to the account's ECR repository under tag.
func (p *Publisher) Publish(ctx context.Context, localTag, repository, tag string) (Result, error) {
	account, err := p.aws.AccountID(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("resolve account: %w", err)
	}
	registry := p.aws.RegistryHost(account)

	password, err := p.aws.LoginPassword(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch registry token: %w", err)
	}
	if err := p.docker.Login(ctx, registry, "AWS", password); err != nil {
		return Result{}, fmt.Errorf("docker login %s: %w", registry, err)
	}
	p.log.Info("logged in to registry", "registry", registry)

	uri, err := p.aws.EnsureRepository(ctx, repository)
	if err != nil {
		return Result{}, fmt.Errorf("ensure repository %s: %w", repository, err)
	}

	remote := uri + ":" + tag
	if err := p.docker.Tag(ctx, localTag, remote); err != nil {
		return Result{}, fmt.Errorf("tag %s as %s: %w", localTag, remote, err)
	}
	if err := p.docker.Push(ctx, remote); err != nil {
		return Result{}, fmt.Errorf("push %s: %w", remote, err)
	}

	digest, err := p.aws.PushedDigest(ctx, repository, tag)
	if err != nil {
		return Result{}, fmt.Errorf("verify pushed image: %w", err)
	}
	p.log.Info("image pushed", "ref", remote, "digest", digest)

	return Result{
		Registry:   registry,
		Repository: uri,
		ImageRef:   remote,
		Digest:     digest,
	}, nil
}

package awscli

import (
	"context"
	"fmt"
	"strings"
)

// LoginPassword fetches the short-lived ECR auth token. The caller feeds it
// to docker login on stdin; username is always "AWS".
func (c *Client) LoginPassword(ctx context.Context) (string, error) {
	token, err := c.text(ctx, "ecr", "get-login-password")
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("ecr get-login-password: empty token")
	}
	return token, nil
}

// EnsureRepository returns the repository URI, creating the repository when it
// does not exist yet.
func (c *Client) EnsureRepository(ctx context.Context, name string) (string, error) {
	res, err := c.json(ctx, "ecr", "describe-repositories", "--repository-names", name)
	if err == nil {
		if uri := res.Get("repositories.0.repositoryUri").Str; uri != "" {
			return uri, nil
		}
		return "", fmt.Errorf("ecr describe-repositories: no repository in reply")
	}
	if !strings.Contains(err.Error(), "RepositoryNotFoundException") {
		return "", err
	}

	created, err := c.json(ctx, "ecr", "create-repository", "--repository-name", name)
	if err != nil {
		return "", err
	}
	uri := created.Get("repository.repositoryUri").Str
	if uri == "" {
		return "", fmt.Errorf("ecr create-repository: no repository in reply")
	}
	return uri, nil
}

// PushedDigest reads back the digest the registry stored for a tag.
func (c *Client) PushedDigest(ctx context.Context, repository, tag string) (string, error) {
	res, err := c.json(ctx, "ecr", "describe-images",
		"--repository-name", repository,
		"--image-ids", "imageTag="+tag)
	if err != nil {
		return "", err
	}
	digest := res.Get("imageDetails.0.imageDigest").Str
	if digest == "" {
		return "", fmt.Errorf("ecr describe-images: tag %s not found in %s", tag, repository)
	}
	return digest, nil
}

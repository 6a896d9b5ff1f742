// Package source fetches the application source tree from GitHub. The
// repository token stays on the host: the archive is downloaded and unpacked
// here, before any image build starts, and the transient archive file is
// removed afterwards.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	vcsurl "github.com/gitsight/go-vcsurl"
	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/avezina/shiplift/internal/logging"
)

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepo accepts the usual repository URL spellings (https, ssh, short
// host/owner/name) and returns the owner and name.
func ParseRepo(rawURL string) (Repo, error) {
	info, err := vcsurl.Parse(rawURL)
	if err != nil {
		return Repo{}, fmt.Errorf("parse repository url %q: %w", rawURL, err)
	}
	if info.Username == "" || info.Name == "" {
		return Repo{}, fmt.Errorf("repository url %q has no owner/name", rawURL)
	}
	return Repo{Owner: string(info.Username), Name: info.Name}, nil
}

// NewGitHubClient returns a client authenticated with the token, or an
// anonymous client when the token is empty.
func NewGitHubClient(token string) *github.Client {
	if token == "" {
		return github.NewClient(&http.Client{Timeout: 30 * time.Second})
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = 30 * time.Second
	return github.NewClient(tc)
}

// Fetcher downloads repository archives.
type Fetcher struct {
	client *github.Client
	http   *http.Client
	log    logging.Logger
}

func NewFetcher(client *github.Client, log logging.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		http:   &http.Client{Timeout: 5 * time.Minute},
		log:    log.WithName("source"),
	}
}

// Fetch downloads the tarball for ref and unpacks it into dest, stripping the
// archive's top-level directory. It returns the commit the archive was cut
// from.
func (f *Fetcher) Fetch(ctx context.Context, repo Repo, ref, dest string) (string, error) {
	f.log.Info("downloading source archive", "repo", repo.String(), "ref", ref)

	opts := &github.RepositoryContentGetOptions{Ref: ref}
	archiveURL, _, err := f.client.Repositories.GetArchiveLink(ctx, repo.Owner, repo.Name, github.Tarball, opts, 3)
	if err != nil {
		return "", fmt.Errorf("resolve archive link for %s@%s: %w", repo, ref, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build archive request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download archive for %s@%s: %w", repo, ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download archive for %s@%s: status %s", repo, ref, resp.Status)
	}

	archive, err := os.CreateTemp("", "source-*.tar.gz")
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}
	defer os.Remove(archive.Name())

	if _, err := io.Copy(archive, resp.Body); err != nil {
		archive.Close()
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := archive.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create source dir: %w", err)
	}
	revision, err := extractArchive(archive.Name(), dest)
	if err != nil {
		return "", err
	}

	f.log.Info("source unpacked", "revision", revision, "dest", dest)
	return revision, nil
}

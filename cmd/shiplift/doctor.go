package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avezina/shiplift/internal/config"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites and configuration",
		Long:  "Runs diagnostic checks on shiplift prerequisites: binaries, required configuration, state directory, database, and GitHub access.",
		RunE:  runDoctor,
	}
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Shiplift Doctor")
	fmt.Fprintln(out, "===============")

	s := newServices()

	var results []checkResult
	results = append(results, checkBinary("Docker", config.DockerPath(), "--version"))
	results = append(results, checkBinary("AWS CLI", config.AWSPath(), "--version"))
	results = append(results, checkAWSCredentials(cmd.Context(), s))
	results = append(results, checkRequiredKeys()...)
	results = append(results, checkStateDir())
	results = append(results, checkGitHubToken())
	results = append(results, checkDatabase(cmd.Context()))
	results = append(results, checkDomain())

	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkBinary(label, bin, versionArg string) checkResult {
	path, err := exec.LookPath(bin)
	if err != nil {
		return checkResult{label, "FAIL", fmt.Sprintf("%s not found in PATH", bin)}
	}
	raw, err := exec.Command(path, versionArg).Output()
	if err != nil {
		return checkResult{label, "PASS", "found (version unknown)"}
	}
	version := strings.TrimSpace(strings.Split(string(raw), "\n")[0])
	return checkResult{label, "PASS", version}
}

func checkAWSCredentials(ctx context.Context, s *services) checkResult {
	account, err := s.aws.AccountID(ctx)
	if err != nil {
		return checkResult{"AWS credentials", "FAIL", err.Error()}
	}
	return checkResult{"AWS credentials", "PASS", "account " + account}
}

func checkRequiredKeys() []checkResult {
	required := []struct {
		name  string
		value string
	}{
		{config.KeySourceRepo, config.SourceRepo()},
		{config.KeyECRRepository, config.ECRRepository()},
		{config.KeyAWSRegion, config.AWSRegion()},
		{config.KeyCluster, config.ClusterName()},
		{config.KeyService, config.ServiceName()},
	}
	var results []checkResult
	for _, key := range required {
		if key.value == "" {
			results = append(results, checkResult{"Config " + key.name, "FAIL", "not set"})
			continue
		}
		results = append(results, checkResult{"Config " + key.name, "PASS", key.value})
	}
	if len(config.Subnets()) == 0 {
		results = append(results, checkResult{"Config " + config.KeySubnets, "WARN",
			"not set, service creation will fail"})
	} else {
		results = append(results, checkResult{"Config " + config.KeySubnets, "PASS",
			fmt.Sprintf("%d subnet(s)", len(config.Subnets()))})
	}
	return results
}

func checkStateDir() checkResult {
	dir := config.StateDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return checkResult{"State dir", "FAIL", fmt.Sprintf("%s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".doctor")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return checkResult{"State dir", "FAIL", fmt.Sprintf("%s not writable: %v", dir, err)}
	}
	_ = os.Remove(probe)
	return checkResult{"State dir", "PASS", dir}
}

func checkGitHubToken() checkResult {
	if config.GitHubToken() == "" {
		return checkResult{"GitHub token", "WARN", "not set, fetches are anonymous and rate-limited"}
	}
	return checkResult{"GitHub token", "PASS", "configured"}
}

func checkDatabase(ctx context.Context) checkResult {
	if config.DBHost() == "" {
		return checkResult{"Database", "WARN", "db_host not set, migrations and the ledger are disabled"}
	}
	database, err := openDatabase()
	if err != nil {
		return checkResult{"Database", "FAIL", err.Error()}
	}
	defer database.Close()
	if err := database.Ping(ctx); err != nil {
		return checkResult{"Database", "FAIL", fmt.Sprintf("%s unreachable: %v", config.DBHost(), err)}
	}
	return checkResult{"Database", "PASS", fmt.Sprintf("%s reachable", config.DBHost())}
}

func checkDomain() checkResult {
	if config.DomainName() == "" {
		return checkResult{"Domain", "WARN", "domain_name not set, DNS and TLS steps are skipped"}
	}
	return checkResult{"Domain", "PASS", config.DomainName()}
}

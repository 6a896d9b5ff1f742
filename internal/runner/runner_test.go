package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/avezina/shiplift/internal/logging"
)

func testExec() *Exec {
	return &Exec{Timeout: 10 * time.Second, Log: logging.New(logr.Discard())}
}

func TestExecRunCapturesStdout(t *testing.T) {
	out, err := testExec().Run(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "hello" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestExecRunFoldsStderrIntoError(t *testing.T) {
	_, err := testExec().Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error missing stderr: %v", err)
	}
	if !strings.Contains(err.Error(), "sh -c") {
		t.Fatalf("error missing command: %v", err)
	}
}

func TestExecRunStdinFeedsProcess(t *testing.T) {
	out, err := testExec().RunStdin(context.Background(), "secret\n", "sh", "-c", "cat")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "secret\n" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestExecTimeoutKillsCommand(t *testing.T) {
	e := &Exec{Timeout: 50 * time.Millisecond, Log: logging.New(logr.Discard())}
	_, err := e.Run(context.Background(), "sh", "-c", "sleep 5")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("error = %v", err)
	}
}

func TestExecCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testExec().Run(ctx, "sh", "-c", "sleep 5")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}
}

func TestFakeReplaysScriptAndRecords(t *testing.T) {
	fake := &Fake{Script: []Response{
		{Out: "one"},
		{Err: errors.New("denied")},
	}}

	out, err := fake.Run(context.Background(), "aws", "sts", "get-caller-identity")
	if err != nil || out != "one" {
		t.Fatalf("first call: out=%q err=%v", out, err)
	}
	if _, err := fake.RunStdin(context.Background(), "pw", "docker", "login"); err == nil {
		t.Fatal("expected scripted error")
	}
	// Off-script calls succeed with empty output.
	if out, err := fake.Run(context.Background(), "docker", "push"); err != nil || out != "" {
		t.Fatalf("off-script call: out=%q err=%v", out, err)
	}

	if len(fake.Calls) != 3 {
		t.Fatalf("recorded %d calls", len(fake.Calls))
	}
	if fake.Calls[1].Stdin != "pw" {
		t.Fatalf("stdin not recorded: %q", fake.Calls[1].Stdin)
	}
	if _, err := fake.CallContaining("sts", "get-caller-identity"); err != nil {
		t.Fatalf("call lookup: %v", err)
	}
	if _, err := fake.CallContaining("no-such-fragment"); err == nil {
		t.Fatal("expected lookup miss")
	}
}

// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skiff-sh/skiff/lib/config"
	"github.com/skiff-sh/skiff/lib/deploy"
	"github.com/skiff-sh/skiff/lib/git"
	"github.com/skiff-sh/skiff/lib/testutil"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

type fakeDeployer struct {
	apps []string
	err  error
}

func (f *fakeDeployer) Deploy(_ context.Context, app string) (*deploy.Deployment, error) {
	f.apps = append(f.apps, app)
	if f.err != nil {
		return nil, f.err
	}
	return &deploy.Deployment{ID: "test", App: app, Port: 40001}, nil
}

func newGateway(t *testing.T) (*Gateway, *fakeDeployer) {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.PathsConfig{
		Root:     root,
		Apps:     filepath.Join(root, "apps"),
		ProxyDir: filepath.Join(root, "caddyfiles"),
		UnitsDir: filepath.Join(root, "units"),
	}
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatal(err)
	}

	deployer := &fakeDeployer{}
	return &Gateway{
		Config:   cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Deployer: deployer,
		SelfExe:  "/usr/local/bin/skiff",
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}, deployer
}

// seedRepo creates a working repository with one commit and returns
// its head revision.
func seedRepo(t *testing.T, dir string) string {
	t.Helper()
	ctx := context.Background()

	testutil.WriteFile(t, filepath.Join(dir, "app.py"), "print('hi')\n")
	repo := git.NewRepository(dir)
	for _, args := range [][]string{
		{"init", "--quiet", "--initial-branch", "main"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "test"},
		{"add", "."},
		{"commit", "--quiet", "-m", "initial"},
	} {
		if _, err := repo.Run(ctx, args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	rev, err := repo.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(rev)
}

func TestReceivePackCreatesRepositoryAndHook(t *testing.T) {
	t.Parallel()
	requireGit(t)

	g, _ := newGateway(t)
	// A flush packet is a valid empty session: receive-pack advertises
	// refs, sees no update commands, and exits cleanly.
	g.Stdin = strings.NewReader("0000")
	var out bytes.Buffer
	g.Stdout = &out

	if err := g.ReceivePack(context.Background(), "demo"); err != nil {
		t.Fatalf("ReceivePack: %v", err)
	}

	repoDir := g.Config.RepoDir("demo")
	if _, err := os.Stat(filepath.Join(repoDir, "HEAD")); err != nil {
		t.Errorf("bare repository not created: %v", err)
	}

	hookPath := filepath.Join(repoDir, "hooks", "post-receive")
	info, err := os.Stat(hookPath)
	if err != nil {
		t.Fatalf("post-receive hook not written: %v", err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Errorf("hook not executable: %v", info.Mode())
	}
	hook, err := os.ReadFile(hookPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(hook), "/usr/local/bin/skiff git-hook demo") {
		t.Errorf("hook does not re-enter the agent:\n%s", hook)
	}

	if out.Len() == 0 {
		t.Error("receive-pack advertised nothing")
	}
}

func TestReceivePackRewritesHook(t *testing.T) {
	t.Parallel()
	requireGit(t)

	g, _ := newGateway(t)
	g.Stdin = strings.NewReader("0000")

	if err := g.ReceivePack(context.Background(), "demo"); err != nil {
		t.Fatalf("first ReceivePack: %v", err)
	}

	// The agent binary moved; the next push must update the hook.
	g.SelfExe = "/opt/skiff/bin/skiff"
	g.Stdin = strings.NewReader("0000")
	if err := g.ReceivePack(context.Background(), "demo"); err != nil {
		t.Fatalf("second ReceivePack: %v", err)
	}

	hook, err := os.ReadFile(filepath.Join(g.Config.RepoDir("demo"), "hooks", "post-receive"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(hook), "/opt/skiff/bin/skiff") {
		t.Errorf("hook still points at the old binary:\n%s", hook)
	}
}

func TestParseRefUpdates(t *testing.T) {
	t.Parallel()

	updates, err := ParseRefUpdates(strings.NewReader(
		"aaa bbb refs/heads/main\n\nccc ddd refs/heads/dev\n"))
	if err != nil {
		t.Fatalf("ParseRefUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("len = %d, want 2", len(updates))
	}
	want := RefUpdate{OldRev: "aaa", NewRev: "bbb", Ref: "refs/heads/main"}
	if updates[0] != want {
		t.Errorf("updates[0] = %+v, want %+v", updates[0], want)
	}
}

func TestParseRefUpdatesMalformed(t *testing.T) {
	t.Parallel()

	if _, err := ParseRefUpdates(strings.NewReader("just two\n")); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestPostReceive(t *testing.T) {
	t.Parallel()
	requireGit(t)

	ctx := context.Background()
	g, deployer := newGateway(t)
	cfg := g.Config

	appDir := cfg.AppDir("demo")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := git.InitBare(ctx, appDir, "repo"); err != nil {
		t.Fatal(err)
	}

	seed := filepath.Join(t.TempDir(), "seed")
	rev := seedRepo(t, seed)
	if _, err := git.NewRepository(seed).Run(ctx, "push", "--quiet",
		cfg.RepoDir("demo"), "HEAD:refs/heads/main"); err != nil {
		t.Fatalf("seeding push: %v", err)
	}

	hookInput := strings.NewReader(strings.Repeat("0", 40) + " " + rev + " refs/heads/main\n")
	if err := g.PostReceive(ctx, "demo", hookInput); err != nil {
		t.Fatalf("PostReceive: %v", err)
	}

	// The pushed tree is checked out and the deployment ran.
	if _, err := os.Stat(filepath.Join(cfg.CodeDir("demo"), "app.py")); err != nil {
		t.Errorf("source tree not checked out: %v", err)
	}
	if len(deployer.apps) != 1 || deployer.apps[0] != "demo" {
		t.Errorf("deployer calls = %v, want [demo]", deployer.apps)
	}
}

func TestPostReceiveSecondPushAdvancesCheckout(t *testing.T) {
	t.Parallel()
	requireGit(t)

	ctx := context.Background()
	g, _ := newGateway(t)
	cfg := g.Config

	appDir := cfg.AppDir("demo")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := git.InitBare(ctx, appDir, "repo"); err != nil {
		t.Fatal(err)
	}

	seed := filepath.Join(t.TempDir(), "seed")
	rev := seedRepo(t, seed)
	seedRepository := git.NewRepository(seed)
	push := func() {
		t.Helper()
		if _, err := seedRepository.Run(ctx, "push", "--quiet",
			cfg.RepoDir("demo"), "HEAD:refs/heads/main"); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	push()

	zeros := strings.Repeat("0", 40)
	if err := g.PostReceive(ctx, "demo",
		strings.NewReader(zeros+" "+rev+" refs/heads/main\n")); err != nil {
		t.Fatalf("first PostReceive: %v", err)
	}

	// Second push changes the tree.
	testutil.WriteFile(t, filepath.Join(seed, "app.py"), "print('v2')\n")
	if _, err := seedRepository.Run(ctx, "commit", "--quiet", "-am", "v2"); err != nil {
		t.Fatal(err)
	}
	rev2, err := seedRepository.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	rev2 = strings.TrimSpace(rev2)
	push()

	if err := g.PostReceive(ctx, "demo",
		strings.NewReader(rev+" "+rev2+" refs/heads/main\n")); err != nil {
		t.Fatalf("second PostReceive: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(cfg.CodeDir("demo"), "app.py"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "v2") {
		t.Errorf("checkout not advanced to pushed revision:\n%s", content)
	}
}

func TestPostReceiveNoUpdates(t *testing.T) {
	t.Parallel()

	g, deployer := newGateway(t)
	if err := g.PostReceive(context.Background(), "demo", strings.NewReader("")); err == nil {
		t.Error("expected error for empty hook input")
	}
	if len(deployer.apps) != 0 {
		t.Errorf("deployer ran without a ref update: %v", deployer.apps)
	}
}

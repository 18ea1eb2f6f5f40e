package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"relish/internal/testsupport"
)

func TestCLIWatchProcessesSpool(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedArea(t, env.store, "East Village", 1, "10003")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", env.configPath, "watch"})
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute()
	}()

	// Once the lock file exists the startup scan is still ahead, so a batch
	// dropped now is picked up either by the scan or by a watch event.
	waitForPath(t, filepath.Join(env.cfg.Paths.DataDir, "relish-watch.lock"))

	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.SpoolDir, "lunch.txt"),
		"Bagel Provisions | venue | 10003\n")
	waitForPath(t, filepath.Join(env.cfg.Paths.ArchiveDir, "lunch.txt.results.json"))
	waitForPath(t, filepath.Join(env.cfg.Paths.ArchiveDir, "lunch.txt"))

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch execute: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not exit after cancel")
	}
}

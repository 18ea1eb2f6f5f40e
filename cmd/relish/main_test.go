package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"relish/internal/catalog"
	"relish/internal/ingest"
	"relish/internal/testsupport"
)

func TestCLIIngestCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedArea(t, env.store, "East Village", 1, "10003")
	venue := testsupport.SeedEntity(t, env.store, catalog.CategoryVenue, map[string]string{
		catalog.FieldName: "Axe Handle Pizza",
		catalog.FieldArea: "East Village",
	})

	batchPath := filepath.Join(env.baseDir, "batch.txt")
	testsupport.WriteFile(t, batchPath, `Axe Handle Pizza | venue | 10003
Bagel Provisions | venue | 10003
`)

	out, _, err := runCLI(t, []string{"ingest", batchPath}, env.configPath)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	requireContains(t, out, "duplicate")
	requireContains(t, out, "resolved")
	requireContains(t, out, "East Village")
	requireContains(t, out, "1 resolved, 1 duplicates, 0 errors")

	out, _, err = runCLI(t, []string{"ingest", batchPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("ingest --json: %v", err)
	}
	var payload struct {
		Summary ingest.Summary  `json:"summary"`
		Records []ingest.Record `json:"records"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode ingest JSON: %v\noutput: %s", err, out)
	}
	if payload.Summary.Resolved != 1 || payload.Summary.Duplicates != 1 {
		t.Fatalf("unexpected summary: %+v", payload.Summary)
	}
	if len(payload.Records) != 2 || payload.Records[0].MatchedEntityID != venue.ID {
		t.Fatalf("unexpected records: %+v", payload.Records)
	}
}

func TestCLIIngestFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedArea(t, env.store, "East Village", 1, "10003")
	testsupport.SeedEntity(t, env.store, catalog.CategoryVenue, map[string]string{
		catalog.FieldName: "Axe Handle Pizza",
		catalog.FieldArea: "East Village",
	})

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader("Axe Handle Pizza | | 10003\n"))
	cmd.SetArgs([]string{"--config", env.configPath, "ingest", "--category", "venue"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("ingest from stdin: %v", err)
	}
	requireContains(t, stdout.String(), "duplicate")
}

func TestCLIResolveCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedArea(t, env.store, "East Village", 1, "10003")

	out, _, err := runCLI(t, []string{"resolve", "10003"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "East Village")
	requireContains(t, out, "(local)")

	out, _, err = runCLI(t, []string{"resolve", "99999"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve miss: %v", err)
	}
	requireContains(t, out, "Unresolved")

	out, _, err = runCLI(t, []string{"resolve", "10003", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve --json: %v", err)
	}
	requireContains(t, out, `"source": "local"`)
}

func TestCLIMatchCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedArea(t, env.store, "East Village", 1, "10003")
	venue := testsupport.SeedEntity(t, env.store, catalog.CategoryVenue, map[string]string{
		catalog.FieldName: "Axe Handle Pizza",
		catalog.FieldArea: "East Village",
	})

	out, _, err := runCLI(t, []string{"match", "Axe Handle Pizza", "--area", "East Village"}, env.configPath)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	requireContains(t, out, "exact match")
	requireContains(t, out, fmt.Sprintf("#%d", venue.ID))

	out, _, err = runCLI(t, []string{"match", "Completely Different", "--area", "East Village"}, env.configPath)
	if err != nil {
		t.Fatalf("match miss: %v", err)
	}
	requireContains(t, out, "No match")
}

func TestCLIAnalyzeChangesAndLedger(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	testsupport.SeedArea(t, env.store, "East Village", 1, "10003")
	venue := testsupport.SeedEntity(t, env.store, catalog.CategoryVenue, map[string]string{
		catalog.FieldName:  "Axe Handle Pizza",
		catalog.FieldArea:  "East Village",
		catalog.FieldPhone: "2125551234",
	})
	changeID := fmt.Sprintf("phone_format-%d", venue.ID)

	out, _, err := runCLI(t, []string{"analyze", "venue"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, changeID)
	requireContains(t, out, "(212) 555-1234")

	out, _, err = runCLI(t, []string{"changes", "apply", changeID, "--category", "venue"}, env.configPath)
	if err != nil {
		t.Fatalf("changes apply: %v", err)
	}
	requireContains(t, out, "applied "+changeID)
	requireContains(t, out, "1 applied, 0 skipped, 0 failed")

	updated, err := env.store.GetEntityByID(ctx, venue.ID)
	if err != nil {
		t.Fatalf("GetEntityByID: %v", err)
	}
	if updated.Field(catalog.FieldPhone) != "(212) 555-1234" {
		t.Fatalf("expected phone applied, got %q", updated.Field(catalog.FieldPhone))
	}

	out, _, err = runCLI(t, []string{"ledger"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	requireContains(t, out, changeID)
	requireContains(t, out, "applied")

	out, _, err = runCLI(t, []string{"ledger", "--change", changeID, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger --change: %v", err)
	}
	requireContains(t, out, `"action": "applied"`)
}

func TestCLIChangesReject(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	testsupport.SeedArea(t, env.store, "East Village", 1, "10003")
	venue := testsupport.SeedEntity(t, env.store, catalog.CategoryVenue, map[string]string{
		catalog.FieldName:  "Bagel Provisions",
		catalog.FieldArea:  "East Village",
		catalog.FieldPhone: "3475556789",
	})
	changeID := fmt.Sprintf("phone_format-%d", venue.ID)

	out, _, err := runCLI(t, []string{"changes", "reject", changeID, "--category", "venue"}, env.configPath)
	if err != nil {
		t.Fatalf("changes reject: %v", err)
	}
	requireContains(t, out, "Rejected 1 changes")

	kept, err := env.store.GetEntityByID(ctx, venue.ID)
	if err != nil {
		t.Fatalf("GetEntityByID: %v", err)
	}
	if kept.Field(catalog.FieldPhone) != "3475556789" {
		t.Fatalf("rejected change must not touch the entity, got %q", kept.Field(catalog.FieldPhone))
	}

	out, _, err = runCLI(t, []string{"ledger", "--action", "rejected"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger --action: %v", err)
	}
	requireContains(t, out, changeID)
	requireContains(t, out, "rejected")

	out, _, err = runCLI(t, []string{"ledger", "--action", "applied"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger --action: %v", err)
	}
	requireContains(t, out, "Ledger is empty")

	if _, _, err := runCLI(t, []string{"ledger", "--action", "undone"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestCLIChangesRejectsMalformedID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"changes", "apply", "not-a-change"}, env.configPath)
	if err == nil {
		t.Fatal("expected malformed change id to fail")
	}
	requireContains(t, err.Error(), "unknown change kind")
}

func TestCLIStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Catalog is empty")
	requireContains(t, out, "Areas: 0")

	testsupport.SeedArea(t, env.store, "East Village", 1, "10003")
	testsupport.SeedEntity(t, env.store, catalog.CategoryVenue, map[string]string{
		catalog.FieldName: "Axe Handle Pizza",
	})

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status after seed: %v", err)
	}
	requireContains(t, out, "Areas: 1")
	requireContains(t, out, "venue")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	requireContains(t, out, `"areas": 1`)
}

func TestCLIEngineCommandsRequireAreas(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"resolve", "10003"}, env.configPath)
	if err == nil {
		t.Fatal("expected resolve to fail on an empty postal index")
	}
	requireContains(t, err.Error(), "postal index is empty")
}

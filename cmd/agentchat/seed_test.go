package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/agent-chat/internal/dbtest"
	"github.com/JaimeStill/agent-chat/internal/profiles"
	"github.com/JaimeStill/agent-chat/pkg/logging"
)

func newProfiles(t *testing.T) profiles.System {
	t.Helper()
	db := dbtest.New(t)
	return profiles.New(db.Connection(), db.Dialect(), logging.Discard())
}

func TestDemoSeeder_Idempotent(t *testing.T) {
	sys := newProfiles(t)
	ctx := context.Background()
	seeder := &DemoSeeder{}

	for range 2 {
		if err := seeder.Seed(ctx, sys); err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
	}

	admin, err := sys.Find(ctx, "demo-admin")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if admin.Role != profiles.RoleAdmin {
		t.Errorf("role = %q, want admin", admin.Role)
	}
	if len(admin.Agents) != 1 {
		t.Errorf("agents = %d, want 1 after reseeding", len(admin.Agents))
	}

	user, err := sys.Find(ctx, "demo-user")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if user.Role != profiles.RoleUser {
		t.Errorf("role = %q, want user", user.Role)
	}
	if len(user.Agents) != 2 {
		t.Errorf("agents = %d, want 2", len(user.Agents))
	}
}

func TestDemoSeeder_ExternalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	content := `{"users":[{"id":"x1","name":"X","agents":[{"name":"Solo","tools":["b","a","a"]}]}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	sys := newProfiles(t)
	seeder := &DemoSeeder{}
	seeder.SetFile(path)

	if err := seeder.Seed(context.Background(), sys); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	user, err := sys.Find(context.Background(), "x1")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(user.Agents) != 1 || len(user.Agents[0].Tools) != 2 {
		t.Errorf("agents = %+v, want one agent with two tools", user.Agents)
	}
}

func TestSeedCmd_List(t *testing.T) {
	cmd := newRootCmd()
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--list"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "demo: Seeds demo users") {
		t.Errorf("output = %q, want demo seeder listed", got)
	}
}

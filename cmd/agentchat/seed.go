package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/profiles"
)

//go:embed seeds/*.json
var seedFiles embed.FS

// Seeder populates one domain's data. Seeds are idempotent: running one
// twice updates rather than duplicates.
type Seeder interface {
	Name() string
	Description() string
	Seed(ctx context.Context, sys profiles.System) error
}

var seeders = map[string]Seeder{}

func registerSeeder(s Seeder) {
	seeders[s.Name()] = s
}

func listSeeders() []Seeder {
	result := make([]Seeder, 0, len(seeders))
	for _, s := range seeders {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

func init() {
	registerSeeder(&DemoSeeder{})
}

// DemoSeedData is the JSON layout of a demo seed file.
type DemoSeedData struct {
	Users []struct {
		ID    string `json:"id"`
		Admin bool   `json:"admin"`
		profiles.SaveUserCommand
		Agents []profiles.SaveAgentCommand `json:"agents"`
	} `json:"users"`
}

// DemoSeeder creates demo users and their agents from an embedded file or
// an external path.
type DemoSeeder struct {
	file string
}

func (s *DemoSeeder) Name() string { return "demo" }

func (s *DemoSeeder) Description() string {
	return "Seeds demo users and their webhook agents"
}

func (s *DemoSeeder) SetFile(path string) { s.file = path }

// Seed matches existing agents by name so reruns update in place.
func (s *DemoSeeder) Seed(ctx context.Context, sys profiles.System) error {
	data, err := s.load()
	if err != nil {
		return err
	}

	for _, u := range data.Users {
		cmd := u.SaveUserCommand
		if u.Admin {
			cmd.Role = profiles.RoleAdmin
		}
		user, err := sys.Save(ctx, u.ID, cmd)
		if err != nil {
			return fmt.Errorf("save user %s: %w", u.ID, err)
		}

		existing := make(map[string]string, len(user.Agents))
		for _, a := range user.Agents {
			existing[a.Name] = a.ID
		}

		for _, agent := range u.Agents {
			agent.ID = existing[agent.Name]
			if _, err := sys.SaveAgent(ctx, u.ID, agent); err != nil {
				return fmt.Errorf("save agent %s for %s: %w", agent.Name, u.ID, err)
			}
		}
	}
	return nil
}

func (s *DemoSeeder) load() (*DemoSeedData, error) {
	var (
		content []byte
		err     error
	)
	if s.file != "" {
		content, err = os.ReadFile(s.file)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	} else {
		content, err = seedFiles.ReadFile("seeds/demo.json")
		if err != nil {
			return nil, fmt.Errorf("read embedded seed file: %w", err)
		}
	}

	var data DemoSeedData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &data, nil
}

func newSeedCmd(opts *options) *cobra.Command {
	var (
		file string
		list bool
	)

	cmd := &cobra.Command{
		Use:   "seed [name...]",
		Short: "Populate the database with seed data (all seeders when no name is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				cmd.Println("Available seeders:")
				for _, s := range listSeeders() {
					cmd.Printf("  - %s: %s\n", s.Name(), s.Description())
				}
				return nil
			}

			run := listSeeders()
			if len(args) > 0 {
				run = run[:0]
				for _, name := range args {
					s, ok := seeders[name]
					if !ok {
						return fmt.Errorf("seeder not found: %s", name)
					}
					run = append(run, s)
				}
			}
			if file != "" {
				if len(run) != 1 {
					return fmt.Errorf("--file requires exactly one seeder")
				}
				if fs, ok := run[0].(interface{ SetFile(string) }); ok {
					fs.SetFile(file)
				}
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, s := range run {
				if err := s.Seed(cmd.Context(), a.module.Domain.Profiles); err != nil {
					return fmt.Errorf("seed %s: %w", s.Name(), err)
				}
				cmd.Printf("%s seeded\n", s.Name())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "external seed file (overrides embedded)")
	cmd.Flags().BoolVar(&list, "list", false, "list available seeders")
	return cmd
}

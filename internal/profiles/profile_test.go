package profiles_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/JaimeStill/agent-chat/internal/profiles"
)

func TestNormalizeTools(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"trim and dedupe", []string{" a", "b ", "a", "  ", "b"}, []string{"a", "b"}},
		{"order kept", []string{"c", "a", "b"}, []string{"c", "a", "b"}},
		{"case sensitive", []string{"Search", "search"}, []string{"Search", "search"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := profiles.NormalizeTools(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("NormalizeTools(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSameTools(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{"reordered", []string{"a", "b"}, []string{"b", "a"}, true},
		{"added", []string{"a"}, []string{"a", "c"}, false},
		{"removed", []string{"a", "b"}, []string{"a"}, false},
		{"replaced", []string{"a", "b"}, []string{"a", "c"}, false},
		{"whitespace and duplicates", []string{"a", " b"}, []string{"b", "a", "a"}, true},
		{"both empty", nil, []string{" "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := profiles.SameTools(tt.a, tt.b); got != tt.want {
				t.Errorf("SameTools(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSaveAgentCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     profiles.SaveAgentCommand
		wantErr bool
	}{
		{"valid", profiles.SaveAgentCommand{Name: "Helper", WebhookURL: "https://n8n.example/webhook/abc"}, false},
		{"no webhook", profiles.SaveAgentCommand{Name: "Helper"}, false},
		{"blank name", profiles.SaveAgentCommand{Name: "  "}, true},
		{"relative url", profiles.SaveAgentCommand{Name: "x", WebhookURL: "/webhook"}, true},
		{"ftp url", profiles.SaveAgentCommand{Name: "x", WebhookURL: "ftp://host/x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, profiles.ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		user profiles.AuthUser
		want string
	}{
		{profiles.AuthUser{Name: " Lena ", Email: "l@x.de"}, "Lena"},
		{profiles.AuthUser{Email: "max.mustermann@example.de"}, "max.mustermann"},
		{profiles.AuthUser{}, ""},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

package session

import (
	"testing"
)

func TestSaveAndCurrentRoundTrip(t *testing.T) {
	t.Setenv("RESTBENCH_TOKEN", "")
	provider := NewFileProviderAt(t.TempDir())

	if provider.Current() != nil {
		t.Fatalf("expected no session before save")
	}

	fresh := NewFileProviderAt(provider.dir)
	if err := fresh.Save("dev@example.com", "tok-123"); err != nil {
		t.Fatalf("save: %v", err)
	}

	reread := NewFileProviderAt(provider.dir)
	user := reread.Current()
	if user == nil || user.Email != "dev@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if reread.Token() != "tok-123" {
		t.Fatalf("unexpected token: %q", reread.Token())
	}
}

func TestClearRemovesSession(t *testing.T) {
	t.Setenv("RESTBENCH_TOKEN", "")
	provider := NewFileProviderAt(t.TempDir())
	if err := provider.Save("dev@example.com", "tok"); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := provider.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if provider.Current() != nil {
		t.Fatalf("expected no session after clear")
	}

	// Clearing an already absent session is fine.
	if err := provider.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestInvalidateDropsStoredCredentials(t *testing.T) {
	t.Setenv("RESTBENCH_TOKEN", "")
	dir := t.TempDir()
	provider := NewFileProviderAt(dir)
	if err := provider.Save("dev@example.com", "stale"); err != nil {
		t.Fatalf("save: %v", err)
	}

	provider.Invalidate()

	if provider.Current() != nil {
		t.Fatalf("expected no session after invalidation")
	}
	if NewFileProviderAt(dir).Current() != nil {
		t.Fatalf("invalidation must also remove stored credentials")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RESTBENCH_TOKEN", "env-tok")
	t.Setenv("RESTBENCH_EMAIL", "env@example.com")

	provider := NewFileProviderAt(t.TempDir())
	user := provider.Current()
	if user == nil || user.Email != "env@example.com" {
		t.Fatalf("expected env session, got %+v", user)
	}
	if provider.Token() != "env-tok" {
		t.Fatalf("unexpected token: %q", provider.Token())
	}
}

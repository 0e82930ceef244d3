package passphrase

import "testing"

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("FIATTOKEN_TEST_PASS", "hunter2")
	src := NewSource(" FIATTOKEN_TEST_PASS ")
	if src.EnvVar() != "FIATTOKEN_TEST_PASS" {
		t.Fatalf("unexpected env var %q", src.EnvVar())
	}
	value, err := src.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "hunter2" {
		t.Fatalf("unexpected passphrase %q", value)
	}
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	t.Setenv("FIATTOKEN_TEST_PASS", "   ")
	if _, err := NewSource("FIATTOKEN_TEST_PASS").Get(); err == nil {
		t.Fatalf("expected error for blank passphrase")
	}
}

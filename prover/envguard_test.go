package prover_test

import (
	"os"
	"testing"

	"github.com/liminaltech/zk-sca/prover"
)

func TestGuardRestoresPreviousValue(t *testing.T) {
	const key = "ZKSCA_TEST_GUARD_RESTORE"
	os.Setenv(key, "original")
	defer os.Unsetenv(key)

	g, err := prover.NewGuard(key, "temporary", true)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	if got := os.Getenv(key); got != "temporary" {
		t.Errorf("got %q, want temporary", got)
	}
	g.Release()
	if got := os.Getenv(key); got != "original" {
		t.Errorf("got %q after release, want original", got)
	}
}

func TestGuardRemovesWhenPreviouslyUnset(t *testing.T) {
	const key = "ZKSCA_TEST_GUARD_UNSET"
	os.Unsetenv(key)

	g, err := prover.NewGuard(key, "temporary", true)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	g.Release()
	if _, ok := os.LookupEnv(key); ok {
		t.Error("expected env var to be removed after release")
	}
}

func TestGuardRejectsConflictWhenDisabled(t *testing.T) {
	const key = "ZKSCA_TEST_GUARD_CONFLICT"
	os.Setenv(key, "already-set")
	defer os.Unsetenv(key)

	if _, err := prover.NewGuard(key, "temporary", false); err == nil {
		t.Error("expected EnvVarConflict when disabled and already set")
	}
}

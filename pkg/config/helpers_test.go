package config_test

import (
	"os"
	"testing"
)

// unsetForTest removes variables for the rest of the test. t.Setenv must be
// called on each key first so the original values are restored on cleanup.
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
}

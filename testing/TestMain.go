// Package testing switches importing test binaries into Comanda test mode.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// envDefaults fill variables the binaries require but tests rarely set.
var envDefaults = map[string]string{
	"CSRF_SECRET": "test-csrf-secret",
}

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("COMANDA_TEST_MODE", "1")
		for key, value := range envDefaults {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}

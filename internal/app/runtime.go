package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "COMANDA_TEST_MODE"

// InTestMode reports whether COMANDA_TEST_MODE holds a true value. Binaries
// skip network startup and the router skips request logging when it does.
// The variable is read once.
var InTestMode = sync.OnceValue(func() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	return on
})

package prover

import "os"

// Guard sets key=value on construction and restores the previous value (or
// removes the variable if none existed) when Release is called. It exists
// so prove() can temporarily flip diagnostic environment variables without
// leaking the change past a single call.
type Guard struct {
	key  string
	prev string
	had  bool
}

// NewGuard sets key=value when enabled is true. If enabled is false and key
// is already set, construction fails with an EnvVarConflict error rather
// than silently leaving a stale value in place.
func NewGuard(key, value string, enabled bool) (*Guard, error) {
	existing, had := os.LookupEnv(key)
	if had && !enabled {
		return nil, newEnvVarConflict(key, existing)
	}

	g := &Guard{key: key, prev: existing, had: had}
	if enabled {
		if err := os.Setenv(key, value); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Release restores the environment variable to its pre-guard state.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	if g.had {
		os.Setenv(g.key, g.prev)
	} else {
		os.Unsetenv(g.key)
	}
}

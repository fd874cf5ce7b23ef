package test

import (
	"fmt"
	"os"
	"testing"
)

// EnvVars holds environment variables required by an integration test.
type EnvVars struct {
	vars map[string]string
}

// NewEnvVars skips the test unless every key is set.
func NewEnvVars(t *testing.T, keys ...string) EnvVars {
	t.Helper()
	e := EnvVars{vars: make(map[string]string, len(keys))}

	for _, key := range keys {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			t.Skipf("%s is not set", key)
		}
		e.vars[key] = value
	}
	return e
}

func (e EnvVars) Get(key string) string {
	v, ok := e.vars[key]
	if !ok {
		panic(fmt.Sprintf("env var %s was not requested", key))
	}
	return v
}

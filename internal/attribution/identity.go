// Package attribution resolves who is writing to the graph. Imported
// memories and other provenance stamps carry the responsible agent or
// developer name.
package attribution

import (
	"os"
	"os/exec"
	"strings"
	"sync"
)

var (
	identity string
	once     sync.Once
)

// Identify returns the name to stamp into provenance fields, resolved once
// per process: MNEMO_AGENT_NAME, then MNEMO_USER, then git config
// user.name, then "unknown".
func Identify() string {
	once.Do(func() {
		identity = resolve()
	})
	return identity
}

// resolve performs the lookup without caching so tests can exercise the
// fallback order directly.
func resolve() string {
	if name := os.Getenv("MNEMO_AGENT_NAME"); name != "" {
		return name
	}
	if name := os.Getenv("MNEMO_USER"); name != "" {
		return name
	}
	if name := gitUserName(); name != "" {
		return name
	}
	return "unknown"
}

// gitUserName returns the trimmed `git config --get user.name`, or "" when
// git is unavailable or unconfigured.
func gitUserName() string {
	out, err := exec.Command("git", "config", "--get", "user.name").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

package discord

import (
	"fmt"
	"strings"
)

// ResolveServer maps a user-supplied name to exactly one known guild. A
// case-insensitive exact match always wins; otherwise the first guild whose
// name contains the query is returned. When nothing matches, the error
// enumerates every known server name so the caller can correct the input.
func ResolveServer(guilds []Guild, name string) (Guild, error) {
	target := strings.ToLower(name)

	for _, g := range guilds {
		if strings.ToLower(g.Name) == target {
			return g, nil
		}
	}

	for _, g := range guilds {
		if strings.Contains(strings.ToLower(g.Name), target) {
			return g, nil
		}
	}

	available := "None"
	if len(guilds) > 0 {
		names := make([]string, len(guilds))
		for i, g := range guilds {
			names[i] = g.Name
		}

		available = strings.Join(names, ", ")
	}

	return Guild{}, fmt.Errorf("%w: %q (available servers: %s)", ErrServerNotFound, name, available)
}

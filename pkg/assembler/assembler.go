// Package assembler composes the launch classpath from verified artifacts.
package assembler

import (
	"os"
	"strings"
)

// Join orders the paths client, base libraries, mod libraries, shim and joins
// them with the host list separator. Repeated paths keep their first position
// and the shim appears exactly once.
func Join(client string, base, mod []string, shim string) string {
	parts := make([]string, 0, len(base)+len(mod)+2)
	seen := make(map[string]bool, cap(parts))
	add := func(p string) {
		if p == "" || p == shim || seen[p] {
			return
		}
		seen[p] = true
		parts = append(parts, p)
	}

	add(client)
	for _, p := range base {
		add(p)
	}
	for _, p := range mod {
		add(p)
	}
	if shim != "" {
		parts = append(parts, shim)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// Split is the inverse of Join.
func Split(classpath string) []string {
	if classpath == "" {
		return nil
	}
	return strings.Split(classpath, string(os.PathListSeparator))
}

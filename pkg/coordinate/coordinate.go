// Package coordinate maps "group:artifact:version" library names onto
// maven repository paths.
package coordinate

import (
	"strings"

	"PojClient/internal/errs"
)

type Coordinate struct {
	Group    string
	Artifact string
	Version  string
}

// Parse accepts exactly three non-empty segments without path separators
// or "..". Classifiers and extensions are rejected.
func Parse(name string) (Coordinate, error) {
	parts := strings.Split(name, ":")
	if len(parts) != 3 {
		return Coordinate{}, errs.Manifestf("coordinate %q: expected 3 segments, got %d", name, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, errs.Manifestf("coordinate %q: empty segment", name)
		}
		// Segments become path elements, so they must stay inside the repository.
		if strings.ContainsAny(p, `/\`) || strings.Contains(p, "..") {
			return Coordinate{}, errs.Manifestf("coordinate %q: segment %q is not a plain name", name, p)
		}
	}
	return Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}, nil
}

// Path is the repository-relative jar path.
func (c Coordinate) Path() string {
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Artifact + "/" + c.Version + "/" + c.Artifact + "-" + c.Version + ".jar"
}

func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

func ToPath(name string) (string, error) {
	c, err := Parse(name)
	if err != nil {
		return "", err
	}
	return c.Path(), nil
}

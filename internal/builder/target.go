package builder

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/bmatcuk/doublestar/v4"
)

// Target is a single artifact to produce from an ordered list of sources
type Target struct {
	Name    string
	Sources []string
}

// Options are resolved once per run and shared by every target
type Options struct {
	Debug bool
}

// DefaultTargets returns the build catalog in declaration order
func DefaultTargets() []Target {
	return []Target{
		{Name: "sample_surface", Sources: []string{"apps/sample_surface.cpp", "libs/read_stl.cpp"}},
		{Name: "bvh", Sources: []string{"apps/bvh.cpp", "libs/read_stl.cpp"}},
	}
}

// FindTarget looks up a target by its exact name
func FindTarget(targets []Target, name string) (Target, bool) {
	for _, t := range targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// SelectTargets keeps the targets whose name matches any of the glob patterns, or all of them
// when there are no patterns
func SelectTargets(targets []Target, patterns []string) ([]Target, error) {
	if len(patterns) == 0 {
		return targets, nil
	}

	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid target pattern %q", pat)
		}
	}

	var selected []Target
	for _, t := range targets {
		for _, pat := range patterns {
			if ok, _ := doublestar.Match(pat, t.Name); ok {
				selected = append(selected, t)
				break
			}
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTargets, strings.Join(patterns, ", "))
	}
	return selected, nil
}

// Invocation is a full compiler command line, program first
type Invocation []string

func (inv Invocation) Program() string {
	if len(inv) == 0 {
		return ""
	}
	return inv[0]
}

func (inv Invocation) Args() []string {
	if len(inv) == 0 {
		return nil
	}
	return inv[1:]
}

// String renders the invocation as a POSIX shell command line
func (inv Invocation) String() string {
	return shellescape.QuoteCommand(inv)
}

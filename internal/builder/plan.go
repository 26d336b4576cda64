package builder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// PlanEntry describes one invocation in compilation-database shape
type PlanEntry struct {
	Target    string   `json:"target" toml:"target"`
	Directory string   `json:"directory" toml:"directory"`
	Arguments []string `json:"arguments" toml:"arguments"`
	Output    string   `json:"output" toml:"output"`
}

type tomlPlan struct {
	Invocation []PlanEntry `toml:"invocation"`
}

// PlanEntries assembles an entry per target, in order
func (b *Builder) PlanEntries(targets []Target, dir string) []PlanEntry {
	invs := b.Plan(targets)
	entries := make([]PlanEntry, len(targets))
	for i, t := range targets {
		entries[i] = PlanEntry{
			Target:    t.Name,
			Directory: dir,
			Arguments: invs[i],
			Output:    b.driver.Artifact(t.Name),
		}
	}
	return entries
}

// WritePlan renders entries in the given format
func WritePlan(w io.Writer, entries []PlanEntry, format string) error {
	switch format {
	case FormatText:
		for _, e := range entries {
			if _, err := fmt.Fprintln(w, Invocation(e.Arguments).String()); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatTOML:
		enc := toml.NewEncoder(w)
		return enc.Encode(tomlPlan{Invocation: entries})
	default:
		return fmt.Errorf("unknown plan format %q", format)
	}
}

// Package prompts holds the generative prompt templates for the pipeline stages.
// Each JSON file maps a template name to its text; all of them are embedded
// and parsed once on first use.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"
)

// Template files, one per generated artifact.
const (
	ProfilesFile   = "profiles.json"
	PitchesFile    = "pitches.json"
	SimulationFile = "simulation.json"
)

//go:embed *.json
var templateFS embed.FS

// catalog is every embedded file, parsed.
var catalog = sync.OnceValues(func() (map[string]map[string]string, error) {
	return parseAll(templateFS)
})

func parseAll(fsys fs.FS) (map[string]map[string]string, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var templates map[string]string
		if err := json.Unmarshal(data, &templates); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}
		out[name] = templates
	}
	return out, nil
}

func file(filename string) (map[string]string, error) {
	all, err := catalog()
	if err != nil {
		return nil, err
	}
	templates, ok := all[filename]
	if !ok {
		return nil, fmt.Errorf("unknown prompt file %s", filename)
	}
	return templates, nil
}

// Get returns the template stored under key in filename.
func Get(filename, key string) (string, error) {
	templates, err := file(filename)
	if err != nil {
		return "", err
	}
	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return template, nil
}

// Format substitutes {{.Key}} placeholders. Placeholders without a value stay as written.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	oldnew := make([]string, 0, len(data)*2)
	for key, value := range data {
		oldnew = append(oldnew, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(oldnew...).Replace(template)
}

// Render looks up a template and formats it.
func Render(filename, key string, data map[string]string) (string, error) {
	template, err := Get(filename, key)
	if err != nil {
		return "", err
	}
	return Format(template, data), nil
}

// List returns the template names in filename in sorted order.
func List(filename string) ([]string, error) {
	templates, err := file(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

package extract

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Directory maps a canonical technician name to its org unit.
//
// The mapping is loaded from a YAML file on first lookup and reused for the
// rest of the process. It is read-only once loaded.
type Directory struct {
	path string

	once    sync.Once
	entries map[string]string
	err     error
}

// NewDirectory creates a directory backed by a YAML file of the form
//
//	technician name: org unit
//
// The file is not read until the first Lookup.
func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

// NewStaticDirectory creates an already-loaded directory.
func NewStaticDirectory(entries map[string]string) *Directory {
	d := &Directory{entries: canonicalEntries(entries)}
	d.once.Do(func() {})
	return d
}

// Lookup returns the org unit for a technician.
// Returns an error if the backing file cannot be loaded.
func (d *Directory) Lookup(technician string) (string, bool, error) {
	d.once.Do(d.load)
	if d.err != nil {
		return "", false, d.err
	}
	unit, ok := d.entries[technician]
	return unit, ok, nil
}

// Len returns the number of entries, loading the file if needed.
func (d *Directory) Len() (int, error) {
	d.once.Do(d.load)
	return len(d.entries), d.err
}

func (d *Directory) load() {
	data, err := os.ReadFile(d.path)
	if err != nil {
		d.err = fmt.Errorf("failed to read directory: %w", err)
		return
	}

	entries := map[string]string{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&entries); err != nil {
		d.err = fmt.Errorf("failed to parse directory %s: %w", d.path, err)
		return
	}

	d.entries = canonicalEntries(entries)
}

func canonicalEntries(entries map[string]string) map[string]string {
	out := make(map[string]string, len(entries))
	for tech, unit := range entries {
		out[CanonicalName(tech)] = CanonicalName(unit)
	}
	return out
}

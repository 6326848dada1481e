// Package inventory owns the persisted collection of machine records.
//
// The store is a single JSON document ({"group": ..., "machines": [...]})
// kept in memory and written back with Persist. It is not safe for
// concurrent use and does not guard against other processes writing the
// same file; the last writer wins.
package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/vbsnap/internal/machine"
)

var (
	// ErrNotFound is returned when a machine name is not in the inventory.
	ErrNotFound = errors.New("machine not found in inventory")

	// ErrEmptyInventory is returned by NextConsolePort when there is no
	// record to derive a port from.
	ErrEmptyInventory = errors.New("inventory is empty")
)

// Store is the in-memory inventory bound to its file.
type Store struct {
	path string
	data machine.Inventory
	log  logrus.FieldLogger
}

// New returns an empty store for path seeded with group. Nothing is read
// from or written to disk until Persist is called.
func New(path, group string, log logrus.FieldLogger) *Store {
	return &Store{
		path: path,
		data: machine.Inventory{Group: group, Machines: []machine.Record{}},
		log:  log,
	}
}

// Load reads the inventory at path.
//
// A missing, empty, unreadable or corrupt file is not an error: the store
// starts fresh with defaultGroup and the problem is logged. A loaded file
// keeps its own group; defaultGroup only fills an empty one.
func Load(path, defaultGroup string, log logrus.FieldLogger) *Store {
	s := New(path, defaultGroup, log)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Warnf("Failed to read inventory %s, starting with an empty inventory", path)
		} else {
			log.Debugf("No inventory at %s yet, starting with an empty inventory", path)
		}
		return s
	}

	var inv machine.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		if len(data) > 0 {
			log.WithError(err).Warnf("Inventory %s is corrupt, starting with an empty inventory", path)
		}
		return s
	}

	if inv.Group == "" {
		inv.Group = defaultGroup
	}
	if inv.Machines == nil {
		inv.Machines = []machine.Record{}
	}
	s.data = inv

	log.Debugf("Loaded %d machine(s) from %s", len(inv.Machines), path)
	return s
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Group returns the scan group the inventory was created with.
func (s *Store) Group() string {
	return s.data.Group
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.data.Machines)
}

// Lookup returns the storage index of name.
func (s *Store) Lookup(name string) (int, bool) {
	for i, rec := range s.data.Machines {
		if rec.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Has reports whether name is in the inventory.
func (s *Store) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Get returns a copy of the record stored for name.
func (s *Store) Get(name string) (machine.Record, bool) {
	i, ok := s.Lookup(name)
	if !ok {
		return machine.Record{}, false
	}
	return s.data.Machines[i].Clone(), true
}

// Upsert stores rec, replacing any record with the same name in place or
// appending it otherwise. Fields are never merged.
func (s *Store) Upsert(rec machine.Record) {
	rec = rec.Clone()
	if i, ok := s.Lookup(rec.Name); ok {
		s.data.Machines[i] = rec
		return
	}
	s.data.Machines = append(s.data.Machines, rec)
}

// Delete removes name, keeping the order of the remaining records.
func (s *Store) Delete(name string) error {
	i, ok := s.Lookup(name)
	if !ok {
		return fmt.Errorf("cannot delete %q: %w", name, ErrNotFound)
	}
	s.data.Machines = append(s.data.Machines[:i], s.data.Machines[i+1:]...)
	return nil
}

// Names returns every machine name in storage order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.data.Machines))
	for _, rec := range s.data.Machines {
		names = append(names, rec.Name)
	}
	return names
}

// Machines returns copies of every record in storage order.
func (s *Store) Machines() []machine.Record {
	out := make([]machine.Record, 0, len(s.data.Machines))
	for _, rec := range s.data.Machines {
		out = append(out, rec.Clone())
	}
	return out
}

// NextConsolePort returns one more than the highest console port in the
// inventory, or ErrEmptyInventory when there are no records.
func (s *Store) NextConsolePort() (int, error) {
	if len(s.data.Machines) == 0 {
		return 0, ErrEmptyInventory
	}
	highest := s.data.Machines[0].ConsolePort
	for _, rec := range s.data.Machines[1:] {
		if rec.ConsolePort > highest {
			highest = rec.ConsolePort
		}
	}
	return highest + 1, nil
}

// PortInUse reports which machine other than except already uses port.
func (s *Store) PortInUse(port int, except string) (string, bool) {
	for _, rec := range s.data.Machines {
		if rec.Name != except && rec.ConsolePort == port {
			return rec.Name, true
		}
	}
	return "", false
}

// Persist writes the whole inventory to the store's file, replacing what
// was there. The write goes through a temporary file in the same directory
// and a rename, so a crash never leaves a half-written inventory.
func (s *Store) Persist() error {
	data, err := json.MarshalIndent(s.data, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create inventory directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary inventory file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close inventory file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set inventory permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace inventory %s: %w", s.path, err)
	}

	s.log.Debugf("Dumped %d machine(s) to %s", len(s.data.Machines), s.path)
	return nil
}

package catalog

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"starsgame/models"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog is returned when a case definition cannot be sold
var ErrInvalidCatalog = errors.New("invalid case catalog")

type file struct {
	Cases []*models.CaseDefinition `yaml:"cases"`
}

// Catalog holds the case definitions. Reload swaps the whole set at once, so a
// definition handed out by Get stays unchanged for the caller.
type Catalog struct {
	mu    sync.RWMutex
	path  string
	cases map[string]*models.CaseDefinition
	order []string
}

// Load reads a YAML catalog from path
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// New builds a catalog from definitions already in memory
func New(defs []*models.CaseDefinition) (*Catalog, error) {
	c := &Catalog{}
	if err := c.replace(defs); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes a YAML catalog document
func Parse(data []byte) ([]*models.CaseDefinition, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse case catalog: %w", err)
	}
	return f.Cases, nil
}

// Reload re-reads the catalog file. On error the previous definitions stay in place.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return fmt.Errorf("catalog was not loaded from a file")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read case catalog %s: %w", c.path, err)
	}

	defs, err := Parse(data)
	if err != nil {
		return err
	}
	if err := c.replace(defs); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"path":  c.path,
		"cases": len(defs),
	}).Info("Loaded case catalog")
	return nil
}

func (c *Catalog) replace(defs []*models.CaseDefinition) error {
	if err := Validate(defs); err != nil {
		return err
	}

	cases := make(map[string]*models.CaseDefinition, len(defs))
	order := make([]string, 0, len(defs))
	for _, def := range defs {
		cases[def.ID] = def
		order = append(order, def.ID)
	}

	c.mu.Lock()
	c.cases = cases
	c.order = order
	c.mu.Unlock()
	return nil
}

// Get returns a case by id
func (c *Catalog) Get(caseID string) (*models.CaseDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.cases[caseID]
	return def, ok
}

// List returns all cases in file order
func (c *Catalog) List() []*models.CaseDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]*models.CaseDefinition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.cases[id])
	}
	return defs
}

// Validate checks that every case can be priced and drawn
func Validate(defs []*models.CaseDefinition) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: no cases defined", ErrInvalidCatalog)
	}

	caseIDs := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def == nil || def.ID == "" {
			return fmt.Errorf("%w: case without id", ErrInvalidCatalog)
		}
		if caseIDs[def.ID] {
			return fmt.Errorf("%w: duplicate case %q", ErrInvalidCatalog, def.ID)
		}
		caseIDs[def.ID] = true

		if def.Price <= 0 {
			return fmt.Errorf("%w: case %q has non-positive price %d", ErrInvalidCatalog, def.ID, def.Price)
		}
		if len(def.Items) == 0 {
			return fmt.Errorf("%w: case %q has no items", ErrInvalidCatalog, def.ID)
		}

		itemIDs := make(map[string]bool, len(def.Items))
		for _, item := range def.Items {
			if item.ID == "" {
				return fmt.Errorf("%w: case %q has an item without id", ErrInvalidCatalog, def.ID)
			}
			if itemIDs[item.ID] {
				return fmt.Errorf("%w: case %q has duplicate item %q", ErrInvalidCatalog, def.ID, item.ID)
			}
			itemIDs[item.ID] = true

			if item.Weight <= 0 {
				return fmt.Errorf("%w: item %q of case %q has non-positive weight", ErrInvalidCatalog, item.ID, def.ID)
			}
			if item.Value < 0 {
				return fmt.Errorf("%w: item %q of case %q has negative value", ErrInvalidCatalog, item.ID, def.ID)
			}
		}
	}
	return nil
}

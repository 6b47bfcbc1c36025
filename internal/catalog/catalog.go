package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// Default policy used when no catalog files are present: the rescue dog
// classes run by the federation and the two competition levels that count
// toward the national rating.
var (
	defaultQualifyingLevels = []string{"Відбіркові", "Чемпіонат України"}

	defaultClasses = []models.Class{
		{Code: "RH-FL-A", Name: "Area search A", Discipline: "rescue"},
		{Code: "RH-FL-B", Name: "Area search B", Discipline: "rescue"},
		{Code: "RH-T-A", Name: "Rubble search A", Discipline: "rescue"},
		{Code: "RH-T-B", Name: "Rubble search B", Discipline: "rescue"},
	}
)

// Catalog holds the discipline classes offered by the federation and the
// set of competition levels whose results qualify for the rating
type Catalog struct {
	mu               sync.RWMutex
	classes          map[string]*models.Class
	qualifyingLevels map[string]bool
}

// New creates a catalog pre-populated with the default policy
func New() *Catalog {
	c := &Catalog{
		classes:          make(map[string]*models.Class),
		qualifyingLevels: make(map[string]bool),
	}
	c.applyDefaults()
	return c
}

func (c *Catalog) applyDefaults() {
	for i := range defaultClasses {
		cls := defaultClasses[i]
		c.classes[cls.Code] = &cls
	}
	for _, level := range defaultQualifyingLevels {
		c.qualifyingLevels[level] = true
	}
}

// LoadFromDir loads all YAML catalog files from a directory. Files replace
// the defaults: the first successfully parsed file clears the built-in
// class list.
func (c *Catalog) LoadFromDir(dir string) error {
	slog.Info("loading class catalog", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	if len(files) == 0 {
		slog.Warn("no catalog files found, keeping defaults", "dir", dir)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	loadedAny := false
	for _, file := range files {
		parsed, err := parseFile(file)
		if err != nil {
			slog.Warn("failed to load catalog file", "file", file, "error", err)
			continue
		}

		if !loadedAny {
			c.classes = make(map[string]*models.Class)
			c.qualifyingLevels = make(map[string]bool)
			loadedAny = true
		}

		for i := range parsed.Classes {
			cls := parsed.Classes[i]
			if cls.Code == "" {
				slog.Warn("skipping class without code", "file", file)
				continue
			}
			c.classes[cls.Code] = &cls
		}
		for _, level := range parsed.QualifyingLevels {
			c.qualifyingLevels[level] = true
		}
	}

	if !loadedAny {
		return fmt.Errorf("no catalog file in %s could be parsed", dir)
	}

	slog.Info("class catalog loaded", "classes", len(c.classes), "qualifying_levels", len(c.qualifyingLevels))
	return nil
}

func parseFile(path string) (*models.ClassCatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var parsed models.ClassCatalogFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return &parsed, nil
}

// Classes returns all classes sorted by code
func (c *Catalog) Classes() []*models.Class {
	c.mu.RLock()
	defer c.mu.RUnlock()

	classes := make([]*models.Class, 0, len(c.classes))
	for _, cls := range c.classes {
		classes = append(classes, cls)
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Code < classes[j].Code
	})
	return classes
}

// GetClass returns the class with the given code, or nil
func (c *Catalog) GetClass(code string) *models.Class {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classes[code]
}

// KnownClass reports whether the code is a recognized class,
// case-insensitively
func (c *Catalog) KnownClass(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.classes[code]; ok {
		return true
	}
	for k := range c.classes {
		if strings.EqualFold(k, code) {
			return true
		}
	}
	return false
}

// QualifyingLevels returns the competition levels counting toward the rating
func (c *Catalog) QualifyingLevels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	levels := make([]string, 0, len(c.qualifyingLevels))
	for level := range c.qualifyingLevels {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}

// IsQualifyingLevel reports whether results at this level feed the rating
func (c *Catalog) IsQualifyingLevel(level string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.qualifyingLevels[level]
}

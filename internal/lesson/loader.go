// Package lesson loads the lesson catalog from YAML module files.
package lesson

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

//go:embed modules/*.yaml
var defaultModules embed.FS

// ErrInvalidModule is returned for module files that parse but cannot be used.
var ErrInvalidModule = errors.New("invalid module")

// ModuleFile represents the YAML structure for a learning module
type ModuleFile struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Language    string       `yaml:"language"`
	IconName    string       `yaml:"icon_name"`
	Color       string       `yaml:"color"`
	Order       int          `yaml:"order"`
	Lessons     []LessonFile `yaml:"lessons"`
}

// LessonFile represents one lesson inside a module file
type LessonFile struct {
	ID               string            `yaml:"id"`
	Title            string            `yaml:"title"`
	Description      string            `yaml:"description"`
	Difficulty       string            `yaml:"difficulty"`
	EstimatedMinutes int               `yaml:"estimated_minutes"`
	XPReward         int               `yaml:"xp_reward"`
	Order            int               `yaml:"order"`
	Locked           bool              `yaml:"locked"`
	Questions        []domain.Question `yaml:"questions"`
}

// Loader reads module files from a file system
type Loader struct {
	fsys fs.FS
	dir  string
}

// NewLoader creates a loader for *.yaml files under dir in fsys
func NewLoader(fsys fs.FS, dir string) *Loader {
	return &Loader{fsys: fsys, dir: dir}
}

// NewDirLoader creates a loader for a directory on disk
func NewDirLoader(basePath string) *Loader {
	return NewLoader(os.DirFS(basePath), ".")
}

// DefaultLoader serves the built-in modules
func DefaultLoader() *Loader {
	return NewLoader(defaultModules, "modules")
}

// LoadModule loads a single module file by name, with or without extension
func (l *Loader) LoadModule(name string) (domain.Module, error) {
	module, _, err := l.load(name)
	return module, err
}

// LoadAll loads every module file, ordered by the module order field then ID
func (l *Loader) LoadAll() ([]domain.Module, error) {
	entries, err := fs.ReadDir(l.fsys, l.dir)
	if err != nil {
		return nil, fmt.Errorf("read modules directory: %w", err)
	}

	type ordered struct {
		order  int
		module domain.Module
	}
	var loaded []ordered
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}

		module, order, err := l.load(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("load module %s: %w", entry.Name(), err)
		}
		loaded = append(loaded, ordered{order: order, module: module})
	}

	slices.SortStableFunc(loaded, func(a, b ordered) int {
		if a.order != b.order {
			return a.order - b.order
		}
		return strings.Compare(a.module.ID, b.module.ID)
	})
	return lo.Map(loaded, func(o ordered, _ int) domain.Module { return o.module }), nil
}

func (l *Loader) load(name string) (domain.Module, int, error) {
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}

	data, err := fs.ReadFile(l.fsys, path.Join(l.dir, name))
	if err != nil {
		return domain.Module{}, 0, fmt.Errorf("read module file: %w", err)
	}

	var mf ModuleFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return domain.Module{}, 0, fmt.Errorf("parse module file %s: %w", name, err)
	}

	module, err := mf.toDomain()
	if err != nil {
		return domain.Module{}, 0, fmt.Errorf("%s: %w", name, err)
	}
	return module, mf.Order, nil
}

func (mf ModuleFile) toDomain() (domain.Module, error) {
	if mf.ID == "" {
		return domain.Module{}, fmt.Errorf("%w: missing id", ErrInvalidModule)
	}

	module := domain.Module{
		ID:          mf.ID,
		Title:       mf.Title,
		Description: mf.Description,
		Language:    mf.Language,
		IconName:    mf.IconName,
		Color:       mf.Color,
		Lessons:     make([]domain.Lesson, 0, len(mf.Lessons)),
	}

	seen := make(map[string]bool)
	for _, lf := range mf.Lessons {
		if lf.ID == "" {
			return domain.Module{}, fmt.Errorf("%w: %s has a lesson without id", ErrInvalidModule, mf.ID)
		}
		if seen[lf.ID] {
			return domain.Module{}, fmt.Errorf("%w: duplicate lesson %s", ErrInvalidModule, lf.ID)
		}
		seen[lf.ID] = true

		for _, q := range lf.Questions {
			if err := q.Validate(); err != nil {
				return domain.Module{}, fmt.Errorf("lesson %s: %w", lf.ID, err)
			}
		}

		module.Lessons = append(module.Lessons, domain.Lesson{
			ID:               lf.ID,
			Title:            lf.Title,
			Description:      lf.Description,
			Language:         mf.Language,
			Difficulty:       domain.Difficulty(lf.Difficulty),
			EstimatedMinutes: lf.EstimatedMinutes,
			XPReward:         lf.XPReward,
			ModuleID:         mf.ID,
			Order:            lf.Order,
			Locked:           lf.Locked,
			Questions:        lf.Questions,
		})
	}

	slices.SortStableFunc(module.Lessons, func(a, b domain.Lesson) int { return a.Order - b.Order })
	return module, nil
}

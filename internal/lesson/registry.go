package lesson

import (
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

// Registry provides access to modules and lessons
type Registry struct {
	loader  *Loader
	mu      sync.RWMutex
	modules []domain.Module
	lessons map[string]domain.Lesson
}

// NewRegistry creates a new lesson registry
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader:  loader,
		lessons: make(map[string]domain.Lesson),
	}
}

// Load loads all modules into memory
func (r *Registry) Load() error {
	modules, err := r.loader.LoadAll()
	if err != nil {
		return fmt.Errorf("load modules: %w", err)
	}

	lessons := make(map[string]domain.Lesson)
	for _, m := range modules {
		for _, l := range m.Lessons {
			if prev, ok := lessons[l.ID]; ok {
				return fmt.Errorf("%w: lesson %s in both %s and %s", ErrInvalidModule, l.ID, prev.ModuleID, m.ID)
			}
			lessons[l.ID] = l
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = modules
	r.lessons = lessons
	return nil
}

// Reload reloads all modules (useful when editing lesson files)
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.modules = nil
	r.lessons = make(map[string]domain.Lesson)
	r.mu.Unlock()

	return r.Load()
}

// Modules returns all modules in catalog order
func (r *Registry) Modules() []domain.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Module(nil), r.modules...)
}

// Module returns a module by ID
func (r *Registry) Module(id string) (domain.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := lo.Find(r.modules, func(m domain.Module) bool { return m.ID == id })
	if !ok {
		return domain.Module{}, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, id)
	}
	return m, nil
}

// Lesson returns a lesson by ID
func (r *Registry) Lesson(id string) (domain.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lessons[id]
	if !ok {
		return domain.Lesson{}, fmt.Errorf("%w: %s", domain.ErrLessonNotFound, id)
	}
	return l, nil
}

// Lessons returns every lesson in module order, then lesson order
func (r *Registry) Lessons() []domain.Lesson {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orderedLocked()
}

// LessonsByLanguage returns lessons whose language matches, ignoring case
func (r *Registry) LessonsByLanguage(language string) []domain.Lesson {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Filter(r.orderedLocked(), func(l domain.Lesson, _ int) bool {
		return strings.EqualFold(l.Language, language)
	})
}

// NextLesson returns the lesson after id in the same module.
// Returns false if id is the last one.
func (r *Registry) NextLesson(id string) (domain.Lesson, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current, ok := r.lessons[id]
	if !ok {
		return domain.Lesson{}, false, fmt.Errorf("%w: %s", domain.ErrLessonNotFound, id)
	}
	m, _ := lo.Find(r.modules, func(m domain.Module) bool { return m.ID == current.ModuleID })
	for i, l := range m.Lessons {
		if l.ID == id && i+1 < len(m.Lessons) {
			return m.Lessons[i+1], true, nil
		}
	}
	return domain.Lesson{}, false, nil
}

// Recommend returns up to n unlocked lessons not in completed, in catalog
// order. Lessons in a preferred language come first when languages is set.
func (r *Registry) Recommend(completed []string, languages []string, n int) []domain.Lesson {
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := lo.Filter(r.orderedLocked(), func(l domain.Lesson, _ int) bool {
		return !l.Locked && !lo.Contains(completed, l.ID)
	})
	inPreferred := func(l domain.Lesson, _ int) bool {
		return lo.ContainsBy(languages, func(lang string) bool { return strings.EqualFold(lang, l.Language) })
	}
	preferred := lo.Filter(open, inPreferred)
	rest := lo.Reject(open, inPreferred)

	out := append(preferred, rest...)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Stats returns statistics about loaded lessons
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		ModuleCount:  len(r.modules),
		LessonCount:  len(r.lessons),
		ByDifficulty: make(map[string]int),
	}
	for _, l := range r.lessons {
		stats.ByDifficulty[string(l.Difficulty)]++
		stats.QuestionCount += len(l.Questions)
		stats.TotalXPRewards += l.XPReward
	}
	return stats
}

// RegistryStats holds statistics about the registry
type RegistryStats struct {
	ModuleCount    int
	LessonCount    int
	QuestionCount  int
	ByDifficulty   map[string]int
	TotalXPRewards int
}

func (r *Registry) orderedLocked() []domain.Lesson {
	return lo.FlatMap(r.modules, func(m domain.Module, _ int) []domain.Lesson {
		return append([]domain.Lesson(nil), m.Lessons...)
	})
}

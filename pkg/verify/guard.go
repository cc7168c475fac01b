package verify

import (
	"sync"

	"golang.org/x/text/cases"
)

// Guard tracks named definitions whose resolution is in progress. Names
// compare case-insensitively. It detects circular references between
// lazily resolved definitions (expressions, libraries).
type Guard struct {
	mu     sync.Mutex
	fold   cases.Caser
	active map[string]struct{}
	stack  []string
}

// NewGuard returns an empty guard.
func NewGuard() *Guard {
	return &Guard{
		fold:   cases.Fold(),
		active: make(map[string]struct{}),
	}
}

// Enter marks name as in progress. It returns false when name is already
// in progress.
func (g *Guard) Enter(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := g.fold.String(name)
	if _, ok := g.active[key]; ok {
		return false
	}
	g.active[key] = struct{}{}
	g.stack = append(g.stack, name)
	return true
}

// Leave clears the in-progress mark for name.
func (g *Guard) Leave(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := g.fold.String(name)
	delete(g.active, key)
	for i := len(g.stack) - 1; i >= 0; i-- {
		if g.fold.String(g.stack[i]) == key {
			g.stack = append(g.stack[:i], g.stack[i+1:]...)
			break
		}
	}
}

// Active reports whether name is in progress.
func (g *Guard) Active(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[g.fold.String(name)]
	return ok
}

// Path returns the names in progress, outermost first.
func (g *Guard) Path() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.stack...)
}

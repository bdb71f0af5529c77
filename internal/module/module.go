// Package module keeps the feature modules the engine updates and draws,
// and the order it calls them in.
package module

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/invariant"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/render"
)

var (
	ErrDuplicate = errors.New("module already loaded")
	ErrNotLoaded = errors.New("module not loaded")
)

// ID names a module kind. Each kind is loaded at most once.
type ID int

const (
	MilkyWay ID = iota + 1
	SolarSystem
	Stars
	Landscape
)

func (id ID) String() string {
	switch id {
	case MilkyWay:
		return "MilkyWay"
	case SolarSystem:
		return "SolarSystem"
	case Stars:
		return "Stars"
	case Landscape:
		return "Landscape"
	default:
		return fmt.Sprintf("Module(%d)", int(id))
	}
}

// Action is a per-frame call the manager orders modules for.
type Action int

const (
	ActionDraw Action = iota
	ActionUpdate
)

func (a Action) String() string {
	switch a {
	case ActionDraw:
		return "draw"
	case ActionUpdate:
		return "update"
	default:
		return "unknown"
	}
}

var actions = []Action{ActionDraw, ActionUpdate}

// Module is a feature drawn on the sky: stars, planets, the landscape.
type Module interface {
	ID() ID
	Init() error
	Deinit()
	// Update advances the module by dt of wall-clock time.
	Update(dt time.Duration)
	Draw(c *core.Core, p render.Painter)
	// CallOrder ranks the module for a; lower values run earlier.
	CallOrder(a Action) float64
}

// Manager owns the loaded modules. Modules with equal call orders run in
// registration order.
type Manager struct {
	log *logging.Logger

	modules map[ID]Module
	loaded  []Module // registration order

	lists map[Action][]Module
	stale bool
}

// NewManager returns an empty manager.
func NewManager(log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{
		log:     log,
		modules: make(map[ID]Module),
		lists:   make(map[Action][]Module),
	}
}

// Register loads mod. The calling lists are rebuilt on next use.
func (m *Manager) Register(mod Module) error {
	id := mod.ID()
	if _, ok := m.modules[id]; ok {
		m.log.Warn("module %s is already loaded", id)
		return fmt.Errorf("%s: %w", id, ErrDuplicate)
	}
	m.modules[id] = mod
	m.loaded = append(m.loaded, mod)
	m.stale = true
	return nil
}

// Unload deinitializes and removes the module id.
func (m *Manager) Unload(id ID) error {
	mod, ok := m.modules[id]
	if !ok {
		m.log.Warn("module %s is not loaded", id)
		return fmt.Errorf("%s: %w", id, ErrNotLoaded)
	}
	mod.Deinit()
	delete(m.modules, id)
	for i, l := range m.loaded {
		if l == mod {
			m.loaded = append(m.loaded[:i], m.loaded[i+1:]...)
			break
		}
	}
	m.stale = true
	return nil
}

// Module returns the module id.
func (m *Manager) Module(id ID) (Module, bool) {
	mod, ok := m.modules[id]
	return mod, ok
}

// Get returns the module id as its concrete type T.
func Get[T Module](m *Manager, id ID) (T, bool) {
	var zero T
	mod, ok := m.modules[id]
	if !ok {
		return zero, false
	}
	t, ok := mod.(T)
	invariant.Check(ok, "module %s is %T, not %T", id, mod, zero)
	return t, ok
}

// All returns the loaded modules in registration order.
func (m *Manager) All() []Module {
	return append([]Module(nil), m.loaded...)
}

// Len returns the number of loaded modules.
func (m *Manager) Len() int { return len(m.loaded) }

// Update rebuilds the calling lists if modules changed.
func (m *Manager) Update() {
	if m.stale {
		m.generateCallingLists()
	}
}

// CallOrder returns the modules in the order a runs them.
func (m *Manager) CallOrder(a Action) []Module {
	m.Update()
	return append([]Module(nil), m.lists[a]...)
}

func (m *Manager) generateCallingLists() {
	for _, a := range actions {
		list := append([]Module(nil), m.loaded...)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CallOrder(a) < list[j].CallOrder(a)
		})
		m.lists[a] = list
	}
	m.stale = false
	m.log.Debug("regenerated calling lists for %d modules", len(m.loaded))
}

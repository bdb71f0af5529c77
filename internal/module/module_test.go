package module

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/render"
)

type fakeModule struct {
	id             ID
	draw, update   float64
	inits, deinits int
}

func (f *fakeModule) ID() ID                          { return f.id }
func (f *fakeModule) Deinit()                         { f.deinits++ }
func (f *fakeModule) Update(time.Duration)            {}
func (f *fakeModule) Draw(*core.Core, render.Painter) {}

func (f *fakeModule) Init() error {
	f.inits++
	return nil
}

func (f *fakeModule) CallOrder(a Action) float64 {
	if a == ActionDraw {
		return f.draw
	}
	return f.update
}

// otherModule is a second concrete type for typed lookups.
type otherModule struct{ fakeModule }

func ids(mods []Module) []ID {
	out := make([]ID, len(mods))
	for i, m := range mods {
		out[i] = m.ID()
	}
	return out
}

func equalIDs(a, b []ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCallOrder(t *testing.T) {
	m := NewManager(nil)
	for _, mod := range []*fakeModule{
		{id: Landscape, draw: 30, update: 0},
		{id: SolarSystem, draw: 10, update: 0},
		{id: Stars, draw: 10, update: -1},
		{id: MilkyWay, draw: 1, update: 5},
	} {
		if err := m.Register(mod); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		action Action
		want   []ID
	}{
		// Equal draw orders keep registration order.
		{ActionDraw, []ID{MilkyWay, SolarSystem, Stars, Landscape}},
		{ActionUpdate, []ID{Stars, Landscape, SolarSystem, MilkyWay}},
	}
	for _, tc := range tests {
		t.Run(tc.action.String(), func(t *testing.T) {
			if got := ids(m.CallOrder(tc.action)); !equalIDs(got, tc.want) {
				t.Errorf("CallOrder(%v) = %v, want %v", tc.action, got, tc.want)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.LevelWarn)
	log.SetOutput(&buf)

	m := NewManager(log)
	if err := m.Register(&fakeModule{id: Stars}); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(&fakeModule{id: Stars}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second Register error = %v, want ErrDuplicate", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if !strings.Contains(buf.String(), "module Stars is already loaded") {
		t.Errorf("duplicate not logged: %q", buf.String())
	}
}

func TestUnload(t *testing.T) {
	m := NewManager(nil)
	stars := &fakeModule{id: Stars, draw: 2}
	land := &fakeModule{id: Landscape, draw: 1}
	m.Register(stars)
	m.Register(land)

	if got := ids(m.CallOrder(ActionDraw)); !equalIDs(got, []ID{Landscape, Stars}) {
		t.Fatalf("CallOrder before unload = %v", got)
	}
	if err := m.Unload(Landscape); err != nil {
		t.Fatal(err)
	}
	if land.deinits != 1 {
		t.Errorf("Deinit called %d times, want 1", land.deinits)
	}
	if got := ids(m.CallOrder(ActionDraw)); !equalIDs(got, []ID{Stars}) {
		t.Errorf("CallOrder after unload = %v", got)
	}
	if got := ids(m.All()); !equalIDs(got, []ID{Stars}) {
		t.Errorf("All() after unload = %v", got)
	}
	if err := m.Unload(Landscape); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("second Unload error = %v, want ErrNotLoaded", err)
	}
}

func TestListsRegenerateLazily(t *testing.T) {
	m := NewManager(nil)
	m.Register(&fakeModule{id: Stars})
	m.Update()
	if len(m.lists[ActionDraw]) != 1 {
		t.Fatalf("Update did not build the lists")
	}

	m.Register(&fakeModule{id: MilkyWay, draw: -1})
	if len(m.lists[ActionDraw]) != 1 {
		t.Error("Register rebuilt the lists eagerly")
	}
	if got := ids(m.CallOrder(ActionDraw)); !equalIDs(got, []ID{MilkyWay, Stars}) {
		t.Errorf("CallOrder = %v", got)
	}
}

func TestGet(t *testing.T) {
	m := NewManager(nil)
	stars := &fakeModule{id: Stars}
	m.Register(stars)

	got, ok := Get[*fakeModule](m, Stars)
	if !ok || got != stars {
		t.Errorf("Get(Stars) = %v, %v", got, ok)
	}
	if _, ok := Get[*fakeModule](m, SolarSystem); ok {
		t.Error("Get found a module that was never registered")
	}
	if mod, ok := m.Module(Stars); !ok || mod.ID() != Stars {
		t.Errorf("Module(Stars) = %v, %v", mod, ok)
	}
}

func TestIDString(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{MilkyWay, "MilkyWay"},
		{SolarSystem, "SolarSystem"},
		{Stars, "Stars"},
		{Landscape, "Landscape"},
		{ID(42), "Module(42)"},
	}
	for _, tc := range tests {
		if got := tc.id.String(); got != tc.want {
			t.Errorf("ID(%d).String() = %q, want %q", int(tc.id), got, tc.want)
		}
	}
}

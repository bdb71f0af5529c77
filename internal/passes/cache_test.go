package passes

import (
	"errors"
	"testing"

	"github.com/litescript/ls-sky/internal/astro"
)

func TestCacheReusesPlans(t *testing.T) {
	s := &sineSampler{amp: 30}
	c := NewCache(DefaultOptions())

	first, err := c.Plan(s, "home", "Mars", astro.J2000)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	again, err := c.Plan(s, "home", "Mars", astro.J2000+0.5/24)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if again != first || s.calls != 1 {
		t.Errorf("plan recomputed within the TTL (%d samplings)", s.calls)
	}

	if _, err := c.Plan(s, "home", "Venus", astro.J2000); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if c.Len() != 2 || s.calls != 2 {
		t.Errorf("Len = %d after %d samplings, want 2 and 2", c.Len(), s.calls)
	}
}

func TestCacheReclassifies(t *testing.T) {
	s := &sineSampler{amp: 30}
	c := NewCache(DefaultOptions())

	// Just before rise, then just after.
	plan, _ := c.Plan(s, "home", "Mars", astro.J2000-0.01)
	if plan.CurrentPass() != nil {
		t.Fatal("object is up before it rises")
	}
	plan, _ = c.Plan(s, "home", "Mars", astro.J2000+0.01)
	if s.calls != 1 {
		t.Fatalf("%d samplings, want 1", s.calls)
	}
	if plan.CurrentPass() == nil {
		t.Error("cached plan was not reclassified after rise")
	}
}

func TestCacheExpires(t *testing.T) {
	s := &sineSampler{amp: 30}
	c := NewCache(DefaultOptions())

	c.Plan(s, "home", "Mars", astro.J2000)
	c.Plan(s, "home", "Mars", astro.J2000+2.0/24)
	c.Plan(s, "home", "Mars", astro.J2000-2.0/24)
	if s.calls != 3 {
		t.Errorf("%d samplings, want 3 after the clock left the TTL twice", s.calls)
	}
}

func TestCacheDropsPlansOnSiteChange(t *testing.T) {
	s := &sineSampler{amp: 30}
	c := NewCache(DefaultOptions())

	c.Plan(s, "home", "Mars", astro.J2000)
	c.Plan(s, "home", "Venus", astro.J2000)
	c.Plan(s, "away", "Mars", astro.J2000)
	if c.Len() != 1 || s.calls != 3 {
		t.Errorf("Len = %d after %d samplings, want 1 and 3", c.Len(), s.calls)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear", c.Len())
	}
}

func TestCacheError(t *testing.T) {
	failure := errors.New("no ephemeris")
	s := &sineSampler{err: failure}
	c := NewCache(DefaultOptions())

	if _, err := c.Plan(s, "home", "Mars", astro.J2000); !errors.Is(err, failure) {
		t.Errorf("Plan error = %v, want %v", err, failure)
	}
	if !errors.Is(c.Err(), failure) {
		t.Errorf("Err = %v, want %v", c.Err(), failure)
	}

	s.err = nil
	if _, err := c.Plan(s, "home", "Mars", astro.J2000); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if c.Err() != nil {
		t.Errorf("Err = %v after a good plan", c.Err())
	}
}

package ephem

import (
	"fmt"
	"math"
	"sync"

	pp "github.com/soniakeys/meeus/v3/planetposition"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

// VSOP87Provider reads the VSOP87B series from a directory of data files,
// one per planet (VSOP87B.mer ... VSOP87B.nep). The Moon comes from the
// analytic series. Files are loaded on first use and kept.
type VSOP87Provider struct {
	dir string
	log *logging.Logger

	mu      sync.Mutex
	planets map[int]*pp.V87Planet
	failed  map[int]error
}

// NewVSOP87Provider returns a provider reading from dir.
func NewVSOP87Provider(dir string, log *logging.Logger) *VSOP87Provider {
	if log == nil {
		log = logging.Discard()
	}
	return &VSOP87Provider{
		dir:     dir,
		log:     log,
		planets: make(map[int]*pp.V87Planet),
		failed:  make(map[int]error),
	}
}

// Name implements Provider.
func (p *VSOP87Provider) Name() string { return "VSOP87" }

// Available implements Provider. A planet whose data file cannot be read
// is unavailable.
func (p *VSOP87Provider) Available(target TargetID) bool {
	if target == NAIFSun || target == NAIFMoon {
		return true
	}
	info, ok := TargetsByNAIF[target]
	if !ok || info.VSOP87 < 0 {
		return false
	}
	_, err := p.load(info.VSOP87)
	return err == nil
}

// PosFunc implements Provider.
func (p *VSOP87Provider) PosFunc(target TargetID) (solarsystem.PosFunc, error) {
	switch target {
	case NAIFSun:
		return sunPos, nil
	case NAIFMoon:
		return withVelocity(moonGeocentric), nil
	}
	info, ok := TargetsByNAIF[target]
	if !ok || info.VSOP87 < 0 {
		return nil, fmt.Errorf("vsop87 %d: %w", target, ErrUnknownBody)
	}
	planet, err := p.load(info.VSOP87)
	if err != nil {
		return nil, err
	}
	return withVelocity(func(jde float64) r3.Vec {
		l, b, r := planet.Position2000(jde)
		sinL, cosL := math.Sincos(l.Rad())
		sinB, cosB := math.Sincos(b.Rad())
		return r3.Vec{X: r * cosB * cosL, Y: r * cosB * sinL, Z: r * sinB}
	}), nil
}

func (p *VSOP87Provider) load(ibody int) (*pp.V87Planet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if planet, ok := p.planets[ibody]; ok {
		return planet, nil
	}
	if err, ok := p.failed[ibody]; ok {
		return nil, err
	}
	planet, err := pp.LoadPlanetPath(ibody, p.dir)
	if err != nil {
		err = fmt.Errorf("%w: vsop87 body %d in %s: %v", ErrNoData, ibody, p.dir, err)
		p.failed[ibody] = err
		p.log.Warn("%v", err)
		return nil, err
	}
	p.planets[ibody] = planet
	p.log.Debug("loaded vsop87 body %d", ibody)
	return planet, nil
}

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/config"
	"github.com/litescript/ls-sky/internal/ephem"
	"github.com/litescript/ls-sky/internal/logging"
)

// NewProvider builds the ephemeris provider cfg selects. Horizons tables
// are fetched here, centered on the configured start time or now.
func NewProvider(ctx context.Context, log *logging.Logger, cfg config.Config, now time.Time) (ephem.Provider, error) {
	if log == nil {
		log = logging.Discard()
	}
	mode, err := cfg.EphemerisMode()
	if err != nil {
		return nil, err
	}
	switch mode {
	case ephem.ModeAnalytic:
		return ephem.NewAnalyticProvider(), nil
	case ephem.ModeVSOP87:
		if cfg.Ephemeris.VSOP87Dir == "" {
			return nil, fmt.Errorf("ephemeris: vsop87 needs vsop87_dir: %w", ephem.ErrNoData)
		}
		return ephem.NewVSOP87Provider(cfg.Ephemeris.VSOP87Dir, log.Named("vsop87")), nil
	case ephem.ModeHorizons:
		p := ephem.NewHorizonsProvider(log.Named("horizons"))
		p.SetSpan(cfg.Ephemeris.HorizonsSpanDays, ephem.DefaultStep)
		jd := cfg.Time.JD
		if jd == 0 {
			jd = astro.JDFromTime(now)
		}
		ids := make([]ephem.TargetID, 0, len(ephem.Targets))
		for _, t := range ephem.Targets {
			ids = append(ids, t.NAIFID)
		}
		// Delta-T is under a day, well inside the fetched span.
		if err := p.Prefetch(ctx, jd, ids...); err != nil {
			return nil, fmt.Errorf("ephemeris: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("ephemeris: %w: %v", ephem.ErrInvalidMode, mode)
}

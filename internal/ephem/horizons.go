package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// DefaultSpanDays is the default time span fetched around the start
	// date.
	DefaultSpanDays = 30

	// DefaultStep is the default spacing of fetched vectors.
	DefaultStep = 6 * time.Hour

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout = 30 * time.Second
)

// HorizonsProvider serves positions interpolated from JPL Horizons vector
// tables. Tables are fetched once by Prefetch; evaluation never touches the
// network.
type HorizonsProvider struct {
	client  *http.Client
	baseURL string
	log     *logging.Logger

	spanDays float64
	step     time.Duration

	mu     sync.RWMutex
	tables map[TargetID]*vectorTable
}

// NewHorizonsProvider creates a new Horizons API client.
func NewHorizonsProvider(log *logging.Logger) *HorizonsProvider {
	if log == nil {
		log = logging.Discard()
	}
	return &HorizonsProvider{
		client: &http.Client{
			Timeout: RequestTimeout,
		},
		baseURL:  HorizonsAPIURL,
		log:      log,
		spanDays: DefaultSpanDays,
		step:     DefaultStep,
		tables:   make(map[TargetID]*vectorTable),
	}
}

// SetBaseURL points the client at another endpoint.
func (p *HorizonsProvider) SetBaseURL(u string) { p.baseURL = u }

// SetSpan sets the days fetched around the start date and the spacing of
// the vectors.
func (p *HorizonsProvider) SetSpan(days float64, step time.Duration) {
	if days > 0 {
		p.spanDays = days
	}
	if step >= time.Minute {
		p.step = step
	}
}

// Name implements Provider.
func (p *HorizonsProvider) Name() string {
	return "Horizons"
}

// Available implements Provider. Bodies are available once prefetched.
func (p *HorizonsProvider) Available(target TargetID) bool {
	if target == NAIFSun {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.tables[target]
	return ok
}

// PosFunc implements Provider.
func (p *HorizonsProvider) PosFunc(target TargetID) (solarsystem.PosFunc, error) {
	if target == NAIFSun {
		return sunPos, nil
	}
	p.mu.RLock()
	table, ok := p.tables[target]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("horizons %d: %w (not prefetched)", target, ErrNoData)
	}
	return table.at, nil
}

// Prefetch downloads vector tables for targets covering the configured
// span centered on jde. Targets already fetched are replaced.
func (p *HorizonsProvider) Prefetch(ctx context.Context, jde float64, targets ...TargetID) error {
	start := jde - p.spanDays/2
	stop := jde + p.spanDays/2
	for _, target := range targets {
		if target == NAIFSun {
			continue
		}
		info, ok := TargetsByNAIF[target]
		if !ok {
			return fmt.Errorf("horizons %d: %w", target, ErrUnknownBody)
		}
		parent, ok := GetTargetByName(info.Parent)
		if !ok {
			return fmt.Errorf("horizons %s: parent %q: %w", info.Name, info.Parent, ErrUnknownBody)
		}

		table, err := p.queryVectors(ctx, target, parent.NAIFID, start, stop)
		if err != nil {
			return fmt.Errorf("horizons %s: %w", info.Name, err)
		}
		p.mu.Lock()
		p.tables[target] = table
		p.mu.Unlock()
		p.log.Info("fetched %d vectors for %s (JDE %.1f to %.1f)", len(table.records), info.Name, start, stop)
	}
	return nil
}

// queryVectors requests ecliptic J2000 state vectors of target relative
// to center.
func (p *HorizonsProvider) queryVectors(ctx context.Context, target, center TargetID, start, stop float64) (*vectorTable, error) {
	// Values must be quoted with single quotes
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%d'", target))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "VECTORS")
	params.Set("CENTER", fmt.Sprintf("'@%d'", center))
	params.Set("REF_PLANE", "ECLIPTIC")
	params.Set("REF_SYSTEM", "ICRF")
	params.Set("VEC_TABLE", "'2'") // Position and velocity
	params.Set("VEC_LABELS", "NO")
	params.Set("CSV_FORMAT", "NO")
	params.Set("OUT_UNITS", "'AU-D'")
	params.Set("START_TIME", fmt.Sprintf("'JD%.6f'", start))
	params.Set("STOP_TIME", fmt.Sprintf("'JD%.6f'", stop))
	params.Set("STEP_SIZE", fmt.Sprintf("'%s'", formatStepSize(p.step)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("horizons vector request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("horizons returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return parseVectorResponse(body)
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// parseVectorResponse parses the Horizons JSON response for vector data.
func parseVectorResponse(body []byte) (*vectorTable, error) {
	var resp horizonsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("horizons: %s", strings.TrimSpace(resp.Error))
	}
	return parseVectorTable(resp.Result)
}

// parseVectorTable extracts state vectors from the Horizons text output.
//
// Vector format (VEC_TABLE='2', no labels):
//
//	2451545.000000000 = A.D. 2000-Jan-01 12:00:00.0000 TDB
//	 -1.771351029111667E-01  9.672416861070360E-01 -4.092397303389240E-06
//	 -1.720200531786087E-02 -3.158592646071631E-03  1.061022085230370E-07
func parseVectorTable(result string) (*vectorTable, error) {
	// Find the data section between $$SOE and $$EOE markers
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("%w: could not find vector data markers", ErrNoData)
	}

	var (
		table   vectorTable
		cur     vectorRecord
		numbers int // vectors read for cur
		inRec   bool
	)
	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "=") && (strings.Contains(line, "A.D.") || strings.Contains(line, "B.C.")) {
			jde, err := strconv.ParseFloat(strings.Fields(line)[0], 64)
			if err != nil {
				return nil, fmt.Errorf("bad epoch line %q: %w", line, err)
			}
			cur = vectorRecord{jde: jde}
			numbers = 0
			inRec = true
			continue
		}
		if !inRec {
			continue
		}
		vec, err := parseVectorUnlabeled(line)
		if err != nil {
			return nil, fmt.Errorf("bad vector line %q: %w", line, err)
		}
		switch numbers {
		case 0:
			cur.pos = vec
		case 1:
			cur.vel = vec
			table.records = append(table.records, cur)
			inRec = false
		}
		numbers++
	}

	if len(table.records) < 2 {
		return nil, fmt.Errorf("%w: %d vectors returned", ErrNoData, len(table.records))
	}
	sort.Slice(table.records, func(i, j int) bool { return table.records[i].jde < table.records[j].jde })
	return &table, nil
}

// parseVectorUnlabeled parses: 1.23E+00  2.34E+00  3.45E-01
func parseVectorUnlabeled(line string) (r3.Vec, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return r3.Vec{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	var xyz [3]float64
	for i := range xyz {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return r3.Vec{}, err
		}
		xyz[i] = v
	}
	return r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// formatStepSize formats a duration as a Horizons step size.
func formatStepSize(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 && minutes%60 == 0 {
		hours := minutes / 60
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d m", minutes)
}

type vectorRecord struct {
	jde      float64
	pos, vel r3.Vec
}

// vectorTable holds state vectors sorted by time.
type vectorTable struct {
	records []vectorRecord
}

// Span returns the first and last ephemeris days covered.
func (t *vectorTable) Span() (first, last float64) {
	return t.records[0].jde, t.records[len(t.records)-1].jde
}

// at interpolates position and velocity with a cubic Hermite spline
// between the two records bracketing jde.
func (t *vectorTable) at(jde float64) (r3.Vec, r3.Vec, error) {
	first, last := t.Span()
	if jde < first || jde > last {
		return r3.Vec{}, r3.Vec{}, fmt.Errorf("%w: JDE %.5f outside %.5f..%.5f", ErrNoData, jde, first, last)
	}
	i := sort.Search(len(t.records), func(i int) bool { return t.records[i].jde >= jde })
	if i == 0 {
		i = 1
	}
	a, b := t.records[i-1], t.records[i]

	h := b.jde - a.jde
	s := (jde - a.jde) / h
	s2, s3 := s*s, s*s*s

	h00, h10 := 2*s3-3*s2+1, s3-2*s2+s
	h01, h11 := -2*s3+3*s2, s3-s2
	pos := r3.Add(
		r3.Add(r3.Scale(h00, a.pos), r3.Scale(h10*h, a.vel)),
		r3.Add(r3.Scale(h01, b.pos), r3.Scale(h11*h, b.vel)),
	)

	d00, d10 := 6*s2-6*s, 3*s2-4*s+1
	d01, d11 := -6*s2+6*s, 3*s2-2*s
	vel := r3.Add(
		r3.Add(r3.Scale(d00/h, a.pos), r3.Scale(d10, a.vel)),
		r3.Add(r3.Scale(d01/h, b.pos), r3.Scale(d11, b.vel)),
	)
	return pos, vel, nil
}

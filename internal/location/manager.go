package location

import "github.com/litescript/ls-sky/internal/logging"

// DefaultSite is used when no location is configured.
const DefaultSite = "47.6801,-122.121"

// Manager resolves location strings and remembers the last valid location.
type Manager struct {
	log     *logging.Logger
	current Location
}

// NewManager returns a manager positioned at DefaultSite.
func NewManager(log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{log: log, current: Parse(DefaultSite)}
}

// LocationForString parses s. Invalid input is logged and returned with
// Valid cleared; the current location is not changed.
func (m *Manager) LocationForString(s string) Location {
	loc, err := ParseLocation(s)
	if err != nil {
		m.log.Warn("%v", err)
		return Location{}
	}
	return loc
}

// Current returns the last location accepted by SetCurrent.
func (m *Manager) Current() Location {
	return m.current
}

// SetCurrent makes loc the current location. Invalid locations are ignored
// and reported as false.
func (m *Manager) SetCurrent(loc Location) bool {
	if !loc.Valid {
		m.log.Warn("ignoring invalid location")
		return false
	}
	m.current = loc
	return true
}

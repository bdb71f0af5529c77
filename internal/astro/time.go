package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// JDSecond is one second expressed in days.
	JDSecond = 1.0 / 86400

	// J2000 is the Julian Day of the J2000.0 epoch (2000-01-01 12:00 TT).
	J2000 = 2451545.0

	// UnixEpochJD is the Julian Day of 1970-01-01 00:00 UTC.
	UnixEpochJD = 2440587.5

	// MinJD and MaxJD bound the simulated clock. Outside this range the
	// Delta-T polynomials are meaningless.
	MinJD = -34803211.500012
	MaxJD = 38245309.499988

	// jdGregorianCalendar is the first day of the Gregorian calendar.
	jdGregorianCalendar = 2299161
)

// JDFromTime converts a wall clock instant to a UT Julian Day.
func JDFromTime(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// JDFromUnixMillis converts milliseconds since the Unix epoch to a UT Julian Day.
func JDFromUnixMillis(ms int64) float64 {
	return float64(ms)/1000*JDSecond + UnixEpochJD
}

// TimeFromJD converts a UT Julian Day to a wall clock instant. It reports
// false outside the four-digit years time.Time formats.
func TimeFromJD(jd float64) (time.Time, bool) {
	sec := (jd - UnixEpochJD) * 86400
	if sec < -62135596800 || sec > 253402300799 {
		return time.Time{}, false
	}
	whole := math.Floor(sec)
	return time.Unix(int64(whole), int64((sec-whole)*1e9)).UTC(), true
}

// ClampJD saturates jd into [MinJD, MaxJD].
func ClampJD(jd float64) float64 {
	return math.Max(MinJD, math.Min(MaxJD, jd))
}

// DateFromJD returns the calendar date containing jd. Dates before
// 1582-10-15 are proleptic Julian calendar dates. Negative Julian Days are
// handled by shifting whole centuries.
func DateFromJD(jd float64) (year, month, day int) {
	j := int64(math.Floor(jd + 0.5))

	var ta int64
	switch {
	case j >= jdGregorianCalendar:
		alpha := (4*(j-1867216) - 1) / 146097
		ta = j + 1 + alpha - alpha/4
	case j < 0:
		ta = j + 36525*(1-j/36525)
	default:
		ta = j
	}

	tb := ta + 1524
	tc := (tb*20 - 2442) / 7305
	td := 365*tc + tc/4
	te := ((tb - td) * 10000) / 306001

	day = int(tb - td - (306001*te)/10000)
	month = int(te - 1)
	if month > 12 {
		month -= 12
	}
	year = int(tc - 4715)
	if month > 2 {
		year--
	}
	if j < 0 {
		year -= int(100 * (1 - j/36525))
	}
	return year, month, day
}

// DecimalYear approximates a calendar date as a fractional year, using
// 30.5-day months over a 366-day year.
func DecimalYear(year, month, day int) float64 {
	return float64(year) + (float64(month-1)*30.5+float64(day)/31*30.5)/366
}

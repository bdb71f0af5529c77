//go:build skydebug

package invariant

const abortOnViolation = true

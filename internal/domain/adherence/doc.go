// Package adherence divides a client's coaching relationship into fixed 28-day
// periods and measures training adherence inside each one.
//
// Everything here is a pure function of its inputs: the client's join date and
// current frequency, the frequency-change history, manual period-start
// adjustments, the session list, and a single "now". Nothing is persisted or
// cached; callers re-run BuildPeriods whenever any input changes.
//
// Calendar dates are civil dates represented as UTC midnight (see Normalize),
// so period arithmetic never crosses a DST boundary.
package adherence

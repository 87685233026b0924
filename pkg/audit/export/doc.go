// Package export writes audit trails to interchange formats. Operators use
// these exports to answer, after the fact, why an agent was or was not
// permitted to act; the exporters never mutate the trail they read.
package export

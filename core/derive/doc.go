// Package derive turns raw instance entities into the normalized attributes
// consumed by the schedule builder: priority, tolerated delay, pairwise
// compatibility and effective power bounds. All functions are pure.
package derive

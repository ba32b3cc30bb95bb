// Package utils holds small generic helpers shared by the tracker packages.
//
// Functional Programming Utilities:
//   - Map, Filter, Reduce: Generic implementations for slice processing.
//
// Slices:
//   - Contains
//
// Time:
//   - Ago: human readable age of a timestamp.
package utils

import (
	"fmt"
	"time"
)

/* some Functional Programming in Go */

// Map applies f to every element of s.
func Map[S ~[]E, E any, R any](s S, f func(E) R) []R {
	result := make([]R, len(s))
	for i, e := range s {
		result[i] = f(e)
	}

	return result
}

// Filter keeps the elements of s for which f holds.
func Filter[S ~[]E, E any](s S, f func(E) bool) S {
	result := S{}
	for _, v := range s {
		if f(v) {
			result = append(result, v)
		}
	}

	return result
}

// Reduce folds s into one value starting from init.
func Reduce[E any](s []E, init E, f func(cur, next E) E) E {
	cur := init
	for _, v := range s {
		cur = f(cur, v)
	}

	return cur
}

// Contains reports whether val is in slice.
func Contains[E comparable](slice []E, val E) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}

	return false
}

// Ago renders how long ago t was, relative to now.
func Ago(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "unknown time"
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:

		return "just now"
	case diff < time.Hour:

		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:

		return fmt.Sprintf("%d hr ago", int(diff.Hours()))
	default:

		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}
}

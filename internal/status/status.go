// Package status holds the three-value task/project status and the rule that
// derives a project's status from the statuses of its tasks.
package status

import (
	"fmt"
	"strings"
)

type Status string

const (
	Pending    Status = "pending"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
)

// All lists the accepted values in lifecycle order.
var All = []Status{Pending, InProgress, Completed}

func (s Status) Valid() bool {
	return s == Pending || s == InProgress || s == Completed
}

func (s Status) String() string {
	return string(s)
}

// Parse normalises case and surrounding spaces before validating.
func Parse(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid status %q", v)
	}
	return s, nil
}

// Track is one of the two independent status dimensions carried by projects and tasks.
type Track string

const (
	Web   Track = "web"
	AS400 Track = "as400"
)

func (t Track) Valid() bool {
	return t == Web || t == AS400
}

// Column is the name of the status column for this track, identical on the
// projects and tasks tables.
func (t Track) Column() string {
	if t == AS400 {
		return "as400_status"
	}
	return "status"
}

// Aggregate derives a project track status from the task statuses of that track.
//
// An empty set is pending. If every task is completed the project is completed.
// Otherwise the project is in_progress only when at least one task is literally
// in_progress, so a mix of completed and pending tasks stays pending.
func Aggregate(tasks []Status) Status {
	if len(tasks) == 0 {
		return Pending
	}

	allCompleted := true
	for _, s := range tasks {
		if s != Completed {
			allCompleted = false
			break
		}
	}
	if allCompleted {
		return Completed
	}

	for _, s := range tasks {
		if s == InProgress {
			return InProgress
		}
	}
	return Pending
}

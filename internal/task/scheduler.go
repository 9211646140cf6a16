package task

import "sort"

// Weight is the numeric rank used as the primary sort key ahead of deadline.
func Weight(p Priority) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Compare orders a before b when a carries more urgency: higher priority
// weight first, earlier SLA deadline breaking ties.
func Compare(a, b *Task) bool {
	wa, wb := Weight(a.Priority), Weight(b.Priority)
	if wa != wb {
		return wa > wb
	}
	return a.SLADueAt < b.SLADueAt
}

// WorkerView orders tasks for the worker inbox: system-sourced tasks sorted by
// Compare come first, then user help requests sorted first-come-first-served
// by creation time, regardless of their priority weight.
//
// WorkerView and AdminView deliberately disagree on mixed collections; the two
// consumers have always displayed different orders and unifying them would
// silently change what either one shows.
func WorkerView(tasks []*Task) []*Task {
	var system, user []*Task
	for _, t := range tasks {
		if t.Source == SourceUser {
			user = append(user, t)
		} else {
			system = append(system, t)
		}
	}
	sort.SliceStable(system, func(i, j int) bool { return Compare(system[i], system[j]) })
	sort.SliceStable(user, func(i, j int) bool { return user[i].CreatedAt < user[j].CreatedAt })
	return append(system, user...)
}

// AdminView orders the whole collection by Compare with no source partition.
func AdminView(tasks []*Task) []*Task {
	sorted := make([]*Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool { return Compare(sorted[i], sorted[j]) })
	return sorted
}

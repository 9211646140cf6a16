package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_PriorityBeforeDeadline(t *testing.T) {
	high := &Task{ID: "h", Priority: PriorityHigh, SLADueAt: 9000}
	medium := &Task{ID: "m", Priority: PriorityMedium, SLADueAt: 1000}

	// Higher weight wins even with a later deadline
	assert.True(t, Compare(high, medium))
	assert.False(t, Compare(medium, high))
}

func TestCompare_DeadlineBreaksTies(t *testing.T) {
	early := &Task{ID: "e", Priority: PriorityHigh, SLADueAt: 1000}
	late := &Task{ID: "l", Priority: PriorityHigh, SLADueAt: 2000}

	assert.True(t, Compare(early, late))
	assert.False(t, Compare(late, early))
}

func TestWeight_UnknownPriorityRanksLow(t *testing.T) {
	assert.Equal(t, 3, Weight(PriorityHigh))
	assert.Equal(t, 2, Weight(PriorityMedium))
	assert.Equal(t, 1, Weight(PriorityLow))
	assert.Equal(t, 1, Weight(Priority("urgent")))
}

func TestDefaultTasks_SLAOffsets(t *testing.T) {
	const base = int64(1_000_000)
	tasks := DefaultTasks(base)
	require.Len(t, tasks, 3)

	assert.Equal(t, "t-1", tasks[0].ID)
	assert.Equal(t, base+15*60*1000, tasks[0].SLADueAt)
	assert.Equal(t, "t-2", tasks[1].ID)
	assert.Equal(t, base+35*60*1000, tasks[1].SLADueAt)
	assert.Equal(t, "t-3", tasks[2].ID)
	assert.Equal(t, base+60*60*1000, tasks[2].SLADueAt)

	for _, task := range tasks {
		assert.Equal(t, StatusPending, task.Status)
		assert.Equal(t, SourceSystem, task.Source)
		assert.Equal(t, base, task.CreatedAt)
		assert.Equal(t, base, task.UpdatedAt)
	}
}

func TestWorkerView_SystemBeforeUser(t *testing.T) {
	userUrgent := &Task{ID: "u-1", Priority: PriorityHigh, SLADueAt: 100, Source: SourceUser, CreatedAt: 50}
	userEarly := &Task{ID: "u-2", Priority: PriorityLow, SLADueAt: 9999, Source: SourceUser, CreatedAt: 10}
	sysLow := &Task{ID: "s-1", Priority: PriorityLow, SLADueAt: 500, Source: SourceSystem}
	sysHigh := &Task{ID: "s-2", Priority: PriorityHigh, SLADueAt: 800, Source: SourceSystem}

	ordered := WorkerView([]*Task{userUrgent, sysLow, userEarly, sysHigh})

	// System tasks by urgency first, then user tasks strictly FCFS: the
	// high-priority user request still queues behind the earlier one.
	ids := make([]string, 0, len(ordered))
	for _, task := range ordered {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"s-2", "s-1", "u-2", "u-1"}, ids)
}

func TestWorkerView_EmptySourceCountsAsSystem(t *testing.T) {
	untagged := &Task{ID: "legacy", Priority: PriorityMedium, SLADueAt: 100}
	user := &Task{ID: "u", Priority: PriorityHigh, SLADueAt: 1, Source: SourceUser, CreatedAt: 1}

	ordered := WorkerView([]*Task{user, untagged})
	require.Len(t, ordered, 2)
	assert.Equal(t, "legacy", ordered[0].ID)
	assert.Equal(t, "u", ordered[1].ID)
}

func TestAdminView_IgnoresSource(t *testing.T) {
	userUrgent := &Task{ID: "u-1", Priority: PriorityHigh, SLADueAt: 100, Source: SourceUser}
	sysMedium := &Task{ID: "s-1", Priority: PriorityMedium, SLADueAt: 50, Source: SourceSystem}
	sysHigh := &Task{ID: "s-2", Priority: PriorityHigh, SLADueAt: 200, Source: SourceSystem}

	input := []*Task{sysMedium, sysHigh, userUrgent}
	ordered := AdminView(input)

	ids := make([]string, 0, len(ordered))
	for _, task := range ordered {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"u-1", "s-2", "s-1"}, ids)

	// Input slice order is untouched
	assert.Equal(t, "s-1", input[0].ID)
}

func TestWorkerAndAdminViews_DisagreeOnMixedSets(t *testing.T) {
	sysLow := &Task{ID: "s", Priority: PriorityLow, SLADueAt: 100, Source: SourceSystem}
	userHigh := &Task{ID: "u", Priority: PriorityHigh, SLADueAt: 50, Source: SourceUser, CreatedAt: 1}

	worker := WorkerView([]*Task{sysLow, userHigh})
	admin := AdminView([]*Task{sysLow, userHigh})

	assert.Equal(t, "s", worker[0].ID)
	assert.Equal(t, "u", admin[0].ID)
}

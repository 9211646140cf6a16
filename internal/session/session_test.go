package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldsync/internal/outbox"
	outboxrepo "github.com/fieldops/fieldsync/internal/outbox/repositoryimpl"
	"github.com/fieldops/fieldsync/internal/session"
	"github.com/fieldops/fieldsync/internal/task"
	taskrepo "github.com/fieldops/fieldsync/internal/task/repositoryimpl"
	"github.com/fieldops/fieldsync/pkg/storage"
)

func newSessionContext(t *testing.T) (*session.Context, *task.Store, *outbox.Queue) {
	t.Helper()
	mem := storage.NewMemoryStorage()
	queue := outbox.NewQueue(outboxrepo.NewJSONRepository(mem), nil)
	store := task.NewStore(taskrepo.NewJSONRepository(mem), queue, nil)
	return session.NewContext(mem, store), store, queue
}

func TestContext_WorkerAbsentBeforeLogin(t *testing.T) {
	ctx := context.Background()
	sessions, _, _ := newSessionContext(t)

	worker, err := sessions.Worker(ctx)
	require.NoError(t, err)
	assert.Nil(t, worker)
}

func TestContext_LoginWorkerResetsStoreAndOutbox(t *testing.T) {
	ctx := context.Background()
	sessions, store, queue := newSessionContext(t)

	// Dirty the store and outbox before login
	require.NoError(t, store.SeedDefaults(ctx, 1_000_000))
	_, err := store.Assign(ctx, "t-1", "w-old")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, "t-3"))

	require.NoError(t, sessions.LoginWorker(ctx, session.WorkerAuth{WorkerID: "w-7", Name: "Asha"}, 2_000_000))

	worker, err := sessions.Worker(ctx)
	require.NoError(t, err)
	require.NotNil(t, worker)
	assert.Equal(t, "w-7", worker.WorkerID)
	assert.Equal(t, "Asha", worker.Name)

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, int64(2_000_000), tasks[0].CreatedAt)
	assert.Empty(t, tasks[0].AssignedTo)

	actions, err := queue.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestContext_LoginAdminDoesNotTouchStore(t *testing.T) {
	ctx := context.Background()
	sessions, store, _ := newSessionContext(t)

	require.NoError(t, store.SeedDefaults(ctx, 1_000_000))
	_, err := store.Assign(ctx, "t-1", "w-1")
	require.NoError(t, err)

	require.NoError(t, sessions.LoginAdmin(ctx, session.AdminAuth{AdminID: "adm-1", Name: "Ravi"}))

	admin, err := sessions.Admin(ctx)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, "adm-1", admin.AdminID)

	tasks, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "w-1", tasks[0].AssignedTo)
}

func TestContext_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	sessions, _, _ := newSessionContext(t)

	require.NoError(t, sessions.LoginWorker(ctx, session.WorkerAuth{WorkerID: "w-1", Name: "A"}, 1_000_000))
	require.NoError(t, sessions.LoginAdmin(ctx, session.AdminAuth{AdminID: "adm-1", Name: "B"}))

	require.NoError(t, sessions.LogoutWorker(ctx))

	worker, err := sessions.Worker(ctx)
	require.NoError(t, err)
	assert.Nil(t, worker)

	admin, err := sessions.Admin(ctx)
	require.NoError(t, err)
	assert.NotNil(t, admin)
}

func TestContext_LogoutWhenAbsentIsFine(t *testing.T) {
	ctx := context.Background()
	sessions, _, _ := newSessionContext(t)

	require.NoError(t, sessions.LogoutWorker(ctx))
	require.NoError(t, sessions.LogoutAdmin(ctx))
}

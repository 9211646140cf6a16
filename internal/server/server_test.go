package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldsync/internal/chat"
	chatrepo "github.com/fieldops/fieldsync/internal/chat/repositoryimpl"
	"github.com/fieldops/fieldsync/internal/config"
	"github.com/fieldops/fieldsync/internal/outbox"
	outboxrepo "github.com/fieldops/fieldsync/internal/outbox/repositoryimpl"
	"github.com/fieldops/fieldsync/internal/session"
	"github.com/fieldops/fieldsync/internal/syncengine"
	"github.com/fieldops/fieldsync/internal/task"
	taskrepo "github.com/fieldops/fieldsync/internal/task/repositoryimpl"
	"github.com/fieldops/fieldsync/pkg/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *task.Store) {
	t.Helper()
	mem := storage.NewMemoryStorage()
	queue := outbox.NewQueue(outboxrepo.NewJSONRepository(mem), nil)
	store := task.NewStore(taskrepo.NewJSONRepository(mem), queue, nil)
	chatSvc := chat.NewService(chatrepo.NewJSONRepository(mem), queue)
	sessions := session.NewContext(mem, store)
	engine := syncengine.New(queue, &syncengine.SimulatedTransport{})

	s := NewServer(&config.Env{}, store, queue, chatSvc, sessions, engine)
	ts := httptest.NewServer(s.handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestServer_ListTasksViews(t *testing.T) {
	ts, store := newTestServer(t)
	require.NoError(t, store.SeedDefaults(context.Background(), 1_000_000))

	var tasks []*task.Task
	status := getJSON(t, ts.URL+"/api/tasks?view=worker", &tasks)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, tasks, 3)
	assert.Equal(t, "t-1", tasks[0].ID)

	var errResp map[string]string
	status = getJSON(t, ts.URL+"/api/tasks?view=bogus", &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_argument", errResp["code"])
}

func TestServer_CreateAndCompleteTask(t *testing.T) {
	ts, store := newTestServer(t)

	var created task.Task
	status := postJSON(t, ts.URL+"/api/tasks",
		`{"title":"Fix fence","priority":"low","slaDueAt":2000000}`, &created)
	assert.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, task.StatusPending, created.Status)

	var done map[string]string
	status = postJSON(t, ts.URL+"/api/tasks/"+created.ID+"/complete", `{}`, &done)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", done["status"])

	tasks, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestServer_AssignUnknownTaskIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	var errResp map[string]string
	status := postJSON(t, ts.URL+"/api/tasks/t-missing/assign", `{"workerId":"w-1"}`, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errResp["code"])
}

func TestServer_MessageFlow(t *testing.T) {
	ts, store := newTestServer(t)
	require.NoError(t, store.SeedDefaults(context.Background(), 1_000_000))

	var msg chat.Message
	status := postJSON(t, ts.URL+"/api/tasks/t-1/messages",
		`{"role":"worker","text":"On my way"}`, &msg)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, chat.RoleWorker, msg.Role)

	var errResp map[string]string
	status = postJSON(t, ts.URL+"/api/tasks/t-1/messages", `{"role":"worker","text":""}`, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)

	var msgs []*chat.Message
	status = getJSON(t, ts.URL+"/api/tasks/t-1/messages", &msgs)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, msgs, 1)
	assert.Equal(t, "On my way", msgs[0].Text)
}

func TestServer_OutboxSyncEndpoint(t *testing.T) {
	ts, store := newTestServer(t)
	require.NoError(t, store.SeedDefaults(context.Background(), 1_000_000))

	var assigned task.Task
	status := postJSON(t, ts.URL+"/api/tasks/t-1/assign", `{"workerId":"w-1"}`, &assigned)
	require.Equal(t, http.StatusOK, status)

	var pending []json.RawMessage
	status = getJSON(t, ts.URL+"/api/outbox?unsynced=true", &pending)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, pending, 1)

	var result map[string]int
	status = postJSON(t, ts.URL+"/api/outbox/sync", `{}`, &result)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, result["delivered"])

	pending = nil
	getJSON(t, ts.URL+"/api/outbox?unsynced=true", &pending)
	assert.Empty(t, pending)
}

func TestServer_WorkerSessionLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	var errResp map[string]string
	status := getJSON(t, ts.URL+"/api/session/worker", &errResp)
	assert.Equal(t, http.StatusNotFound, status)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/session/worker",
		bytes.NewBufferString(`{"workerId":"w-7","name":"Asha"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var auth session.WorkerAuth
	status = getJSON(t, ts.URL+"/api/session/worker", &auth)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "w-7", auth.WorkerID)

	// Login reseeds the default tasks
	var tasks []*task.Task
	getJSON(t, ts.URL+"/api/tasks", &tasks)
	assert.Len(t, tasks, 3)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/session/worker", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

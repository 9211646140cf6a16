package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fieldops/fieldsync/internal/task"
	"github.com/fieldops/fieldsync/pkg/cerr"
	"github.com/fieldops/fieldsync/pkg/storage"
)

// Storage keys for the session records, kept identical to the legacy layout.
const (
	WorkerAuthKey = "worker_auth"
	AdminAuthKey  = "admin_auth"
)

// WorkerAuth identifies the current field worker. This is plain session data
// supplied by an external authentication collaborator; no credential checking
// happens here.
type WorkerAuth struct {
	WorkerID string `json:"workerId"`
	Name     string `json:"name"`
}

// AdminAuth identifies the current dispatcher.
type AdminAuth struct {
	AdminID string `json:"adminId"`
	Name    string `json:"name"`
}

// Context reads and writes the actor records and drives the session reset
// that a fresh worker login implies.
type Context struct {
	storage storage.Storage
	store   *task.Store
}

func NewContext(s storage.Storage, store *task.Store) *Context {
	return &Context{storage: s, store: store}
}

// Worker returns the current worker record, or (nil, nil) when logged out.
func (c *Context) Worker(ctx context.Context) (*WorkerAuth, error) {
	var auth WorkerAuth
	ok, err := c.read(ctx, WorkerAuthKey, &auth)
	if err != nil || !ok {
		return nil, err
	}
	return &auth, nil
}

// Admin returns the current admin record, or (nil, nil) when logged out.
func (c *Context) Admin(ctx context.Context) (*AdminAuth, error) {
	var auth AdminAuth
	ok, err := c.read(ctx, AdminAuthKey, &auth)
	if err != nil || !ok {
		return nil, err
	}
	return &auth, nil
}

// LoginWorker stores the worker record and resets the task store for the new
// session: defaults reseeded from baseTime, outbox wiped.
func (c *Context) LoginWorker(ctx context.Context, auth WorkerAuth, baseTime int64) error {
	if err := c.write(ctx, WorkerAuthKey, auth); err != nil {
		return err
	}
	return c.store.ResetForLogin(ctx, baseTime)
}

// LoginAdmin stores the admin record. Admin logins do not reset the store.
func (c *Context) LoginAdmin(ctx context.Context, auth AdminAuth) error {
	return c.write(ctx, AdminAuthKey, auth)
}

// LogoutWorker removes the worker record. Absence is not an error.
func (c *Context) LogoutWorker(ctx context.Context) error {
	return c.delete(ctx, WorkerAuthKey)
}

// LogoutAdmin removes the admin record. Absence is not an error.
func (c *Context) LogoutAdmin(ctx context.Context) error {
	return c.delete(ctx, AdminAuthKey)
}

func (c *Context) read(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.storage.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, cerr.WrapStorageReadError("session", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Context) write(ctx context.Context, key string, auth any) error {
	data, err := json.Marshal(auth)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", err)
	}
	if err := c.storage.Write(ctx, key, data); err != nil {
		return cerr.WrapStorageWriteError("session", err)
	}
	return nil
}

func (c *Context) delete(ctx context.Context, key string) error {
	if err := c.storage.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return cerr.WrapStorageDeleteError("session", err)
	}
	return nil
}

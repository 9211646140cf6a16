package clog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributesHandler_FoldsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := ContextWithSlog(context.Background())
	AddAttribute(ctx, "task_id", "t-1")
	AddAttributes(ctx, map[string]any{"method": "POST", "path": "/api/tasks"})

	logger.InfoContext(ctx, "created")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "created", record["msg"])
	assert.Equal(t, "t-1", record["task_id"])
	assert.Equal(t, "POST", record["method"])
	assert.Equal(t, "/api/tasks", record["path"])
}

func TestAttributesHandler_PlainContextPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewAttributesHandler(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "no request scope")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "no request scope", record["msg"])
	assert.NotContains(t, record, "task_id")
}

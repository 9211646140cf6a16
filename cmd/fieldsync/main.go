package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

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

var (
	app = kingpin.New("fieldsync", "Offline-first task synchronization for field operations")

	seedCmd  = app.Command("seed", "Seed the default task set if the store is empty")
	seedTime = seedCmd.Flag("base-time", "Base time in epoch milliseconds (default: now)").Int64()

	listCmd  = app.Command("list", "List tasks")
	listView = listCmd.Flag("view", "Ordering: worker, admin, or raw insertion order").Default("").Enum("", "worker", "admin")

	createCmd      = app.Command("create", "Create a new task")
	createTitle    = createCmd.Arg("title", "Task title").Required().String()
	createDesc     = createCmd.Flag("desc", "Task description").String()
	createPriority = createCmd.Flag("priority", "Task priority").Default("medium").Enum("high", "medium", "low")
	createSLA      = createCmd.Flag("sla", "SLA deadline as duration from now").Default("30m").Duration()
	createLocName  = createCmd.Flag("loc", "Location name").Default("User Location").String()
	createLat      = createCmd.Flag("lat", "Latitude").Float64()
	createLng      = createCmd.Flag("lng", "Longitude").Float64()

	assignCmd    = app.Command("assign", "Assign a task to a worker")
	assignID     = assignCmd.Arg("id", "Task ID").Required().String()
	assignWorker = assignCmd.Arg("worker", "Worker ID").Required().String()

	statusCmd    = app.Command("status", "Update task status")
	statusID     = statusCmd.Arg("id", "Task ID").Required().String()
	statusStatus = statusCmd.Arg("status", "New status").Required().Enum("pending", "in_progress", "blocked")

	completeCmd = app.Command("complete", "Complete a task (removes it from the store)")
	completeID  = completeCmd.Arg("id", "Task ID").Required().String()

	msgCmd  = app.Command("msg", "Send a chat message on a task")
	msgID   = msgCmd.Arg("id", "Task ID").Required().String()
	msgRole = msgCmd.Flag("role", "Author role").Default("worker").Enum("worker", "admin")
	msgText = msgCmd.Arg("text", "Message text").Required().String()

	chatCmd = app.Command("chat", "Show a task's chat log")
	chatID  = chatCmd.Arg("id", "Task ID").Required().String()

	outboxCmd      = app.Command("outbox", "Show the outbox log")
	outboxUnsynced = outboxCmd.Flag("unsynced", "Only unconfirmed entries").Bool()

	syncCmd = app.Command("sync", "Run one sync sweep now")

	loginCmd  = app.Command("login", "Start a worker session (reseeds the store, wipes the outbox)")
	loginID   = loginCmd.Arg("worker", "Worker ID").Required().String()
	loginName = loginCmd.Arg("name", "Worker name").Required().String()

	logoutCmd = app.Command("logout", "End the worker session")
)

type env struct {
	store    storage.Storage
	taskSvc  *task.Store
	queue    *outbox.Queue
	chatSvc  *chat.Service
	sessions *session.Context
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	var store storage.Storage
	switch cfg.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(ctx, cfg.StorageEnv.S3Bucket, cfg.StorageEnv.S3Prefix, cfg.StorageEnv.S3Region)
	case "sqlite":
		store, err = storage.NewSQLiteStorage(ctx, cfg.StorageEnv.SQLitePath)
	default:
		store, err = storage.NewLocalStorage(cfg.StorageEnv.BaseDir)
	}
	if err != nil {
		return nil, err
	}
	queue := outbox.NewQueue(outboxrepo.NewJSONRepository(store), nil)
	taskSvc := task.NewStore(taskrepo.NewJSONRepository(store), queue, nil)
	return &env{
		store:    store,
		taskSvc:  taskSvc,
		queue:    queue,
		chatSvc:  chat.NewService(chatrepo.NewJSONRepository(store), queue),
		sessions: session.NewContext(store, taskSvc),
	}, nil
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	ctx := context.Background()

	e, err := setup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case seedCmd.FullCommand():
		err = handleSeed(ctx, e)
	case listCmd.FullCommand():
		err = handleList(ctx, e)
	case createCmd.FullCommand():
		err = handleCreate(ctx, e)
	case assignCmd.FullCommand():
		err = handleAssign(ctx, e)
	case statusCmd.FullCommand():
		err = handleStatus(ctx, e)
	case completeCmd.FullCommand():
		err = handleComplete(ctx, e)
	case msgCmd.FullCommand():
		err = handleMsg(ctx, e)
	case chatCmd.FullCommand():
		err = handleChat(ctx, e)
	case outboxCmd.FullCommand():
		err = handleOutbox(ctx, e)
	case syncCmd.FullCommand():
		err = handleSync(ctx, e)
	case loginCmd.FullCommand():
		err = e.sessions.LoginWorker(ctx, session.WorkerAuth{WorkerID: *loginID, Name: *loginName}, time.Now().UnixMilli())
	case logoutCmd.FullCommand():
		err = e.sessions.LogoutWorker(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleSeed(ctx context.Context, e *env) error {
	base := *seedTime
	if base == 0 {
		base = time.Now().UnixMilli()
	}
	return e.taskSvc.SeedDefaults(ctx, base)
}

func priorityColor(p task.Priority) *color.Color {
	switch p {
	case task.PriorityHigh:
		return color.New(color.FgRed, color.Bold)
	case task.PriorityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func handleList(ctx context.Context, e *env) error {
	tasks, err := e.taskSvc.List(ctx)
	if err != nil {
		return err
	}
	switch *listView {
	case "worker":
		tasks = task.WorkerView(tasks)
	case "admin":
		tasks = task.AdminView(tasks)
	}
	for _, t := range tasks {
		due := time.UnixMilli(t.SLADueAt).Format(time.RFC3339)
		prio := priorityColor(t.Priority).Sprintf("%-6s", t.Priority)
		assigned := t.AssignedTo
		if assigned == "" {
			assigned = "-"
		}
		fmt.Printf("%s  %s  %-11s  due %s  @%s  %s\n", t.ID, prio, t.Status, due, assigned, t.Title)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks")
	}
	return nil
}

func handleCreate(ctx context.Context, e *env) error {
	created, err := e.taskSvc.Create(ctx, task.CreateInput{
		Title:       *createTitle,
		Description: *createDesc,
		Priority:    task.Priority(*createPriority),
		SLADueAt:    time.Now().Add(*createSLA).UnixMilli(),
		Location:    task.Location{Name: *createLocName, Lat: *createLat, Lng: *createLng},
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", created.ID)
	return nil
}

func handleAssign(ctx context.Context, e *env) error {
	assigned, err := e.taskSvc.Assign(ctx, *assignID, *assignWorker)
	if err != nil {
		return err
	}
	if assigned == nil {
		return fmt.Errorf("task %s not found", *assignID)
	}
	fmt.Printf("Assigned %s to %s\n", assigned.ID, assigned.AssignedTo)
	return nil
}

func handleStatus(ctx context.Context, e *env) error {
	updated, err := e.taskSvc.UpdateStatus(ctx, *statusID, task.Status(*statusStatus))
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("task %s not found", *statusID)
	}
	fmt.Printf("%s is now %s\n", updated.ID, updated.Status)
	return nil
}

func handleComplete(ctx context.Context, e *env) error {
	if err := e.taskSvc.Complete(ctx, *completeID); err != nil {
		return err
	}
	fmt.Printf("Completed %s\n", *completeID)
	return nil
}

func handleMsg(ctx context.Context, e *env) error {
	msg, err := e.chatSvc.Send(ctx, *msgID, chat.Role(*msgRole), *msgText)
	if err != nil {
		return err
	}
	fmt.Printf("Sent %s\n", msg.ID)
	return nil
}

func handleChat(ctx context.Context, e *env) error {
	msgs, err := e.chatSvc.Messages(ctx, *chatID)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		at := time.UnixMilli(m.At).Format(time.Kitchen)
		fmt.Printf("[%s] %s: %s\n", at, m.Role, m.Text)
	}
	if len(msgs) == 0 {
		fmt.Println("No messages")
	}
	return nil
}

func handleOutbox(ctx context.Context, e *env) error {
	var (
		actions []*outbox.Action
		err     error
	)
	if *outboxUnsynced {
		actions, err = e.queue.DrainUnsynced(ctx)
	} else {
		actions, err = e.queue.All(ctx)
	}
	if err != nil {
		return err
	}
	for _, a := range actions {
		state := "unsynced"
		if a.Synced() {
			state = "synced"
		}
		fmt.Printf("%s  %-13s  %s  %s\n", a.ID, a.Type, a.TaskID, state)
	}
	if len(actions) == 0 {
		fmt.Println("Outbox empty")
	}
	return nil
}

func handleSync(ctx context.Context, e *env) error {
	engine := syncengine.New(e.queue, &syncengine.SimulatedTransport{})
	delivered, err := engine.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d actions\n", delivered)
	return nil
}

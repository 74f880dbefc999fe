package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Osdague92/fullstack-docker/domain"
	"github.com/Osdague92/fullstack-docker/pkg/api"
	"github.com/Osdague92/fullstack-docker/pkg/client"
	"github.com/Osdague92/fullstack-docker/pkg/repo/memdb"
	"github.com/Osdague92/fullstack-docker/pkg/view"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	db       *memdb.MemDB
	opt      Options
	out, err *bytes.Buffer
}

func newEnv(t *testing.T, seed ...domain.Item) *env {
	t.Helper()
	db := memdb.New(seed...)
	srv := httptest.NewServer(api.New(db, zerolog.Nop()).Router())
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL+api.BasePath, srv.Client())
	require.NoError(t, err)

	e := &env{db: db, out: &bytes.Buffer{}, err: &bytes.Buffer{}}
	e.opt = Options{Client: c, Logger: zerolog.Nop(), Out: e.out, Err: e.err}
	return e
}

func (e *env) run(args ...string) int {
	return Run(context.Background(), args, e.opt)
}

func (e *env) items(t *testing.T) []domain.Item {
	t.Helper()
	items, err := e.db.Items(context.Background())
	require.NoError(t, err)
	return items
}

func TestRun_Usage(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, 2, e.run())
	assert.Equal(t, 0, e.run("help"))
	assert.Contains(t, e.out.String(), "Subcommands:")

	assert.Equal(t, 2, e.run("frobnicate"))
	assert.Contains(t, e.err.String(), "unknown subcommand: frobnicate")

	assert.Equal(t, 2, e.run("get"))
	assert.Equal(t, 2, e.run("add", "only-name"))
	assert.Equal(t, 2, e.run("edit", "id", "name"))
	assert.Equal(t, 2, e.run("rm"))
}

func TestRun_AddListEditRemove(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, 0, e.run("ls"))
	assert.Contains(t, e.out.String(), "No items to show")

	require.Equal(t, 0, e.run("add", "Pen", "Blue", "ink", "pen"), e.err.String())
	items := e.items(t)
	require.Len(t, items, 1)
	assert.Equal(t, "Blue ink pen", items[0].Description)
	id := items[0].ID

	e.out.Reset()
	assert.Equal(t, 0, e.run("ls"))
	assert.Contains(t, e.out.String(), "Pen")
	assert.Contains(t, e.out.String(), id)

	e.out.Reset()
	assert.Equal(t, 0, e.run("edit", id, "Pen", "Black ink pen"))
	assert.Contains(t, e.out.String(), domain.MsgItemUpdated)

	e.out.Reset()
	assert.Equal(t, 0, e.run("edit", id, "Pen", "Black ink pen"))
	assert.Contains(t, e.out.String(), domain.MsgItemNoChange)

	e.out.Reset()
	assert.Equal(t, 0, e.run("get", id))
	assert.Contains(t, e.out.String(), "Black ink pen")

	assert.Equal(t, 0, e.run("rm", "-y", id))
	assert.Empty(t, e.items(t))

	e.err.Reset()
	assert.Equal(t, 1, e.run("get", id))
	assert.Contains(t, e.err.String(), "item not found")
}

func TestRun_ClientSideValidation(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, 2, e.run("add", "P", strings.Repeat("d", 201)))
	assert.Contains(t, e.err.String(), "name is too short")
	assert.Contains(t, e.err.String(), "description is too long")
	assert.Empty(t, e.items(t))
}

func TestRun_RemoveConfirmation(t *testing.T) {
	seed := domain.Item{Name: "Pen", Description: "Blue ink pen"}
	e := newEnv(t, seed)
	id := e.items(t)[0].ID

	e.opt.In = strings.NewReader("n\n")
	assert.Equal(t, 0, e.run("rm", id))
	assert.Contains(t, e.out.String(), "cancelled")
	assert.Len(t, e.items(t), 1)

	e.opt.In = strings.NewReader("y\n")
	assert.Equal(t, 0, e.run("rm", id))
	assert.Empty(t, e.items(t))

	assert.Equal(t, 1, e.run("rm", "--yes", id))
}

func TestRun_TUI(t *testing.T) {
	e := newEnv(t)

	var called bool
	e.opt.RunTUI = func(svc view.Service, _ zerolog.Logger) error {
		called = svc != nil
		return nil
	}
	assert.Equal(t, 0, e.run("tui"))
	assert.True(t, called)

	e.opt.RunTUI = func(view.Service, zerolog.Logger) error { return errors.New("no tty") }
	assert.Equal(t, 1, e.run("tui"))
	assert.Contains(t, e.err.String(), "no tty")
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Osdague92/fullstack-docker/domain"
	"github.com/Osdague92/fullstack-docker/pkg/view"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// Client операции API, которые использует CLI.
type Client interface {
	view.Service
	Item(ctx context.Context, id string) (domain.Item, error)
}

// Options зависимости запуска.
type Options struct {
	Client Client
	Logger zerolog.Logger
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	// RunTUI запускает интерактивный режим, по умолчанию view.Run.
	RunTUI func(view.Service, zerolog.Logger) error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

type runner struct {
	opt Options
	ctx context.Context
}

// Run выполняет подкоманду и возвращает код выхода:
// 0 успех, 1 ошибка, 2 неверный вызов.
func Run(ctx context.Context, args []string, opt Options) int {
	r := runner{opt: opt, ctx: ctx}
	if r.opt.RunTUI == nil {
		r.opt.RunTUI = view.Run
	}
	if r.opt.In == nil {
		r.opt.In = strings.NewReader("")
	}

	if len(args) == 0 {
		PrintHelp(opt.Out)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Out)
		return 0

	case "ls":
		return r.doList()

	case "get":
		if len(a) != 1 {
			r.fail("usage: itemctl get <id>")
			return 2
		}
		return r.doGet(a[0])

	case "add":
		if len(a) < 2 {
			r.fail("usage: itemctl add <name> <description...>")
			return 2
		}
		return r.doAdd(a[0], strings.Join(a[1:], " "))

	case "edit":
		if len(a) < 3 {
			r.fail("usage: itemctl edit <id> <name> <description...>")
			return 2
		}
		return r.doEdit(a[0], a[1], strings.Join(a[2:], " "))

	case "rm":
		yes := false
		var rest []string
		for _, s := range a {
			if s == "-y" || s == "--yes" {
				yes = true
				continue
			}
			rest = append(rest, s)
		}
		if len(rest) != 1 {
			r.fail("usage: itemctl rm [-y] <id>")
			return 2
		}
		return r.doRemove(rest[0], yes)

	case "tui":
		if err := r.opt.RunTUI(r.opt.Client, r.opt.Logger); err != nil {
			r.fail("tui: " + err.Error())
			return 1
		}
		return 0
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(opt.Err)
	PrintHelp(opt.Out)
	return 2
}

// PrintHelp печатает справку по подкомандам.
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `itemctl - client for the items REST API

Usage:
  itemctl <subcommand> [args]

Subcommands:
  ls                                List items
  get <id>                          Show one item
  add <name> <description...>       Create an item
  edit <id> <name> <description...> Replace name and description of an item
  rm [-y] <id>                      Delete an item (asks for confirmation without -y)
  tui                               Interactive list and form

Environment:
  ITEMS_API_URL     base URL of the items resource (default http://localhost:5000/api/items)
  ITEMCTL_LOG_FILE  file for error details (default: discarded)

Examples:
  itemctl add Pen "Blue ink pen"
  itemctl ls
  itemctl edit 65f0c0ffee0123456789abcd Pen "Black ink pen"
  itemctl rm 65f0c0ffee0123456789abcd
`)
}

func (r runner) ok(msg string) {
	fmt.Fprintln(r.opt.Out, successStyle.Render("✔ "+msg))
}

func (r runner) fail(msg string) {
	fmt.Fprintln(r.opt.Err, errorStyle.Render("✖ "+msg))
}

// apiFailed сообщает об ошибке API без подробностей, детали уходят в лог.
func (r runner) apiFailed(op string, err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		r.fail(op + ": item not found")
		return 1
	}
	r.opt.Logger.Error().Err(err).Str("op", op).Msg("items api call failed")
	r.fail(op + ": request failed, see log for details")
	return 1
}

// validate применяет к аргументам правила формы.
func (r runner) validate(name, description string) (domain.ItemInput, bool) {
	in := view.FormInput{Name: name, Description: description}
	errs := in.Validate()
	if errs == nil {
		return domain.ItemInput{Name: name, Description: description}, true
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.fail(errs[k])
	}
	return domain.ItemInput{}, false
}

func (r runner) doList() int {
	items, err := r.opt.Client.Items(r.ctx)
	if err != nil {
		return r.apiFailed("ls", err)
	}

	lines := []string{fmt.Sprintf("%s  %d", titleStyle.Render("Items"), len(items)), ""}
	if len(items) == 0 {
		lines = append(lines, mutedStyle.Render("No items to show. Create one with `itemctl add`."))
	}
	for _, it := range items {
		lines = append(lines, itemLines(it)...)
	}
	fmt.Fprintln(r.opt.Out, panelStyle.Render(strings.Join(lines, "\n")))
	return 0
}

func (r runner) doGet(id string) int {
	it, err := r.opt.Client.Item(r.ctx, id)
	if err != nil {
		return r.apiFailed("get", err)
	}
	fmt.Fprintln(r.opt.Out, panelStyle.Render(strings.Join(itemLines(it), "\n")))
	return 0
}

func (r runner) doAdd(name, description string) int {
	in, ok := r.validate(name, description)
	if !ok {
		return 2
	}
	it, err := r.opt.Client.CreateItem(r.ctx, in)
	if err != nil {
		return r.apiFailed("add", err)
	}
	r.ok("created " + it.ID)
	return 0
}

func (r runner) doEdit(id, name, description string) int {
	in, ok := r.validate(name, description)
	if !ok {
		return 2
	}
	msg, err := r.opt.Client.ReplaceItem(r.ctx, id, in)
	if err != nil {
		return r.apiFailed("edit", err)
	}
	r.ok(msg)
	return 0
}

func (r runner) doRemove(id string, yes bool) int {
	if !yes {
		fmt.Fprintf(r.opt.Out, "Delete item %s? [y/N] ", id)
		answer, _ := bufio.NewReader(r.opt.In).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(r.opt.Out, mutedStyle.Render("cancelled"))
			return 0
		}
	}
	msg, err := r.opt.Client.DeleteItem(r.ctx, id)
	if err != nil {
		return r.apiFailed("rm", err)
	}
	r.ok(msg)
	return 0
}

func itemLines(it domain.Item) []string {
	return []string{
		titleStyle.Render(it.Name) + " " + mutedStyle.Render(it.ID),
		"  " + it.Description,
	}
}

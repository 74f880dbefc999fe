// Пакет view консольный интерфейс к REST API items:
// список объектов и форма создания/редактирования.
package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/Osdague92/fullstack-docker/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// Service операции API, которые нужны интерфейсу.
// *client.Client ему соответствует.
type Service interface {
	Items(ctx context.Context) ([]domain.Item, error)
	CreateItem(ctx context.Context, in domain.ItemInput) (domain.Item, error)
	ReplaceItem(ctx context.Context, id string, in domain.ItemInput) (string, error)
	DeleteItem(ctx context.Context, id string) (string, error)
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirm
)

type (
	itemsLoadedMsg struct {
		refresh int
		items   []domain.Item
	}
	itemsFailedMsg struct {
		refresh int
		err     error
	}
	savedMsg struct {
		message string
	}
	saveFailedMsg struct {
		err error
	}
	deletedMsg struct {
		message string
	}
	deleteFailedMsg struct {
		err error
	}
)

// listItem адаптирует domain.Item к bubbles/list.
type listItem struct {
	item domain.Item
}

func (i listItem) Title() string       { return i.item.Name }
func (i listItem) Description() string { return i.item.Description }
func (i listItem) FilterValue() string { return i.item.Name }

var (
	addKey     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editKey    = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	deleteKey  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
)

// Model корневая модель Bubble Tea. Между списком и формой
// передаются только объект для редактирования и счетчик обновлений.
type Model struct {
	svc    Service
	logger zerolog.Logger

	mode    mode
	refresh int
	loading bool
	loadErr error
	list    list.Model
	form    form

	pendingDelete *domain.Item
	status        string
	statusErr     bool
}

// New возвращает модель в состоянии загрузки.
func New(svc Service, logger zerolog.Logger) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Items"
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("item", "items")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{addKey, editKey, deleteKey, refreshKey}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{
		svc:     svc,
		logger:  logger.With().Str("component", "view").Logger(),
		loading: true,
		list:    l,
		form:    newForm(),
	}
}

// Run запускает интерфейс до выхода пользователя.
func Run(svc Service, logger zerolog.Logger) error {
	_, err := tea.NewProgram(New(svc, logger), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return m.fetch() }

// fetch загружает список для текущего значения счетчика.
func (m Model) fetch() tea.Cmd {
	svc, refresh := m.svc, m.refresh
	return func() tea.Msg {
		items, err := svc.Items(context.Background())
		if err != nil {
			return itemsFailedMsg{refresh: refresh, err: err}
		}
		return itemsLoadedMsg{refresh: refresh, items: items}
	}
}

// bumpRefresh увеличивает счетчик, список перезагружается.
func (m *Model) bumpRefresh() tea.Cmd {
	m.refresh++
	m.loading = true
	m.loadErr = nil
	return m.fetch()
}

func (m Model) save(in FormInput, target *domain.Item) tea.Cmd {
	svc := m.svc
	body := domain.ItemInput{Name: in.Name, Description: in.Description}
	return func() tea.Msg {
		if target != nil {
			msg, err := svc.ReplaceItem(context.Background(), target.ID, body)
			if err != nil {
				return saveFailedMsg{err: err}
			}
			return savedMsg{message: msg}
		}
		it, err := svc.CreateItem(context.Background(), body)
		if err != nil {
			return saveFailedMsg{err: err}
		}
		return savedMsg{message: fmt.Sprintf("item %q created", it.Name)}
	}
}

func (m Model) remove(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		msg, err := svc.DeleteItem(context.Background(), id)
		if err != nil {
			return deleteFailedMsg{err: err}
		}
		return deletedMsg{message: msg}
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m Model) selected() (domain.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	return li.item, ok
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case itemsLoadedMsg:
		if msg.refresh != m.refresh {
			return m, nil // ответ на устаревший запрос
		}
		m.loading, m.loadErr = false, nil
		li := make([]list.Item, 0, len(msg.items))
		for _, it := range msg.items {
			li = append(li, listItem{item: it})
		}
		return m, m.list.SetItems(li)

	case itemsFailedMsg:
		if msg.refresh != m.refresh {
			return m, nil
		}
		m.loading, m.loadErr = false, msg.err
		m.logger.Error().Err(msg.err).Msg("failed to load items")
		return m, nil

	case savedMsg:
		m.form = newForm()
		m.mode = modeList
		m.setStatus(msg.message, false)
		return m, m.bumpRefresh()

	case saveFailedMsg:
		m.form.submitting = false
		m.form.err = errSaveFailed
		m.logger.Error().Err(msg.err).Msg("failed to save item")
		return m, nil

	case deletedMsg:
		m.setStatus(msg.message, false)
		return m, m.bumpRefresh()

	case deleteFailedMsg:
		m.setStatus("Error deleting the item. Check the log for details.", true)
		m.logger.Error().Err(msg.err).Msg("failed to delete item")
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	var cmd tea.Cmd
	if m.mode == modeForm {
		m.form, cmd = m.form.update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, addKey):
		m.form = newForm()
		m.mode = modeForm
		m.setStatus("", false)
		return m, m.form.focusField(fieldName)
	case key.Matches(msg, editKey):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.form = m.form.edit(it)
		m.mode = modeForm
		m.setStatus("", false)
		return m, m.form.focusField(fieldName)
	case key.Matches(msg, deleteKey):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.pendingDelete = &it
		m.mode = modeConfirm
		return m, nil
	case key.Matches(msg, refreshKey):
		return m, m.bumpRefresh()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		it := m.pendingDelete
		m.pendingDelete = nil
		m.mode = modeList
		if it == nil {
			return m, nil
		}
		return m, m.remove(it.ID)
	case "n", "esc":
		m.pendingDelete = nil
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form = newForm()
		m.mode = modeList
		return m, nil
	case "tab", "down":
		return m, m.form.focusField(m.form.focus + 1)
	case "shift+tab", "up":
		return m, m.form.focusField(m.form.focus - 1)
	case "enter":
		if m.form.submitting {
			return m, nil
		}
		if m.form.focus == fieldName {
			return m, m.form.focusField(fieldDescription)
		}
		in := m.form.values()
		if errs := in.Validate(); errs != nil {
			m.form.fieldErrs = errs
			return m, nil
		}
		m.form.fieldErrs = nil
		m.form.err = ""
		m.form.submitting = true
		return m, m.save(in, m.form.target)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	switch m.mode {
	case modeForm:
		b.WriteString(m.form.view())
	default:
		b.WriteString(m.listView())
		if m.mode == modeConfirm && m.pendingDelete != nil {
			b.WriteString("\n" + warnStyle.Render(
				fmt.Sprintf("Delete %q? (y/n)", m.pendingDelete.Name)))
		}
	}

	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status))
	}
	return panelStyle.Render(b.String())
}

// listView отдельно показывает загрузку, ошибку и пустой список.
func (m Model) listView() string {
	switch {
	case m.loading:
		return mutedStyle.Render("Loading items...")
	case m.loadErr != nil:
		return errorStyle.Render("Error loading items. Press r to try again.") + "\n" +
			helpStyle.Render("q quit")
	case len(m.list.Items()) == 0:
		return mutedStyle.Render("No items to show. ") + accentStyle.Render("Press a to create one.") + "\n" +
			helpStyle.Render("a add • r refresh • q quit")
	}
	return m.list.View()
}

package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Osdague92/fullstack-docker/domain"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
)

// Ограничения формы строже серверных: сервер проверяет
// только наличие полей.
const (
	NameMinLen        = 2
	NameMaxLen        = 50
	DescriptionMaxLen = 200
)

// FormInput значения формы до отправки.
type FormInput struct {
	Name        string
	Description string
}

var formValidate = newFormValidator()

// правила собираются из констант выше, их же показывают подсказки формы
func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidationMapRules(map[string]string{
		"Name":        fmt.Sprintf("required,min=%d,max=%d", NameMinLen, NameMaxLen),
		"Description": fmt.Sprintf("required,max=%d", DescriptionMaxLen),
	}, FormInput{})
	return v
}

// Validate возвращает сообщения об ошибках по полям
// ("name", "description") или nil.
func (in FormInput) Validate() map[string]string {
	err := formValidate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.StructField())
		switch fe.Tag() {
		case "required":
			out[field] = field + " is required"
		case "min":
			out[field] = field + " is too short"
		case "max":
			out[field] = field + " is too long"
		default:
			out[field] = field + " is invalid"
		}
	}
	return out
}

const (
	fieldName = iota
	fieldDescription
)

const errSaveFailed = "Error saving the item. Check the log for details."

// form экран создания и редактирования. target задан,
// когда редактируется существующий объект.
type form struct {
	inputs     [2]textinput.Model
	focus      int
	target     *domain.Item
	fieldErrs  map[string]string
	err        string
	submitting bool
}

func newForm() form {
	var f form

	name := textinput.New()
	name.Prompt = "> "
	name.Placeholder = fmt.Sprintf("Item name (%d-%d chars)", NameMinLen, NameMaxLen)

	desc := textinput.New()
	desc.Prompt = "> "
	desc.Placeholder = fmt.Sprintf("What is it? (up to %d chars)", DescriptionMaxLen)

	f.inputs = [2]textinput.Model{name, desc}
	return f
}

// edit заполняет форму значениями объекта.
func (f form) edit(it domain.Item) form {
	f = newForm()
	f.inputs[fieldName].SetValue(it.Name)
	f.inputs[fieldDescription].SetValue(it.Description)
	f.target = &it
	return f
}

func (f form) editing() bool { return f.target != nil }

func (f form) values() FormInput {
	return FormInput{
		Name:        f.inputs[fieldName].Value(),
		Description: f.inputs[fieldDescription].Value(),
	}
}

func (f *form) focusField(i int) tea.Cmd {
	if i < 0 {
		i = len(f.inputs) - 1
	}
	f.focus = i % len(f.inputs)
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.inputs[f.focus].CursorEnd()
	return f.inputs[f.focus].Focus()
}

func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f form) view() string {
	var b strings.Builder

	title := "Create new item"
	if f.editing() {
		title = "Edit item"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	labels := [2]string{"Name", "Description"}
	keys := [2]string{"name", "description"}
	for i := range f.inputs {
		b.WriteString(labelStyle.Render(labels[i]) + f.inputs[i].View() + "\n")
		if e, ok := f.fieldErrs[keys[i]]; ok {
			b.WriteString(labelStyle.Render("") + errorStyle.Render(e) + "\n")
		}
	}

	b.WriteString("\n")
	switch {
	case f.submitting:
		b.WriteString(mutedStyle.Render("Saving...") + "\n")
	case f.err != "":
		b.WriteString(errorStyle.Render(f.err) + "\n")
	}
	b.WriteString(helpStyle.Render("enter next/save • tab switch field • esc cancel"))
	return b.String()
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// form is a vertical stack of labelled inputs with one submit action. Every
// interactive flow (login, open account, transfer, ...) is a form plus a
// submit closure; secrets use password echo so PINs never hit the screen.
type form struct {
	title  string
	fields []textinput.Model
	labels []string
	focus  int
	// submit receives the trimmed field values and returns a status line.
	submit func(values []string) (string, error)
	// back is the view to return to on escape or after submit.
	back view
}

type fieldSpec struct {
	label       string
	placeholder string
	secret      bool
	limit       int
}

func newForm(title string, back view, specs []fieldSpec, submit func([]string) (string, error)) *form {
	f := &form{title: title, back: back, submit: submit}
	for i, spec := range specs {
		in := textinput.New()
		in.Placeholder = spec.placeholder
		in.CharLimit = spec.limit
		if spec.limit == 0 {
			in.CharLimit = 64
		}
		in.Prompt = "> "
		if spec.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		if i == 0 {
			in.Focus()
		}
		f.fields = append(f.fields, in)
		f.labels = append(f.labels, spec.label)
	}
	return f
}

func (f *form) values() []string {
	out := make([]string, len(f.fields))
	for i, in := range f.fields {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

// cycle moves focus by delta, wrapping.
func (f *form) cycle(delta int) {
	f.fields[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return cmd
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i, in := range f.fields {
		b.WriteString(labelStyle.Render(f.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: next field • enter: submit • esc: back"))
	return b.String()
}

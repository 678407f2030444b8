package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/cfpgen/internal/assistant"
	"github.com/kingrea/cfpgen/internal/workbench"
)

type detailTab int

const (
	tabAbstract detailTab = iota
	tabTakeaways
	tabFit
	tabChat
)

var detailTabs = []struct {
	tab   detailTab
	label string
}{
	{tabAbstract, "📝 Abstract"},
	{tabTakeaways, "🎯 Takeaways"},
	{tabFit, "✅ Why it fits"},
	{tabChat, "💬 Refine with AI"},
}

var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	metaStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	userStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	assistantStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	editedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
)

type detailAction int

const (
	actionLoad detailAction = iota
	actionAbstract
	actionTakeaways
	actionFit
	actionSave
	actionChat
	actionQuick
)

// detailRequest is one workbench call made from the detail screen.
type detailRequest struct {
	action detailAction
	text   string
	quick  assistant.QuickKind
}

type detailLoadedMsg struct {
	index  int
	action detailAction
	view   workbench.IdeaView
	err    error
}

// detailView shows one idea with its drafts and the refinement chat.
type detailView struct {
	app      *App
	index    int
	view     workbench.IdeaView
	loaded   bool
	tab      detailTab
	pending  bool
	err      error
	note     string
	editing  bool
	chatting bool
	editor   textarea.Model
	chat     textinput.Model
	viewport viewport.Model
}

func newDetailView(app *App, index int) *detailView {
	editor := textarea.New()
	editor.Placeholder = "Write your abstract..."
	editor.ShowLineNumbers = false
	editor.CharLimit = 4000

	chat := textinput.New()
	chat.Prompt = "│ "
	chat.Placeholder = "Ask about this talk idea..."
	chat.CharLimit = 2000

	return &detailView{
		app:      app,
		index:    index,
		editor:   editor,
		chat:     chat,
		viewport: viewport.New(defaultWrap, 16),
	}
}

// Init loads the idea and drafts whatever is missing.
func (d *detailView) Init() tea.Cmd {
	d.pending = true
	return tea.Batch(d.app.spinner.Tick, d.actionCmd(detailRequest{action: actionLoad}))
}

func (d *detailView) resize(width, height int) {
	width = max(minPanelWidth, width)
	d.viewport.Width = width
	d.viewport.Height = max(6, height-6)
	d.editor.SetWidth(width)
	d.editor.SetHeight(max(4, height-10))
	d.chat.Width = max(minPanelWidth, width-4)
	d.refresh()
}

// capturing reports whether keys belong to a text field.
func (d *detailView) capturing() bool {
	return d.editing || d.chatting
}

// actionCmd runs a workbench call off the update loop and reports the
// refreshed idea view.
func (d *detailView) actionCmd(req detailRequest) tea.Cmd {
	ctx := d.app.ctx
	bench := d.app.bench
	id := d.app.session.ID
	index := d.index
	return func() tea.Msg {
		var err error
		switch req.action {
		case actionAbstract:
			_, err = bench.RegenerateAbstract(ctx, id, index)
		case actionTakeaways:
			_, err = bench.RegenerateTakeaways(ctx, id, index)
		case actionFit:
			_, err = bench.RegenerateFit(ctx, id, index)
		case actionSave:
			err = bench.SetAbstract(ctx, id, index, req.text)
		case actionChat:
			_, err = bench.Chat(ctx, id, index, req.text)
		case actionQuick:
			_, err = bench.Quick(ctx, id, index, req.quick)
		}
		view, loadErr := bench.Detail(ctx, id, index)
		if err == nil {
			err = loadErr
		}
		return detailLoadedMsg{index: index, action: req.action, view: view, err: err}
	}
}

func (d *detailView) start(req detailRequest) tea.Cmd {
	if d.pending {
		return nil
	}
	d.pending = true
	d.err = nil
	d.note = ""
	d.refresh()
	return tea.Batch(d.app.spinner.Tick, d.actionCmd(req))
}

func (d *detailView) handleLoaded(msg detailLoadedMsg) {
	if msg.index != d.index {
		return
	}
	d.pending = false
	if msg.view.Idea.Title != "" {
		d.view = msg.view
		d.loaded = true
	}
	if msg.err != nil {
		d.err = msg.err
		d.app.logger.Warn("idea action failed", zap.Int("idea", d.index), zap.Error(msg.err))
	} else {
		d.err = nil
		d.note = actionNote(msg.action)
	}
	d.refresh()
	if d.tab == tabChat {
		d.viewport.GotoBottom()
	}
}

func actionNote(action detailAction) string {
	switch action {
	case actionAbstract:
		return "Abstract regenerated"
	case actionTakeaways:
		return "Takeaways regenerated"
	case actionFit:
		return "Fit reasons regenerated"
	case actionSave:
		return "Abstract saved"
	}
	return ""
}

// Update handles keys for the detail screen.
func (d *detailView) Update(msg tea.Msg) tea.Cmd {
	key, isKey := msg.(tea.KeyMsg)
	switch {
	case d.editing:
		if isKey {
			switch key.String() {
			case "esc":
				d.editing = false
				d.editor.Blur()
				return nil
			case "ctrl+s":
				d.editing = false
				d.editor.Blur()
				return d.start(detailRequest{action: actionSave, text: d.editor.Value()})
			}
		}
		var cmd tea.Cmd
		d.editor, cmd = d.editor.Update(msg)
		return cmd
	case d.chatting:
		if isKey {
			switch key.String() {
			case "esc":
				d.chatting = false
				d.chat.Blur()
				return nil
			case "enter":
				message := strings.TrimSpace(d.chat.Value())
				if message == "" {
					return nil
				}
				d.chat.Reset()
				return d.start(detailRequest{action: actionChat, text: message})
			}
		}
		var cmd tea.Cmd
		d.chat, cmd = d.chat.Update(msg)
		return cmd
	}

	if !isKey {
		var cmd tea.Cmd
		d.viewport, cmd = d.viewport.Update(msg)
		return cmd
	}
	switch key.String() {
	case "tab", "right", "l":
		d.tab = (d.tab + 1) % detailTab(len(detailTabs))
		d.refresh()
		return nil
	case "shift+tab", "left", "h":
		d.tab = (d.tab + detailTab(len(detailTabs)) - 1) % detailTab(len(detailTabs))
		d.refresh()
		return nil
	case "r":
		switch d.tab {
		case tabAbstract:
			return d.start(detailRequest{action: actionAbstract})
		case tabTakeaways:
			return d.start(detailRequest{action: actionTakeaways})
		case tabFit:
			return d.start(detailRequest{action: actionFit})
		}
	case "e":
		if d.tab == tabAbstract && d.loaded && !d.pending {
			d.editing = true
			d.editor.SetValue(d.view.Abstract)
			return d.editor.Focus()
		}
	case "i", "enter":
		if d.tab == tabChat && !d.pending {
			d.chatting = true
			return d.chat.Focus()
		}
	case "1", "2", "3", "4":
		if d.tab == tabChat {
			idx := int(key.String()[0] - '1')
			return d.start(detailRequest{action: actionQuick, quick: assistant.QuickKinds[idx]})
		}
	}
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return cmd
}

// refresh re-renders the active tab into the viewport.
func (d *detailView) refresh() {
	d.viewport.SetContent(d.renderTab())
}

func (d *detailView) renderTab() string {
	if !d.loaded {
		return "Loading idea..."
	}
	switch d.tab {
	case tabTakeaways:
		return numbered(d.view.Takeaways)
	case tabFit:
		return bulleted(d.view.FitReasons)
	case tabChat:
		return d.renderChat()
	}
	text := d.view.Abstract
	if d.view.Edited {
		text += "\n\n" + editedStyle.Render("(edited)")
	}
	return text
}

func (d *detailView) renderChat() string {
	if len(d.view.Chat) == 0 {
		var lines []string
		lines = append(lines, "Ask the assistant to refine this idea, or pick a quick prompt:", "")
		for i, kind := range assistant.QuickKinds {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, kind.Label()))
		}
		return strings.Join(lines, "\n")
	}
	var blocks []string
	for _, m := range d.view.Chat {
		switch m.Role {
		case assistant.RoleUser:
			blocks = append(blocks, userStyle.Render("You")+"\n"+m.Content)
		case assistant.RoleAssistant:
			blocks = append(blocks, assistantStyle.Render("Assistant")+"\n"+d.app.renderMarkdown(m.Content))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}

func bulleted(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

// View renders the detail screen.
func (d *detailView) View() string {
	idea := d.view.Idea
	if !d.loaded && d.app.session != nil && d.index < len(d.app.session.Ideas) {
		idea = d.app.session.Ideas[d.index]
	}
	header := titleStyle.Render(fmt.Sprintf("💡 Idea #%d: %s", d.index+1, idea.Title))
	meta := metaStyle.Render(fmt.Sprintf("Type: %s | Core topic: %s", idea.Type, idea.Topic))

	tabs := make([]string, len(detailTabs))
	for i, t := range detailTabs {
		style := tabInactiveStyle
		if t.tab == d.tab {
			style = tabActiveStyle
		}
		tabs[i] = style.Render(t.label)
	}
	sections := []string{header, meta, "", strings.Join(tabs, "   "), ""}

	if d.editing {
		sections = append(sections, d.editor.View(), hintStyle.Render("Ctrl+S → save    Esc → cancel"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}
	sections = append(sections, d.viewport.View())
	if d.tab == tabChat {
		sections = append(sections, "", d.chat.View())
	}
	if d.pending {
		sections = append(sections, d.app.spinner.View()+" Working...")
	}
	if d.err != nil {
		sections = append(sections, errorStyle.Render("⚠ "+errorText(d.err)))
	} else if d.note != "" {
		sections = append(sections, metaStyle.Render(d.note))
	}
	sections = append(sections, hintStyle.Render(d.hint()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (d *detailView) hint() string {
	switch {
	case d.chatting:
		return "Enter → send    Esc → stop typing"
	case d.tab == tabAbstract:
		return "Tab → next    r → regenerate    e → edit    Esc → ideas"
	case d.tab == tabChat:
		return "i → type a message    1-4 → quick prompt    Tab → next    Esc → ideas"
	}
	return "Tab → next    r → regenerate    Esc → ideas"
}

// errorText turns workbench errors into something a speaker can act on.
func errorText(err error) string {
	if errors.Is(err, assistant.ErrNoAPIKey) {
		return assistant.MissingKeyMessage
	}
	return err.Error()
}

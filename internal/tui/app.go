// internal/tui/app.go
//
// This is the terminal front end for cfpgen. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The wizard walks conference -> track -> format -> profile -> audience ->
// count, then hands the generated session to the idea list and detail view.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/cfpgen/internal/catalog"
	"github.com/kingrea/cfpgen/internal/export"
	"github.com/kingrea/cfpgen/internal/history"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/profile"
	"github.com/kingrea/cfpgen/internal/prompt"
	"github.com/kingrea/cfpgen/internal/session"
	"github.com/kingrea/cfpgen/internal/workbench"
)

// appState represents which "screen" we're on
type appState int

const (
	stateConference appState = iota // Conference picker
	stateTrack                      // Track picker for catalogue conferences
	stateTheme                      // Free-text theme for custom conferences
	stateFormat                     // Session format picker
	stateProfile                    // Name, expertise, projects, interests
	stateAudience                   // Audience level picker
	stateCount                      // Number of ideas
	stateGenerating                 // Waiting on the workbench
	stateIdeas                      // Generated idea list
	stateDetail                     // One idea with drafts and chat
	stateSave                       // Export format picker
)

const (
	historyLines   = 8
	noTrackLabel   = "No specific track"
	defaultWrap    = 80
	minPanelWidth  = 20
	historyMinSize = 32
)

type profileField struct {
	label       string
	placeholder string
}

var profileFields = []profileField{
	{label: "Your name", placeholder: profile.DefaultName},
	{label: "Areas of expertise (comma-separated)", placeholder: "Python, machine learning, DevOps, databases"},
	{label: "Recent projects or experiences you could talk about (comma-separated)", placeholder: "migrated to microservices, built a CLI tool, led a team"},
	{label: "Topics you're passionate about (comma-separated)", placeholder: "open source, mentoring, performance optimization"},
}

var audienceChoices = []menuItem{
	{title: "Beginners", value: string(profile.AudienceBeginners)},
	{title: "Intermediate", value: string(profile.AudienceIntermediate)},
	{title: "Advanced", value: string(profile.AudienceAdvanced)},
	{title: "Mixed/All levels", value: string(profile.AudienceMixed)},
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithContext sets the context used for workbench calls.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithCatalog overrides the built-in conference catalogue.
func WithCatalog(c *catalog.Catalog) AppOption {
	return func(a *App) {
		if c != nil {
			a.catalog = c
		}
	}
}

// WithJournal shows the generation history in a side panel.
func WithJournal(j *history.Journal) AppOption {
	return func(a *App) {
		a.journal = j
	}
}

// WithExportsDir sets where saved idea files are written.
func WithExportsDir(dir string) AppOption {
	return func(a *App) {
		a.exportsDir = dir
	}
}

// WithDefaults preselects the audience and idea count.
func WithDefaults(audience profile.Audience, count int) AppOption {
	return func(a *App) {
		a.defaultAudience = profile.ParseAudience(string(audience))
		if count > 0 {
			a.defaultCount = ideas.ClampCount(count)
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	ctx        context.Context
	bench      *workbench.Workbench
	catalog    *catalog.Catalog
	journal    *history.Journal
	logger     *zap.Logger
	exportsDir string
	renderer   *glamour.TermRenderer

	state   appState
	menu    list.Model
	input   textinput.Model
	spinner spinner.Model

	// Wizard answers
	conference      catalog.Conference
	draft           profile.Profile
	field           int
	count           int
	defaultCount    int
	defaultAudience profile.Audience

	// Results
	session   *session.Session
	detail    *detailView
	ideaIndex int

	statusMsg string
	err       error
	busy      bool

	// Journal tail, refreshed after each run or save.
	historyTail  []string
	historyTotal int

	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
	value string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

type generatedMsg struct {
	session *session.Session
	err     error
}

type savedMsg struct {
	path string
	err  error
}

// NewApp creates a new App in front of bench.
func NewApp(bench *workbench.Workbench, opts ...AppOption) (*App, error) {
	if bench == nil {
		return nil, fmt.Errorf("tui: workbench is required")
	}
	menu := list.New(nil, list.NewDefaultDelegate(), defaultWrap, 20)
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.KeyMap.Quit.SetEnabled(false)

	input := textinput.New()
	input.Prompt = "│ "
	input.CharLimit = 512
	input.Width = defaultWrap

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := &App{
		ctx:             context.Background(),
		bench:           bench,
		catalog:         catalog.Default(),
		logger:          zap.NewNop(),
		menu:            menu,
		input:           input,
		spinner:         sp,
		defaultCount:    ideas.DefaultCount,
		defaultAudience: profile.AudienceMixed,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(defaultWrap)); err == nil {
		a.renderer = r
	}
	a.refreshHistory()
	a.showConferences()
	return a, nil
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.menu.SetSize(max(0, a.mainWidth()-4), max(0, msg.Height-12))
		a.input.Width = max(minPanelWidth, a.mainWidth()-8)
		if a.detail != nil {
			a.detail.resize(a.mainWidth()-4, msg.Height-12)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.busy && (a.detail == nil || !a.detail.pending) {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case generatedMsg:
		return a, a.handleGenerated(msg)

	case savedMsg:
		a.busy = false
		a.state = stateIdeas
		a.showIdeas()
		defer a.refreshHistory()
		if msg.err != nil {
			a.err = msg.err
			a.statusMsg = "Save failed"
			a.logger.Warn("save ideas failed", zap.Error(msg.err))
			a.journal.Warn("save failed for session %s: %v", a.session.ID, msg.err)
			return a, nil
		}
		a.err = nil
		a.statusMsg = fmt.Sprintf("✅ Saved to %s", msg.path)
		a.journal.Info("saved %d ideas to %s", len(a.session.Ideas), msg.path)
		return a, nil

	case detailLoadedMsg:
		if a.detail != nil {
			a.detail.handleLoaded(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.state == stateDetail && a.detail != nil {
			if msg.String() == "esc" && !a.detail.capturing() {
				a.detail = nil
				a.state = stateIdeas
				a.showIdeas()
				return a, nil
			}
			return a, a.detail.Update(msg)
		}
		switch msg.String() {
		case "esc":
			return a, a.back()
		case "q":
			if a.state == stateIdeas || a.state == stateConference {
				return a, tea.Quit
			}
		case "enter":
			return a, a.submit()
		}
		if a.state == stateIdeas {
			switch msg.String() {
			case "s":
				a.showSave()
				return a, nil
			case "n":
				a.restart()
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch {
	case a.state == stateDetail && a.detail != nil:
		cmd = a.detail.Update(msg)
	case a.inputActive():
		a.input, cmd = a.input.Update(msg)
	case a.state != stateGenerating:
		a.menu, cmd = a.menu.Update(msg)
	}
	return a, cmd
}

func (a *App) inputActive() bool {
	switch a.state {
	case stateTheme, stateProfile, stateCount:
		return true
	}
	return false
}

// submit handles Enter on the current wizard step.
func (a *App) submit() tea.Cmd {
	switch a.state {
	case stateConference:
		a.chooseConference(a.menu.Index())
	case stateTrack:
		a.chooseTrack(a.menu.Index())
	case stateTheme:
		a.draft.Track = strings.TrimSpace(a.input.Value())
		a.showFormats()
	case stateFormat:
		a.chooseFormat(a.menu.Index())
	case stateProfile:
		return a.submitProfileField()
	case stateAudience:
		a.chooseAudience(a.menu.Index())
		return a.showCount()
	case stateCount:
		a.count = a.parseCount(a.input.Value())
		return a.startGeneration()
	case stateIdeas:
		return a.openDetail(a.menu.Index())
	case stateSave:
		item, ok := a.menu.SelectedItem().(menuItem)
		if !ok {
			return nil
		}
		return a.startSave(export.Format(item.value))
	}
	return nil
}

// back returns to the previous wizard step.
func (a *App) back() tea.Cmd {
	switch a.state {
	case stateTrack, stateTheme:
		a.showConferences()
	case stateFormat:
		a.showTrackStep()
	case stateProfile:
		if a.field == 0 {
			a.showFormats()
			return nil
		}
		return a.showProfileField(a.field - 1)
	case stateAudience:
		return a.showProfileField(len(profileFields) - 1)
	case stateCount:
		a.showAudience()
	case stateSave:
		a.showIdeas()
	}
	return nil
}

func (a *App) restart() {
	a.session = nil
	a.detail = nil
	a.draft = profile.Profile{}
	a.err = nil
	a.statusMsg = ""
	a.showConferences()
}

func (a *App) setMenu(title string, items []menuItem, selected int) {
	listItems := make([]list.Item, len(items))
	for i := range items {
		listItems[i] = items[i]
	}
	a.menu.Title = title
	a.menu.SetItems(listItems)
	a.menu.ResetSelected()
	if selected > 0 && selected < len(items) {
		a.menu.Select(selected)
	}
}

func (a *App) showConferences() {
	a.state = stateConference
	confs := a.catalog.All()
	items := make([]menuItem, len(confs))
	for i, conf := range confs {
		desc := fmt.Sprintf("%d track(s)", len(conf.Tracks))
		if conf.IsCustom() {
			desc = "Describe your own theme"
		}
		items[i] = menuItem{title: conf.Name, desc: desc, value: conf.Name}
	}
	a.setMenu("📋 Select a conference", items, len(items)-1)
}

func (a *App) chooseConference(idx int) {
	confs := a.catalog.All()
	a.conference = a.catalog.Custom()
	if idx >= 0 && idx < len(confs) {
		a.conference = confs[idx]
	}
	a.draft.Conference = ""
	if !a.conference.IsCustom() {
		a.draft.Conference = a.conference.Name
	}
	a.draft.Track = ""
	a.showTrackStep()
}

func (a *App) showTrackStep() {
	if len(a.conference.Tracks) == 0 {
		a.state = stateTheme
		a.input.Reset()
		a.input.Placeholder = "Conference theme/track (optional)"
		a.input.SetValue(a.draft.Track)
		a.input.Focus()
		return
	}
	a.state = stateTrack
	items := make([]menuItem, 0, len(a.conference.Tracks)+1)
	selected := len(a.conference.Tracks)
	for i, t := range a.conference.Tracks {
		items = append(items, menuItem{title: t, value: t})
		if t == a.draft.Track {
			selected = i
		}
	}
	items = append(items, menuItem{title: noTrackLabel})
	a.setMenu(fmt.Sprintf("🎯 Select a track for %s", a.conference.Name), items, selected)
}

func (a *App) chooseTrack(idx int) {
	a.draft.Track = ""
	if idx >= 0 && idx < len(a.conference.Tracks) {
		a.draft.Track = a.conference.Tracks[idx]
	}
	a.showFormats()
}

func (a *App) formats() []profile.Format {
	if len(a.conference.Formats) == 0 {
		return []profile.Format{profile.FormatTalk}
	}
	return a.conference.Formats
}

func (a *App) showFormats() {
	a.state = stateFormat
	a.input.Blur()
	formats := a.formats()
	items := make([]menuItem, len(formats))
	selected := 0
	for i, f := range formats {
		items[i] = menuItem{title: f.Label(), value: string(f)}
		if f == a.draft.Format {
			selected = i
		}
	}
	a.setMenu("📝 Select talk format", items, selected)
}

func (a *App) chooseFormat(idx int) {
	formats := a.formats()
	a.draft.Format = formats[0]
	if idx >= 0 && idx < len(formats) {
		a.draft.Format = formats[idx]
	}
	a.showProfileField(0)
}

func (a *App) profileValue(field int) string {
	switch field {
	case 0:
		return a.draft.Name
	case 1:
		return strings.Join(a.draft.Expertise, ", ")
	case 2:
		return strings.Join(a.draft.Projects, ", ")
	default:
		return strings.Join(a.draft.Interests, ", ")
	}
}

func (a *App) showProfileField(field int) tea.Cmd {
	a.state = stateProfile
	a.field = field
	a.input.Reset()
	a.input.Placeholder = profileFields[field].placeholder
	a.input.SetValue(a.profileValue(field))
	return a.input.Focus()
}

func (a *App) submitProfileField() tea.Cmd {
	value := strings.TrimSpace(a.input.Value())
	switch a.field {
	case 0:
		a.draft.Name = value
	case 1:
		a.draft.Expertise = profile.ParseList(value)
	case 2:
		a.draft.Projects = profile.ParseList(value)
	default:
		a.draft.Interests = profile.ParseList(value)
	}
	if a.field+1 < len(profileFields) {
		return a.showProfileField(a.field + 1)
	}
	a.showAudience()
	return nil
}

func (a *App) showAudience() {
	a.state = stateAudience
	a.input.Blur()
	selected := len(audienceChoices) - 1
	current := a.draft.Audience
	if current == "" {
		current = a.defaultAudience
	}
	for i, item := range audienceChoices {
		if item.value == string(current) {
			selected = i
		}
	}
	a.setMenu("👥 Target audience level", audienceChoices, selected)
}

func (a *App) chooseAudience(idx int) {
	a.draft.Audience = profile.AudienceMixed
	if idx >= 0 && idx < len(audienceChoices) {
		a.draft.Audience = profile.Audience(audienceChoices[idx].value)
	}
}

func (a *App) showCount() tea.Cmd {
	a.state = stateCount
	a.input.Reset()
	a.input.Placeholder = fmt.Sprintf("%d", a.defaultCount)
	return a.input.Focus()
}

func (a *App) parseCount(value string) int {
	return prompt.ParseCount(value, a.defaultCount)
}

func (a *App) startGeneration() tea.Cmd {
	a.state = stateGenerating
	a.input.Blur()
	a.busy = true
	a.err = nil
	a.statusMsg = "Generating ideas..."
	return tea.Batch(a.spinner.Tick, a.generateCmd(a.draft, a.count))
}

func (a *App) generateCmd(p profile.Profile, count int) tea.Cmd {
	ctx := a.ctx
	bench := a.bench
	return func() tea.Msg {
		sess, err := bench.Generate(ctx, p, count)
		return generatedMsg{session: sess, err: err}
	}
}

func (a *App) handleGenerated(msg generatedMsg) tea.Cmd {
	a.busy = false
	defer a.refreshHistory()
	if msg.err != nil {
		a.err = msg.err
		a.statusMsg = "Generation failed"
		a.logger.Warn("generate ideas failed", zap.Error(msg.err))
		a.journal.Error("generation failed for %q: %v", a.draft.Name, msg.err)
		return a.showCount()
	}
	a.err = nil
	a.session = msg.session
	a.draft = msg.session.Profile
	a.ideaIndex = 0
	a.statusMsg = fmt.Sprintf("Generated %d idea(s) for %s", len(msg.session.Ideas), msg.session.Profile.Name)
	a.showIdeas()
	return nil
}

func (a *App) showIdeas() {
	a.state = stateIdeas
	if a.session == nil {
		return
	}
	items := make([]menuItem, len(a.session.Ideas))
	for i, idea := range a.session.Ideas {
		items[i] = menuItem{
			title: fmt.Sprintf("%d. %s", i+1, idea.Title),
			desc:  fmt.Sprintf("%s · %s", idea.Type, idea.Topic),
		}
	}
	a.setMenu(fmt.Sprintf("💡 Generated CFP Ideas for %s", a.session.Profile.Name), items, a.ideaIndex)
}

func (a *App) openDetail(idx int) tea.Cmd {
	if a.session == nil || idx < 0 || idx >= len(a.session.Ideas) {
		return nil
	}
	a.state = stateDetail
	a.ideaIndex = idx
	a.detail = newDetailView(a, idx)
	a.detail.resize(a.mainWidth()-4, a.height-12)
	return a.detail.Init()
}

func (a *App) showSave() {
	a.state = stateSave
	items := []menuItem{
		{title: "Text", desc: "Plain text, the classic layout", value: string(export.FormatText)},
		{title: "Markdown", desc: "Headings per idea", value: string(export.FormatMarkdown)},
		{title: "JSON", desc: "Machine readable", value: string(export.FormatJSON)},
	}
	a.setMenu("💾 Save ideas as", items, 0)
}

func (a *App) startSave(format export.Format) tea.Cmd {
	if a.session == nil {
		return nil
	}
	a.busy = true
	a.statusMsg = "Saving..."
	return tea.Batch(a.spinner.Tick, a.saveCmd(a.session.ID, format))
}

func (a *App) saveCmd(id string, format export.Format) tea.Cmd {
	ctx := a.ctx
	bench := a.bench
	dir := a.exportsDir
	return func() tea.Msg {
		doc, err := bench.Export(ctx, id, format)
		if err != nil {
			return savedMsg{err: err}
		}
		path := filepath.Join(dir, doc.Filename)
		if err := export.WriteFile(path, doc.Body); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{path: path}
	}
}

func (a *App) mainWidth() int {
	width := a.width
	if width <= 0 {
		width = 100
	}
	if a.historyWidth() == 0 {
		return width
	}
	return width - a.historyWidth() - 4
}

func (a *App) historyWidth() int {
	width := a.width
	if width <= 0 {
		width = 100
	}
	if a.journal == nil || width < 80 {
		return 0
	}
	return max(historyMinSize, width/3)
}

// View renders the current state to a string.
func (a *App) View() string {
	mainWidth := a.mainWidth()
	header := headerStyle.Render("🎤 CFP GENERATOR")
	left := boxStyle.Width(max(minPanelWidth, mainWidth)).Render(a.renderMain())

	body := left
	if rightWidth := a.historyWidth(); rightWidth > 0 {
		right := boxStyle.Width(max(minPanelWidth, rightWidth)).Render(a.renderHistoryPanel())
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	sections := []string{header, a.renderSelection(), body}
	status := a.statusMsg
	if a.busy {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = errorStyle.Render("⚠ "+a.err.Error()) + "  " + status
	}
	sections = append(sections, footerStyle.Render(status))
	return strings.Join(sections, "\n")
}

func (a *App) renderMain() string {
	switch a.state {
	case stateTheme:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Enter your conference theme/track (optional)"),
			a.input.View(),
			hintStyle.Render("Enter → continue    Esc → back"))
	case stateProfile:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(fmt.Sprintf("Now tell us about yourself (%d/%d)", a.field+1, len(profileFields))),
			profileFields[a.field].label,
			a.input.View(),
			hintStyle.Render("Enter → next    Esc → back"))
	case stateCount:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(fmt.Sprintf("How many ideas would you like? (default: %d)", a.defaultCount)),
			a.input.View(),
			hintStyle.Render(fmt.Sprintf("%d-%d ideas    Enter → generate    Esc → back", ideas.MinCount, ideas.MaxCount)))
	case stateGenerating:
		return a.spinner.View() + " Generating ideas..."
	case stateDetail:
		if a.detail != nil {
			return a.detail.View()
		}
	case stateIdeas:
		return lipgloss.JoinVertical(lipgloss.Left,
			a.menu.View(),
			hintStyle.Render("Enter → open idea    s → save    n → new profile    q → quit"))
	case stateSave:
		return lipgloss.JoinVertical(lipgloss.Left,
			a.menu.View(),
			hintStyle.Render(fmt.Sprintf("Enter → save to %s    Esc → cancel", a.saveDirLabel())))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.menu.View(),
		hintStyle.Render("Enter → choose    Esc → back"))
}

func (a *App) saveDirLabel() string {
	if a.exportsDir == "" {
		return "current directory"
	}
	return a.exportsDir
}

// renderSelection summarises the answers given so far.
func (a *App) renderSelection() string {
	var parts []string
	if a.draft.Conference != "" {
		parts = append(parts, a.draft.Conference)
	} else if a.state > stateConference {
		parts = append(parts, "Custom")
	}
	if a.draft.Track != "" {
		parts = append(parts, a.draft.Track)
	}
	if a.state > stateFormat && a.draft.Format != "" {
		parts = append(parts, a.draft.Format.Label())
	}
	if a.state > stateAudience && a.draft.Audience != "" {
		parts = append(parts, a.draft.Audience.Label())
	}
	if len(parts) == 0 {
		return ""
	}
	return hintStyle.UnsetMarginTop().Render(strings.Join(parts, " · "))
}

func (a *App) refreshHistory() {
	a.historyTail, a.historyTotal = a.journal.Tail(historyLines)
}

func (a *App) renderHistoryPanel() string {
	lines, total := a.historyTail, a.historyTotal
	fileName := filepath.Base(a.journal.Path())
	if fileName == "." || fileName == "" {
		fileName = "history"
	}
	head := titleStyle.Render(fmt.Sprintf("HISTORY · %s (%d)", fileName, total))
	if len(lines) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, head, hintStyle.Render("No ideas generated yet."))
	}
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Width(max(minPanelWidth, a.historyWidth()-4)).
		Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, head, body)
}

// renderMarkdown renders assistant replies, falling back to raw text.
func (a *App) renderMarkdown(text string) string {
	if a.renderer == nil {
		return text
	}
	out, err := a.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

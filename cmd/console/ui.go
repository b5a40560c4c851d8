package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/heartbeat-engine/internal/heartbeat"
	"github.com/jwebster45206/heartbeat-engine/internal/services/events"
	"github.com/jwebster45206/heartbeat-engine/internal/session"
	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/choice"
	"github.com/jwebster45206/heartbeat-engine/pkg/status"
)

// feedLimit caps how many lines the life feed keeps.
const feedLimit = 500

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	feedViewport viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	err          error
	busy         bool

	connected bool
	state     session.RuntimeState
	last      *heartbeat.HeartbeatUpdate
	pending   *heartbeat.ChoicesReady
	died      *heartbeat.CharacterDied
	feed      []string

	// transcript mirrors feed without styling, for copying.
	transcript []string
	notice     string

	showQuitModal bool
}

type socketEventMsg struct {
	event SocketEvent
}

type socketClosedMsg struct {
	err error
}

type runtimeResultMsg struct {
	state session.RuntimeState
	err   error
}

type resolveResultMsg struct {
	resolution *heartbeat.Resolution
	err        error
}

var (
	feedPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	npcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var titleCase = cases.Title(language.English)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	feedVp := viewport.New(50, 20)
	feedVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		feedViewport: feedVp,
		metaViewport: metaVp,
		state:        session.StatePaused,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.feedViewport, vpCmd = m.feedViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		feedWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - feedWidth - 6

		m.feedViewport.Width = feedWidth - 2
		m.feedViewport.Height = m.height - 6
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case socketEventMsg:
		m.handleEvent(msg.event)
		m.refresh()

	case socketClosedMsg:
		m.connected = false
		m.err = msg.err
		m.refresh()

	case runtimeResultMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.state = msg.state
		}
		m.refresh()

	case resolveResultMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.pending = nil
			m.appendFeed(formatResolution(msg.resolution), plainResolution(msg.resolution))
		}
		m.refresh()
	}

	m.feedViewport, vpCmd = m.feedViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	}
	if m.busy {
		return m, nil
	}

	key := strings.ToLower(msg.String())
	if m.pending != nil {
		switch key {
		case "a":
			m.busy = true
			return m, m.resolve(heartbeat.ChoiceOptionA)
		case "b":
			m.busy = true
			return m, m.resolve(heartbeat.ChoiceOptionB)
		case "i":
			m.busy = true
			return m, m.resolve(heartbeat.ChoiceIgnore)
		}
		return m, nil
	}

	switch key {
	case " ", "p":
		if m.died != nil || !m.connected {
			return m, nil
		}
		action := session.ActionPlay
		if m.state == session.StatePlaying {
			action = session.ActionPause
		}
		m.busy = true
		return m, m.setRuntime(action)
	case "y":
		m.copyTranscript()
		m.refresh()
		return m, nil
	case "q":
		m.showQuitModal = true
	}

	var cmd tea.Cmd
	m.feedViewport, cmd = m.feedViewport.Update(msg)
	return m, cmd
}

func (m *ConsoleUI) handleEvent(ev SocketEvent) {
	switch ev.Type {
	case events.EventTypeRuntimeStatus:
		var rs heartbeat.RuntimeStatus
		if json.Unmarshal(ev.Data, &rs) == nil {
			m.connected = true
			m.state = rs.RuntimeState
		}

	case events.EventTypeHeartbeatUpdate:
		var hb heartbeat.HeartbeatUpdate
		if json.Unmarshal(ev.Data, &hb) != nil || hb.CharacterID != m.config.CharacterID {
			return
		}
		m.last = &hb
		m.appendFeed(formatHeartbeat(&hb), plainHeartbeat(&hb))

	case events.EventTypeChoicesReady:
		var cr heartbeat.ChoicesReady
		if json.Unmarshal(ev.Data, &cr) != nil || cr.CharacterID != m.config.CharacterID {
			return
		}
		m.pending = &cr

	case events.EventTypeCharacterDied:
		var cd heartbeat.CharacterDied
		if json.Unmarshal(ev.Data, &cd) != nil || cd.CharacterID != m.config.CharacterID {
			return
		}
		m.died = &cd
		m.state = session.StatePaused
		line := fmt.Sprintf("%s  died (%s)", cd.Date.Journal(), cd.DeathReason)
		m.appendFeed(errorStyle.Render(line), line)

	case events.EventTypeSessionReplaced:
		m.connected = false
		m.err = fmt.Errorf("this player connected from somewhere else")
	}
}

func (m *ConsoleUI) appendFeed(entry, plain string) {
	m.feed = append(m.feed, entry)
	m.transcript = append(m.transcript, plain)
	if len(m.feed) > feedLimit {
		m.feed = m.feed[len(m.feed)-feedLimit:]
		m.transcript = m.transcript[len(m.transcript)-feedLimit:]
	}
}

// copyTranscript puts the unstyled feed on the system clipboard.
func (m *ConsoleUI) copyTranscript() {
	if len(m.transcript) == 0 {
		m.notice = "Nothing to copy yet"
		return
	}
	if err := clipboard.WriteAll(strings.Join(m.transcript, "\n")); err != nil {
		m.err = fmt.Errorf("failed to copy: %w", err)
		return
	}
	m.notice = fmt.Sprintf("Copied %d entries", len(m.transcript))
}

// refresh rebuilds both panels for the current width.
func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	width := m.feedViewport.Width - 6
	if width < 10 {
		width = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("HEARTBEAT") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	for _, entry := range m.feed {
		content.WriteString(wordwrap.String(entry, width) + "\n\n")
	}
	m.feedViewport.SetContent(content.String())
	m.feedViewport.GotoBottom()

	m.metaViewport.SetContent(writeMetadata(m))
}

func formatHeartbeat(hb *heartbeat.HeartbeatUpdate) string {
	var b strings.Builder
	b.WriteString(dateStyle.Render(hb.Date.Journal()))
	b.WriteString(characterLine(hb))
	for _, line := range npcLines(hb) {
		b.WriteString("\n" + npcStyle.Render(line))
	}
	return b.String()
}

func plainHeartbeat(hb *heartbeat.HeartbeatUpdate) string {
	lines := append([]string{hb.Date.Journal() + characterLine(hb)}, npcLines(hb)...)
	return strings.Join(lines, "\n")
}

func characterLine(hb *heartbeat.HeartbeatUpdate) string {
	action := hb.CharacterAction.CurrentAction
	if action == "" {
		return ""
	}
	if place := hb.CharacterAction.Location.Place; place != "" {
		return "  " + action + " at " + place
	}
	return "  " + action
}

func npcLines(hb *heartbeat.HeartbeatUpdate) []string {
	var lines []string
	for _, npc := range hb.NPCUpdates {
		if npc.CurrentAction != "" {
			lines = append(lines, "  · "+npc.CurrentAction)
		}
	}
	return lines
}

func plainResolution(r *heartbeat.Resolution) string {
	if r == nil {
		return ""
	}
	if r.Resolution == heartbeat.ChoiceIgnore {
		return "Let the moment pass."
	}
	return "Chose: " + r.Action
}

func formatResolution(r *heartbeat.Resolution) string {
	if r == nil {
		return ""
	}
	if r.Resolution == heartbeat.ChoiceIgnore {
		return choiceStyle.Render("You let the moment pass.")
	}
	line := choiceStyle.Render("You chose: " + r.Action)
	for _, ms := range r.Milestones {
		line += "\n" + titleStyle.Render("★ "+titleCase.String(strings.ReplaceAll(ms.Type, "_", " ")))
	}
	return line
}

func writeMetadata(m *ConsoleUI) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CHARACTER") + "\n\n")

	content.WriteString("Runtime:\n")
	switch {
	case m.died != nil:
		content.WriteString(errorStyle.Render("Dead") + "\n\n")
	case !m.connected:
		content.WriteString(loadingStyle.Render("Connecting...") + "\n\n")
	default:
		content.WriteString(titleCase.String(string(m.state)) + "\n\n")
	}

	if m.last != nil {
		s := m.last.Stats
		content.WriteString("Date:\n" + m.last.Date.String() + "\n\n")
		content.WriteString(statLine("Health", s.Health, status.HealthTable))
		content.WriteString(statLine("Vibe", s.Vibe, status.VibeTable))
		content.WriteString(statLine("Mission", s.LifeMission, status.MissionTable))
		content.WriteString(fmt.Sprintf("Money:\n%d\n\n", s.Money))
		if loc := formatLocation(m.last.CharacterAction.Location); loc != "" {
			content.WriteString("Location:\n" + loc + "\n\n")
		}
	}

	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	} else if m.notice != "" {
		content.WriteString(loadingStyle.Render(m.notice) + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Space: Play/Pause\n")
	content.WriteString("• A/B/I: Answer choice\n")
	content.WriteString("• Y: Copy feed\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func statLine(name string, value float64, table status.Table) string {
	return fmt.Sprintf("%s:\n%.1f %s\n\n", name, value, promptStyle.Render(status.Resolve(value, table).Display()))
}

func formatLocation(loc being.Location) string {
	var parts []string
	for _, p := range []string{loc.Place, loc.City, loc.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (m ConsoleUI) setRuntime(action session.RuntimeAction) tea.Cmd {
	return func() tea.Msg {
		state, err := setRuntime(m.client, m.config.APIBaseURL, m.config.PlayerID, m.config.CharacterID, action)
		return runtimeResultMsg{state, err}
	}
}

func (m ConsoleUI) resolve(key string) tea.Cmd {
	return func() tea.Msg {
		res, err := resolveChoice(m.client, m.config.APIBaseURL, m.config.PlayerID, m.config.CharacterID, key)
		return resolveResultMsg{res, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leaving pauses your character.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderChoiceModal() string {
	pc := m.pending.Choices
	if pc == nil {
		return ""
	}
	const width = 64

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("A Crossroads"))
	content.WriteString("\n\n")
	content.WriteString(wordwrap.String(pc.Situation, width-6))
	content.WriteString("\n\n")
	content.WriteString(formatOption("A", pc.OptionA, width-6))
	content.WriteString("\n")
	content.WriteString(formatOption("B", pc.OptionB, width-6))
	content.WriteString("\n")
	if m.busy {
		content.WriteString(loadingStyle.Render("Deciding..."))
	} else {
		content.WriteString(promptStyle.Render("Press A or B to choose, I to ignore"))
	}

	modal := modalStyle.Width(width).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func formatOption(key string, o choice.Option, width int) string {
	var b strings.Builder
	b.WriteString(choiceStyle.Render(key+") ") + wordwrap.String(o.Action, width-3) + "\n")
	b.WriteString(promptStyle.Render(fmt.Sprintf("   health %+.0f  vibe %+.0f  money %+.0f  mission %+.0f",
		o.HealthImpact, o.VibeImpact, o.WealthImpact, o.LifeMissionImpact)))
	b.WriteString("\n")
	return b.String()
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	if m.pending != nil {
		return m.renderChoiceModal()
	}

	feedWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - feedWidth - 6

	feedPanel := feedPanelStyle.Width(feedWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.feedViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", feedWidth-4)),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, feedPanel, metaPanel)
}

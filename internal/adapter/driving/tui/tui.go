// Package tui renders build snapshots in the terminal and turns key presses
// into poller and build actions.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
)

// Poller is the part of the poll service the view drives.
type Poller interface {
	TriggerNow(ctx context.Context) error
	SetTimeWindow(ctx context.Context, w model.TimeWindow) error
	Window() model.TimeWindow
	Snapshot() model.Snapshot
}

// Actions are the per-build operations.
type Actions interface {
	Dismiss(ctx context.Context, buildID string) error
	Restart(ctx context.Context, buildID string) (string, error)
	View(buildID string) error
}

// Toggler flips boolean settings.
type Toggler interface {
	Toggle(ctx context.Context, key model.SettingKey) (bool, error)
}

// clockInterval re-renders relative times while no snapshot arrives.
const clockInterval = 30 * time.Second

type (
	snapshotMsg     model.Snapshot
	notificationMsg model.Notification
	clockMsg        time.Time
	resultMsg       struct {
		text string
		err  error
	}
)

// Model is the bubbletea model for the status view.
type Model struct {
	ctx       context.Context
	poller    Poller
	actions   Actions
	settings  Toggler
	snapshots <-chan model.Snapshot
	notifier  *Notifier
	now       func() time.Time

	snapshot model.Snapshot
	cursor   int
	busy     bool
	flash    string
	flashErr bool
	banner   *model.Notification
	width    int
}

// NewModel creates the status view. All actions run as commands on their own
// goroutines; ctx bounds them.
func NewModel(
	ctx context.Context,
	poller Poller,
	actions Actions,
	settings Toggler,
	snapshots <-chan model.Snapshot,
	notifier *Notifier,
) Model {
	return Model{
		ctx:       ctx,
		poller:    poller,
		actions:   actions,
		settings:  settings,
		snapshots: snapshots,
		notifier:  notifier,
		now:       time.Now,
		snapshot:  poller.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(m.snapshots),
		waitForNotification(m.notifier),
		clockCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.snapshot = model.Snapshot(msg)
		m.clampCursor()
		return m, waitForSnapshot(m.snapshots)

	case notificationMsg:
		n := model.Notification(msg)
		m.banner = &n
		return m, tea.Batch(m.notifier.ring(), waitForNotification(m.notifier))

	case resultMsg:
		m.busy = false
		m.flashErr = msg.err != nil
		if msg.err != nil {
			m.flash = fmt.Sprintf("%s: %v", msg.text, msg.err)
		} else {
			m.flash = msg.text
		}

	case clockMsg:
		return m, clockCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.snapshot.Active)-1 {
			m.cursor++
		}
		return m, nil
	case "esc":
		m.banner = nil
		m.flash = ""
		return m, nil
	}

	// Everything below talks to the outside world; one action at a time.
	if m.busy {
		return m, nil
	}

	var cmd tea.Cmd
	switch msg.String() {
	case "R":
		cmd = m.refresh()
	case "w":
		cmd = m.cycleWindow()
	case "n":
		cmd = m.toggle(model.SettingNotificationsEnabled)
	case "s":
		cmd = m.toggle(model.SettingShowBuildOnRestart)
	case "d", "r", "o", "enter":
		build, ok := m.selected()
		if !ok {
			return m, nil
		}
		switch msg.String() {
		case "d":
			cmd = m.dismiss(build)
		case "r":
			cmd = m.restart(build)
		default:
			cmd = m.view(build)
		}
	}

	if cmd == nil {
		return m, nil
	}
	m.busy = true
	m.banner = nil
	return m, cmd
}

func (m Model) selected() (model.Build, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Active) {
		return model.Build{}, false
	}
	return m.snapshot.Active[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.snapshot.Active) {
		m.cursor = len(m.snapshot.Active) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, poller := m.ctx, m.poller
	return func() tea.Msg {
		return resultMsg{text: "refreshed", err: poller.TriggerNow(ctx)}
	}
}

func (m Model) cycleWindow() tea.Cmd {
	ctx, poller := m.ctx, m.poller
	// The poller owns the window; a failed tick leaves the snapshot behind it.
	next := poller.Window().Next()
	return func() tea.Msg {
		err := poller.SetTimeWindow(ctx, next)
		return resultMsg{text: "showing " + next.String(), err: err}
	}
}

func (m Model) toggle(key model.SettingKey) tea.Cmd {
	ctx, settings := m.ctx, m.settings
	return func() tea.Msg {
		on, err := settings.Toggle(ctx, key)
		state := "off"
		if on {
			state = "on"
		}
		return resultMsg{text: key.Label() + " " + state, err: err}
	}
}

func (m Model) dismiss(b model.Build) tea.Cmd {
	ctx, actions := m.ctx, m.actions
	return func() tea.Msg {
		return resultMsg{text: "marked fixed: " + b.RepoName + " - " + b.BranchName, err: actions.Dismiss(ctx, b.ID)}
	}
}

func (m Model) restart(b model.Build) tea.Cmd {
	ctx, actions := m.ctx, m.actions
	return func() tea.Msg {
		newID, err := actions.Restart(ctx, b.ID)
		if err != nil {
			return resultMsg{text: "restart failed", err: err}
		}
		return resultMsg{text: "restarted as " + newID}
	}
}

func (m Model) view(b model.Build) tea.Cmd {
	actions := m.actions
	return func() tea.Msg {
		return resultMsg{text: "opened " + b.URL(), err: actions.View(b.ID)}
	}
}

func waitForSnapshot(ch <-chan model.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func waitForNotification(n *Notifier) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		return notificationMsg(<-n.ch)
	}
}

func clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// Package tui is a terminal front end for a duel session.
//
// The model never touches game state itself: every action runs as a tea.Cmd
// against the *game.Session and comes back as a resultMsg carrying a fresh
// snapshot.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/robalobadob/viewduel/internal/game"
)

type keyMap struct {
	Left  key.Binding
	Right key.Binding
	Start key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Left, k.Right, k.Start, k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func defaultKeys() keyMap {
	return keyMap{
		Left:  key.NewBinding(key.WithKeys("left", "1", "h"), key.WithHelp("←/1", "left")),
		Right: key.NewBinding(key.WithKeys("right", "2", "l"), key.WithHelp("→/2", "right")),
		Start: key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter", "start")),
		Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// resultMsg reports the outcome of a Start or Choose.
type resultMsg struct {
	snap    game.Snapshot
	chosen  bool // true for Choose
	correct bool
	err     error
}

type model struct {
	ctx     context.Context
	sess    *game.Session
	printer *message.Printer

	snap    game.Snapshot
	busy    bool
	verdict string
	errText string

	spin spinner.Model
	keys keyMap
	help help.Model
}

func newModel(ctx context.Context, sess *game.Session, tag language.Tag) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle
	return model{
		ctx:     ctx,
		sess:    sess,
		printer: message.NewPrinter(tag),
		snap:    sess.Snapshot(),
		spin:    sp,
		keys:    defaultKeys(),
		help:    help.New(),
	}
}

// Run plays sess in the terminal until the user quits and returns the last snapshot.
func Run(ctx context.Context, sess *game.Session, tag language.Tag) (game.Snapshot, error) {
	p := tea.NewProgram(newModel(ctx, sess, tag), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return sess.Snapshot(), err
	}
	if fm, ok := final.(model); ok {
		return fm.snap, nil
	}
	return sess.Snapshot(), nil
}

func (m model) Init() tea.Cmd { return m.spin.Tick }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		m.busy = false
		m.snap = msg.snap
		m.errText = ""
		if msg.err != nil {
			m.errText = msg.err.Error()
		}
		m.verdict = ""
		if msg.chosen && msg.err == nil {
			m.verdict = "wrong"
			if msg.correct {
				m.verdict = "correct"
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	playing := m.snap.Phase == game.PhasePlaying && len(m.snap.Pair) == 2

	switch {
	case key.Matches(msg, m.keys.Start) && !playing:
		m.busy = true
		return m, m.start()
	case key.Matches(msg, m.keys.Left) && playing:
		m.busy = true
		return m, m.choose(m.snap.Pair[0].ID)
	case key.Matches(msg, m.keys.Right) && playing:
		m.busy = true
		return m, m.choose(m.snap.Pair[1].ID)
	}
	return m, nil
}

func (m model) start() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		err := sess.Start(ctx)
		return resultMsg{snap: sess.Snapshot(), err: err}
	}
}

func (m model) choose(id string) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		correct, err := sess.Choose(ctx, id)
		return resultMsg{snap: sess.Snapshot(), chosen: true, correct: correct, err: err}
	}
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s   %s %d\n\n",
		titleStyle.Render("viewduel"),
		accentStyle.Render("Score"), m.snap.Score)

	switch {
	case len(m.snap.Pair) == 2:
		b.WriteString(mutedStyle.Render("Which one has more views?") + "\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.card(m.snap.Pair[0], "←"), " ", m.card(m.snap.Pair[1], "→")))
		b.WriteString("\n")
	case !m.busy:
		b.WriteString(mutedStyle.Render("Press enter to start.") + "\n")
	}

	if m.busy {
		b.WriteString(m.spin.View() + " fetching view counts…\n")
	}
	if m.snap.Message != "" {
		line := m.snap.Message
		switch m.verdict {
		case "correct":
			line = successStyle.Render(line)
		case "wrong":
			line = errorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if m.errText != "" {
		b.WriteString(errorStyle.Render("✖ "+m.errText) + "\n")
	}
	if m.snap.GameOver {
		b.WriteString(overStyle.Render(fmt.Sprintf("Game over! Final score: %d", m.snap.Score)) + "\n")
		b.WriteString(mutedStyle.Render("Press enter to play again.") + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// card renders one song; view counts are revealed once the run is over.
func (m model) card(it game.ScoredItem, arrow string) string {
	lines := []string{titleStyle.Render(arrow + " " + it.Title)}
	if !it.PublishedAt.IsZero() {
		lines = append(lines, mutedStyle.Render("published "+it.PublishedAt.Format("2006-01-02")))
	}
	if m.snap.GameOver {
		lines = append(lines, m.printer.Sprintf("%d views", it.Views))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

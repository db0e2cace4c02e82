package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nerrad567/qlstats/internal/stats"
)

const (
	// maxBatch is the most lines folded into one update.
	maxBatch = 64

	// statusRefresh is how often the header re-reads the status source.
	statusRefresh = time.Second

	// headerHeight is the number of rows above the viewport.
	headerHeight = 2
)

var (
	accent    = lipgloss.Color("#50E3C2")
	muted     = lipgloss.Color("#8CA1AE")
	goodText  = lipgloss.Color("#7BD88F")
	alertText = lipgloss.Color("#FF6B6B")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	upStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(goodText)

	downStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(alertText)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted)
)

// Status supplies the figures shown in the header.
// It is satisfied by *stats.Tally.
type Status interface {
	Snapshot() stats.Snapshot
}

// Options configures the terminal UI.
type Options struct {
	Endpoint string
	MaxLines int
	Status   Status

	// Input and Output default to the process terminal when nil.
	Input  io.Reader
	Output io.Writer
}

type linesMsg struct {
	lines []string
	ok    bool
}

type tickMsg time.Time

// Model is the bubbletea model for the live stats view.
type Model struct {
	lines    <-chan string
	endpoint string
	maxLines int
	status   Status

	entries  []string
	snapshot stats.Snapshot
	closed   bool
	follow   bool
	ready    bool
	viewport viewport.Model
}

// NewModel creates a model reading from lines.
func NewModel(lines <-chan string, opts Options) Model {
	maxLines := opts.MaxLines
	if maxLines < 1 {
		maxLines = 1
	}
	return Model{
		lines:    lines,
		endpoint: opts.Endpoint,
		maxLines: maxLines,
		status:   opts.Status,
		follow:   true,
		viewport: viewport.New(80, 20),
	}
}

// RunTUI runs the terminal UI until the user quits or ctx ends.
// When the line stream closes the view stays up until the user quits.
func RunTUI(ctx context.Context, lines <-chan string, opts Options) error {
	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	_, err := tea.NewProgram(NewModel(lines, opts), progOpts...).Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("running terminal ui: %w", err)
	}
	return nil
}

// Init starts reading lines and the header refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForLinesCmd(m.lines), tickCmd())
}

func waitForLinesCmd(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return linesMsg{ok: false}
		}

		batch := make([]string, 0, maxBatch)
		batch = append(batch, line)
		for len(batch) < maxBatch {
			select {
			case next, ok := <-ch:
				if !ok {
					return linesMsg{lines: batch, ok: false}
				}
				batch = append(batch, next)
			default:
				return linesMsg{lines: batch, ok: true}
			}
		}
		return linesMsg{lines: batch, ok: true}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(statusRefresh, func(at time.Time) tea.Msg {
		return tickMsg(at)
	})
}

// Update handles input, incoming lines and resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-headerHeight)
		m.ready = true
		m.refreshView()
		return m, nil

	case linesMsg:
		m.append(msg.lines)
		m.refreshStatus()
		m.refreshView()
		if !msg.ok {
			m.closed = true
			return m, nil
		}
		return m, waitForLinesCmd(m.lines)

	case tickMsg:
		m.refreshStatus()
		return m, tickCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "end", "G":
			m.follow = true
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.follow = m.viewport.AtBottom()
	return m, cmd
}

// append adds entries, dropping the oldest beyond maxLines.
func (m *Model) append(lines []string) {
	m.entries = append(m.entries, lines...)
	if over := len(m.entries) - m.maxLines; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
}

func (m *Model) refreshStatus() {
	if m.status != nil {
		m.snapshot = m.status.Snapshot()
	}
}

func (m *Model) refreshView() {
	m.viewport.SetContent(strings.Join(m.entries, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// View renders the header and the scrolling line view.
func (m Model) View() string {
	state := downStyle.Render("disconnected")
	if m.snapshot.Connected {
		state = upStyle.Render("connected")
	}
	if m.closed {
		state = downStyle.Render("stopped")
	}

	header := fmt.Sprintf("%s  %s  %s  %s",
		titleStyle.Render("qlstats"),
		m.endpoint,
		state,
		helpStyle.Render(fmt.Sprintf("%d messages", m.snapshot.Messages)),
	)
	help := helpStyle.Render("q quit | up/down/pgup/pgdn scroll | end follow")

	if !m.ready {
		return header + "\n" + help + "\n" + strings.Join(m.entries, "\n")
	}
	return header + "\n" + help + "\n" + m.viewport.View()
}

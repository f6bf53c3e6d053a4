// Package inspect is an interactive terminal scrubber: the keyboard plays
// the role of the page scroll and the load button, and the driver loop
// runs on the program's tick.
package inspect

import (
	"context"
	"fmt"
	"strings"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/phasekit/internal/driver"
	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/progress"
	"github.com/ivlev/phasekit/internal/turntable"
)

type tickMsg time.Time

func tickCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Options configures a Model.
type Options struct {
	Title string
	FPS   int
	// ScrollStep is how far one key press scrolls, in px.
	ScrollStep float64
}

// Model hosts a driver loop with a scroll source and an optional deck.
type Model struct {
	ctx    context.Context
	opts   Options
	loop   *driver.Loop
	scroll *progress.Scroll
	deck   *turntable.Deck

	bar      bprogress.Model
	snap     driver.Snapshot
	status   string
	err      error
	width    int
	quitting bool
}

// New builds the inspector. deck may be nil; the scroll source should be
// the one feeding the loop's device stage.
func New(ctx context.Context, loop *driver.Loop, scroll *progress.Scroll, deck *turntable.Deck, opts Options) *Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.ScrollStep <= 0 {
		opts.ScrollStep = scroll.Spacer() / 20
	}
	bar := bprogress.New(
		bprogress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		bprogress.WithoutPercentage(),
	)
	bar.Width = 40
	return &Model{ctx: ctx, opts: opts, loop: loop, scroll: scroll, deck: deck, bar: bar}
}

func (m *Model) Init() tea.Cmd { return tickCmd(m.opts.FPS) }

// Snapshot returns the last frame produced by the loop.
func (m *Model) Snapshot() driver.Snapshot { return m.snap }

func (m *Model) Status() string { return m.status }

func (m *Model) Err() error { return m.err }

func (m *Model) scrollBy(dy float64, now time.Time) {
	y := m.scroll.Offset() + dy
	if y < 0 {
		y = 0
	}
	if limit := m.scroll.Spacer(); y > limit {
		y = limit
	}
	m.scroll.Observe(y, now)
}

func (m *Model) loadVinyl(now time.Time) {
	if m.deck == nil {
		m.status = "нет проигрывателя в сцене"
		return
	}
	superseding := m.deck.Loader.Busy()
	_, err := m.deck.Load(m.ctx, now, turntable.LoadOptions{
		OnComplete: func() { m.status = "пластинка загружена" },
		OnError:    func(err error) { m.status = "ошибка загрузки: " + err.Error() },
	})
	switch {
	case err != nil:
		m.err = err
	case superseding:
		m.status = "загрузка перезапущена"
	default:
		m.status = "загрузка пластинки..."
	}
}

// cancelVinyl abandons the load in flight; its callbacks never fire.
func (m *Model) cancelVinyl() {
	if m.deck == nil || !m.deck.Loader.Busy() {
		return
	}
	m.deck.Loader.Cancel()
	m.status = "загрузка отменена"
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		now := time.Now()
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "down", "j":
			m.scrollBy(m.opts.ScrollStep, now)
		case "up", "k":
			m.scrollBy(-m.opts.ScrollStep, now)
		case "pgdown", " ":
			m.scrollBy(m.opts.ScrollStep*5, now)
		case "pgup":
			m.scrollBy(-m.opts.ScrollStep*5, now)
		case "home", "g":
			m.scrollBy(-m.scroll.Spacer(), now)
		case "end", "G":
			m.scrollBy(m.scroll.Spacer(), now)
		case "v":
			m.loadVinyl(now)
		case "x":
			m.cancelVinyl()
		case "e":
			if m.deck != nil {
				m.deck.Model.Explode(!m.deck.Model.Exploded())
			}
		}
		return m, nil

	case tickMsg:
		snap, err := m.loop.Tick(time.Time(msg))
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.snap = snap
		return m, tickCmd(m.opts.FPS)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 20
		if m.bar.Width < 20 {
			m.bar.Width = 20
		}
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	title := m.opts.Title
	if title == "" {
		title = "phasekit inspect"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString(fmt.Sprintf("  кадр %d\n\n", m.snap.Index))

	for _, st := range m.snap.Stages {
		phase := st.Phase
		if !st.Ready && phase == "" {
			phase = "not ready"
		}
		b.WriteString(fmt.Sprintf("%-10s %s  t=%.2f\n", st.Name, phaseStyle.Render(phase), st.LocalT))
		b.WriteString("           " + m.bar.ViewAs(st.Progress) + fmt.Sprintf("  %.3f\n", st.Progress))
	}
	b.WriteString(fmt.Sprintf("\nскролл: %.0f / %.0f px  скорость %.2f px/ms  (%s)\n\n",
		m.scroll.Offset(), m.scroll.Spacer(), m.scroll.Velocity(), m.scroll.Profile().Name))

	for _, s := range m.snap.States {
		b.WriteString(formatState(s))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ скролл  pgup/pgdn быстро  v пластинка  x отмена  e разобрать  q выход"))
	return b.String()
}

func formatState(s pose.State) string {
	line := fmt.Sprintf("  %-12s pos(%7.1f %7.1f %7.1f) rotY %5.2f  α %.2f",
		s.ID, s.Position.X, s.Position.Y, s.Position.Z, s.Rotation.Y, s.Opacity)
	if !s.Visible {
		return hiddenStyle.Render(line + "  скрыт")
	}
	return stateStyle.Render(line)
}

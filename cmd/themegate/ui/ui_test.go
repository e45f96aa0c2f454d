package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"themegate/internal/diagnostics"
	"themegate/internal/engine"
	"themegate/internal/monitoring"
	"themegate/internal/motion"
	"themegate/internal/rollout"
	"themegate/internal/theme"
)

type staticFlags map[string]string

func (s staticFlags) LoadFlags(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestPaletteFor(t *testing.T) {
	for _, id := range theme.All() {
		p := PaletteFor(id)
		assert.NotEmpty(t, p.Primary, "theme %s has no primary color", id)
	}
	assert.Equal(t, PaletteFor(theme.DefaultTheme), PaletteFor("vaporwave"))
	assert.True(t, PaletteFor(theme.Cyberpunk).IsDark)
	assert.False(t, PaletteFor(theme.Minimalistic).IsDark)
}

func TestSimpleTable(t *testing.T) {
	tbl := NewSimpleTable("Effects", []string{"Effect", "Tier"})
	assert.Empty(t, tbl.View(StylesFor(theme.Royal)))

	tbl.AddRow("Bloom", "high")
	tbl.AddRow("Noise")
	tbl.AddRow("Grid", "low", "dropped")

	out := tbl.View(StylesFor(theme.Royal))
	assert.Contains(t, out, "Effects")
	assert.Contains(t, out, "Bloom")
	assert.NotContains(t, out, "dropped")

	md := tbl.Markdown()
	assert.Contains(t, md, "| Effect | Tier |")
	assert.Contains(t, md, "| --- | --- |")
	assert.Contains(t, md, "| Noise |  |")
}

func newMonitor(t *testing.T, flags staticFlags, raw motion.RawInput) (MonitorModel, *fakeClock) {
	t.Helper()
	ctrl := rollout.NewController(flags, nil)
	require.NoError(t, ctrl.Reload(context.Background()))

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := NewMonitorModel(context.Background(), MonitorOptions{
		Engine:  engine.New(ctrl),
		Tracker: diagnostics.NewTracker(),
		Input:   func() motion.RawInput { return raw },
		Now:     clock.now,
	})
	return m, clock
}

func step(t *testing.T, m MonitorModel, clock *fakeClock, offset time.Duration) MonitorModel {
	t.Helper()
	at := time.Unix(1_700_000_000, 0).Add(offset)
	clock.t = at
	next, cmd := m.Update(tickMsg{at: at})
	require.NotNil(t, cmd, "tick must reschedule")
	return next.(MonitorModel)
}

func TestMonitorModel_SlowTicksStayHealthy(t *testing.T) {
	m, clock := newMonitor(t, staticFlags{}, motion.RawInput{
		ThemeID:              "royal",
		FxQuality:            motion.Float(3),
		InteractionIntensity: motion.Float(0),
	})

	for i := 1; i <= 6; i++ {
		m = step(t, m, clock, time.Duration(i)*600*time.Millisecond)
	}

	snap := m.Snapshot()
	assert.Equal(t, 6, snap.InvalidationsTotal)
	assert.Equal(t, 6, snap.FramesTotal)
	assert.LessOrEqual(t, snap.InvalidationsPerSecond, 2.0)
	assert.True(t, m.Result().Healthy(), "reasons: %v", m.Result().Reasons)
	assert.Equal(t, diagnostics.SlowestTickMs, m.tickMs)

	view := m.View()
	assert.Contains(t, view, "royal")
	assert.Contains(t, view, "Bloom")
}

func TestMonitorModel_FastTicksFlagInvalidationBudget(t *testing.T) {
	m, clock := newMonitor(t, staticFlags{}, motion.RawInput{
		ThemeID:              "cyberpunk",
		FxQuality:            motion.Float(3),
		InteractionIntensity: motion.Float(1),
	})

	for i := 1; i <= 12; i++ {
		m = step(t, m, clock, time.Duration(i)*200*time.Millisecond)
	}

	assert.True(t, m.Result().PerformanceRisk)
	assert.False(t, m.Result().AccessibilityRisk)
	assert.Equal(t, diagnostics.FastestTickMs, m.tickMs)
	assert.Contains(t, m.View(), "ambient-invalidation-budget")
}

func TestMonitorModel_DefaultCadenceVersusBudget(t *testing.T) {
	run := func(budget monitoring.Budget) MonitorModel {
		ctrl := rollout.NewController(staticFlags{}, nil)
		require.NoError(t, ctrl.Reload(context.Background()))
		clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
		m := NewMonitorModel(context.Background(), MonitorOptions{
			Engine: engine.New(ctrl, engine.WithBudget(budget)),
			Now:    clock.now,
		})
		for i := 1; i <= 20; i++ {
			m = step(t, m, clock, time.Duration(i*diagnostics.FastestTickMs)*time.Millisecond)
		}
		return m
	}

	m := run(monitoring.DefaultBudget())
	assert.Equal(t, diagnostics.FastestTickMs, m.tickMs, "default input runs at the fastest cadence")
	assert.True(t, m.Result().Has(monitoring.ReasonAmbientInvalidationBudget))

	raised := monitoring.DefaultBudget()
	raised.InvalidationsPerSecond = 5
	m = run(raised)
	assert.True(t, m.Result().Healthy())
}

func TestMonitorModel_MotionOffSkipsInvalidations(t *testing.T) {
	m, clock := newMonitor(t, staticFlags{}, motion.RawInput{ThemeID: "chibi", MotionMode: "off"})

	m = step(t, m, clock, time.Second)
	m = step(t, m, clock, 2*time.Second)

	assert.Zero(t, m.Snapshot().InvalidationsTotal)
	assert.Equal(t, 2, m.Snapshot().FramesTotal)
	assert.Equal(t, diagnostics.ReducedMotionTickMs, m.tickMs)
}

func TestMonitorModel_RolloutBlocksTheme(t *testing.T) {
	m, clock := newMonitor(t, staticFlags{rollout.KeyEnabledThemes: "minimalistic"}, motion.RawInput{ThemeID: "steampunk"})

	m = step(t, m, clock, time.Second)

	view := m.View()
	assert.Contains(t, view, "blocked")
	assert.Equal(t, theme.Minimalistic, m.frame.Rollout.ThemeID)
}

func TestMonitorModel_Messages(t *testing.T) {
	m, _ := newMonitor(t, staticFlags{}, motion.RawInput{})

	next, _ := m.Update(ReloadMsg{Config: rollout.Unrestricted()})
	m = next.(MonitorModel)
	assert.Contains(t, strings.Join(m.log, "\n"), "flags reloaded: themes=all")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(MonitorModel)
	require.NotNil(t, cmd)
	msg, ok := cmd().(ReloadMsg)
	require.True(t, ok)
	assert.NoError(t, msg.Err)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMonitorModel_LogIsBounded(t *testing.T) {
	m, _ := newMonitor(t, staticFlags{}, motion.RawInput{})
	for i := 0; i < maxLogLines+25; i++ {
		m.appendLog("line")
	}
	assert.Len(t, m.log, maxLogLines)
}

func TestMonitorModel_OnReport(t *testing.T) {
	var seen []monitoring.Report
	m := NewMonitorModel(context.Background(), MonitorOptions{
		OnReport: func(r monitoring.Report) { seen = append(seen, r) },
	})

	report := monitoring.NewReport(monitoring.Result{Reasons: []monitoring.Reason{}}, nil, time.Now())
	next, _ := m.Update(reportMsg{report: report})
	m = next.(MonitorModel)
	next, _ = m.Update(reportMsg{err: assert.AnError})
	m = next.(MonitorModel)

	require.Len(t, seen, 1)
	assert.Equal(t, report.ID, seen[0].ID)
	assert.Contains(t, strings.Join(m.log, "\n"), "report "+report.ID)
}

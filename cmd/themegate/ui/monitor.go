package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"themegate/internal/diagnostics"
	"themegate/internal/engine"
	"themegate/internal/fx"
	"themegate/internal/monitoring"
	"themegate/internal/motion"
	"themegate/internal/rollout"
	"themegate/internal/theme"
)

const maxLogLines = 200

// ReloadMsg reports a rollout reload, from the flags watcher or a manual
// request.
type ReloadMsg struct {
	Config rollout.Config
	Err    error
}

type tickMsg struct{ at time.Time }

type reportMsg struct {
	report monitoring.Report
	err    error
}

// MonitorOptions configures a MonitorModel.
type MonitorOptions struct {
	Engine  *engine.Engine
	Tracker *diagnostics.Tracker
	Input   func() motion.RawInput // raw signals for each tick
	Now     func() time.Time
	Logger  *zap.Logger

	// OnReport, when set, sees every report the model produced.
	OnReport func(monitoring.Report)
}

// MonitorModel drives ambient ticks through the engine and shows the live
// frame, diagnostics snapshot and monitoring verdict.
type MonitorModel struct {
	ctx      context.Context
	engine   *engine.Engine
	tracker  *diagnostics.Tracker
	input    func() motion.RawInput
	now      func() time.Time
	logger   *zap.Logger
	onReport func(monitoring.Report)

	start    time.Time
	frame    engine.Frame
	snapshot diagnostics.Snapshot
	result   monitoring.Result
	tickMs   int
	ticks    int

	log      []string
	viewport viewport.Model
	styles   Styles
	width    int
	height   int
}

// NewMonitorModel creates the live monitor. Missing options get defaults.
func NewMonitorModel(ctx context.Context, opts MonitorOptions) MonitorModel {
	if opts.Engine == nil {
		opts.Engine = engine.New(nil)
	}
	if opts.Tracker == nil {
		opts.Tracker = diagnostics.NewTracker()
	}
	if opts.Input == nil {
		opts.Input = func() motion.RawInput { return motion.RawInput{} }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return MonitorModel{
		ctx:      ctx,
		engine:   opts.Engine,
		tracker:  opts.Tracker,
		input:    opts.Input,
		now:      opts.Now,
		logger:   opts.Logger,
		onReport: opts.OnReport,
		start:    opts.Now(),
		result:   monitoring.Result{Reasons: []monitoring.Reason{}},
		viewport: viewport.New(80, 6),
		styles:   StylesFor(theme.DefaultTheme),
	}
}

// Init starts the tick loop.
func (m MonitorModel) Init() tea.Cmd {
	now := m.now
	return func() tea.Msg { return tickMsg{at: now()} }
}

// Update handles messages.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.reload()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		if h := msg.Height - 16; h > 3 {
			m.viewport.Height = h
		}
		return m, nil

	case tickMsg:
		return m.tick(msg.at)

	case ReloadMsg:
		if msg.Err != nil {
			m.logger.Warn("rollout reload failed", zap.Error(msg.Err))
			m.appendLog(m.styles.Error.Render("reload failed: ") + msg.Err.Error())
		} else {
			m.appendLog(fmt.Sprintf("flags reloaded: themes=%s max_fx_quality=%s baseline_only=%t",
				themeList(msg.Config.EnabledThemes), msg.Config.MaxFxQuality, msg.Config.BaselineFxOnly))
		}
		return m, nil

	case reportMsg:
		if msg.err != nil {
			m.appendLog(m.styles.Error.Render("monitor: ") + msg.err.Error())
		} else {
			m.appendLog(fmt.Sprintf("report %s: %s", msg.report.ID, reasonList(msg.report.Result.Reasons)))
			if m.onReport != nil {
				m.onReport(msg.report)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// tick runs one ambient step: resolve, record, evaluate, reschedule.
func (m MonitorModel) tick(at time.Time) (tea.Model, tea.Cmd) {
	ts := float64(at.Sub(m.start)) / float64(time.Millisecond)

	began := m.now()
	frame := m.engine.Resolve(m.input())
	duration := float64(m.now().Sub(began)) / float64(time.Millisecond)

	if frame.Runtime.MotionMode != theme.MotionOff {
		m.tracker.MarkInvalidation(ts)
	}
	m.tracker.MarkFrame(ts, duration)
	m.snapshot = m.tracker.Snapshot(ts)

	prev := m.result
	m.frame = frame
	m.result = m.engine.Evaluate(frame, &m.snapshot)
	m.styles = StylesFor(frame.Rollout.ThemeID)
	m.ticks++

	var cmds []tea.Cmd
	if m.result.AccessibilityRisk != prev.AccessibilityRisk || m.result.PerformanceRisk != prev.PerformanceRisk {
		if m.result.Healthy() {
			m.appendLog(m.styles.Success.Render("healthy"))
		} else {
			m.appendLog(m.styles.Warning.Render("risk: ") + reasonList(m.result.Reasons))
			cmds = append(cmds, m.monitor(frame, m.snapshot))
		}
	}

	rt := frame.Runtime
	m.tickMs = diagnostics.ResolveAmbientTickMs(rt.InteractionIntensity, rt.ReducedMotion || rt.MotionMode.Reduced())
	cmds = append(cmds, tea.Tick(time.Duration(m.tickMs)*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg{at: t}
	}))
	return m, tea.Batch(cmds...)
}

// monitor produces a stamped report, letting the engine apply auto baseline.
func (m MonitorModel) monitor(frame engine.Frame, snap diagnostics.Snapshot) tea.Cmd {
	ctx, eng := m.ctx, m.engine
	return func() tea.Msg {
		report, err := eng.Monitor(ctx, frame, &snap)
		return reportMsg{report: report, err: err}
	}
}

func (m MonitorModel) reload() tea.Cmd {
	ctx, ctrl := m.ctx, m.engine.Controller()
	return func() tea.Msg {
		err := ctrl.Reload(ctx)
		return ReloadMsg{Config: ctrl.Config(), Err: err}
	}
}

func (m *MonitorModel) appendLog(line string) {
	stamp := m.now().Format("15:04:05")
	m.log = append(m.log, m.styles.Muted.Render(stamp)+" "+line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.viewport.SetContent(strings.Join(m.log, "\n"))
	m.viewport.GotoBottom()
}

// View renders the monitor.
func (m MonitorModel) View() string {
	s := m.styles
	var sb strings.Builder

	sb.WriteString(s.Header.Render("themegate watch"))
	sb.WriteString(" ")
	sb.WriteString(s.Badge.Render(m.frame.Rollout.ThemeID.String()))
	sb.WriteString("\n\n")

	rt := m.frame.Runtime
	themeLine := rt.ThemeID.String()
	if m.frame.Rollout.ThemeBlocked {
		themeLine += s.Warning.Render(" (blocked, using " + m.frame.Rollout.ThemeID.String() + ")")
	}
	frameInfo := strings.Join([]string{
		s.Title.Render("Frame"),
		"theme:     " + themeLine,
		"quality:   " + m.frame.Rollout.FxQuality.String(),
		"motion:    " + string(rt.MotionMode),
		fmt.Sprintf("reduced:   %t", rt.ReducedMotion),
		fmt.Sprintf("intensity: %.2f", rt.InteractionIntensity),
		fmt.Sprintf("tick:      %dms", m.tickMs),
	}, "\n")

	stackInfo := strings.Join([]string{
		s.Title.Render("Post FX"),
		"enabled: " + effectList(m.frame.Stack.Enabled),
		"heavy:   " + effectList(m.frame.Stack.Heavy),
		fmt.Sprintf("baseline only: %t", m.frame.Rollout.BaselineFxOnly),
	}, "\n")

	snap := m.snapshot
	ambientInfo := strings.Join([]string{
		s.Title.Render("Ambient"),
		fmt.Sprintf("invalidations: %d (%.2f/s)", snap.InvalidationsTotal, snap.InvalidationsPerSecond),
		fmt.Sprintf("frames:        %d", snap.FramesTotal),
		fmt.Sprintf("avg frame:     %.2fms", snap.AverageFrameMs),
		fmt.Sprintf("max frame:     %.2fms", snap.MaxFrameMs),
		"status:        " + s.Status(m.result.Healthy(), statusText(m.result)),
	}, "\n")

	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		s.Panel.Render(frameInfo),
		s.Panel.Render(stackInfo),
		s.Panel.Render(ambientInfo),
	))
	sb.WriteString("\n")
	sb.WriteString(s.Title.Render("Events"))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(s.Footer.Render("q quit • r reload flags"))
	return sb.String()
}

// Snapshot returns the latest diagnostics snapshot.
func (m MonitorModel) Snapshot() diagnostics.Snapshot { return m.snapshot }

// Result returns the latest monitoring verdict.
func (m MonitorModel) Result() monitoring.Result { return m.result }

func statusText(r monitoring.Result) string {
	if r.Healthy() {
		return "healthy"
	}
	return reasonList(r.Reasons)
}

func reasonList(reasons []monitoring.Reason) string {
	if len(reasons) == 0 {
		return "none"
	}
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

func effectList(effects []fx.PostEffect) string {
	if len(effects) == 0 {
		return "-"
	}
	parts := make([]string, len(effects))
	for i, e := range effects {
		parts[i] = string(e)
	}
	return strings.Join(parts, " ")
}

func themeList(ids []theme.ThemeID) string {
	if len(ids) == 0 {
		return "all"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

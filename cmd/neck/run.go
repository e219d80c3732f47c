package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/neck/internal/log"
	"github.com/gwillem/neck/pkg/pose"
	"github.com/gwillem/neck/pkg/robot"
	"github.com/gwillem/neck/pkg/teleop"
)

type RunCommand struct {
	Hz       int     `long:"hz" description:"Override control loop frequency"`
	Deadband float64 `long:"deadband" default:"-1" description:"Override deadband in degrees"`
	Source   string  `long:"source" choice:"static" choice:"sweep" choice:"redis" choice:"websocket" description:"Override pose source"`
	Headless bool    `long:"headless" description:"No terminal UI, log to stderr"`
	LogFile  string  `long:"log-file" default:"neck.log" description:"Log destination while the terminal UI is shown"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

const (
	seriesYaw   = "yaw"
	seriesPitch = "pitch"
)

var seriesColors = map[string]string{
	seriesYaw:   "51",  // cyan
	seriesPitch: "208", // orange
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type runModel struct {
	ctrl     *teleop.Controller
	source   string
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	state    teleop.State
	quitting bool
	finished bool
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string
type doneMsg struct{ err error }

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(40, m.width-borderSize-2)
	height = max(10, m.height-headerHeight-legendHeight-footerHeight-borderSize)
	return width, height
}

func newRunModel(ctrl *teleop.Controller, cfg *robot.Config) *runModel {
	lo := min(cfg.Yaw.MinDeg, cfg.Pitch.MinDeg)
	hi := max(cfg.Yaw.MaxDeg, cfg.Pitch.MaxDeg)
	chart := streamlinechart.New(80, 20, streamlinechart.WithYRange(lo, hi))

	for _, name := range []string{seriesYaw, seriesPitch} {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name]))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return &runModel{
		ctrl:   ctrl,
		source: cfg.Source.Kind,
		chart:  &chart,
	}
}

func (m *runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		m.state = teleop.State(msg)
		// Only draw commanded moves so the chart freezes while idle.
		if m.state.Sent {
			m.chart.PushDataSet(seriesYaw, m.state.Yaw)
			m.chart.PushDataSet(seriesPitch, m.state.Pitch)
			m.chart.DrawAll()
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)

	case doneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.addLog(msg.err.Error())
		}
		m.finished = true
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *runModel) View() string {
	if m.quitting {
		return "Control loop stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Neck"))
	sb.WriteString(fmt.Sprintf(" - %d Hz - %s - %s", m.ctrl.Hz(), m.source, m.ctrl.Phase()))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  yaw %7.2f°  pitch %7.2f°  writes %d/%d",
		m.state.Yaw, m.state.Pitch, m.state.Writes, m.state.Ticks)))
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(20, m.width-4)).
		Foreground(lipgloss.Color("9")) // bright red

	logLines := statusStyle.Render("Press 'q' to quit")
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, name := range []string{seriesYaw, seriesPitch} {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

// apply copies command line overrides into cfg.
func (c *RunCommand) apply(cfg *robot.Config) {
	if c.Hz > 0 {
		cfg.Hz = c.Hz
	}
	if c.Deadband >= 0 {
		cfg.Deadband = c.Deadband
	}
	if c.Source != "" {
		cfg.Source.Kind = c.Source
	}
}

func (c *RunCommand) Execute(args []string) error {
	if c.Headless {
		log.Init(opts.LogLevel)
	} else {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.InitWriter(opts.LogLevel, f)
	}

	cfg := mustLoadConfig()
	c.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Info("configuration loaded", "path", opts.Config, "port", cfg.Port, "driver", cfg.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closer, err := pose.New(ctx, cfg.Source, log.L())
	if err != nil {
		return err
	}
	defer closer.Close()

	ctrl, err := teleop.NewController(teleop.Config{
		Dial:        func() (robot.Driver, error) { return robot.OpenDriver(cfg) },
		Yaw:         cfg.Yaw,
		Pitch:       cfg.Pitch,
		Calibration: robot.NewCalibrationStore(cfg.CalibrationFile),
		Source:      source,
		Hz:          cfg.Hz,
		Deadband:    cfg.Deadband,
		Logger:      log.L(),
	})
	if err != nil {
		return err
	}

	if c.Headless {
		return ignoreCanceled(ctrl.Run(ctx))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newRunModel(ctrl, cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan error, 1)
	go func() {
		err := ctrl.Run(ctx)
		done <- err
		p.Send(doneMsg{err: err})
	}()

	final, uiErr := p.Run()
	if uiErr != nil {
		uiErr = fmt.Errorf("run terminal UI: %w", uiErr)
	}
	if m, ok := final.(*runModel); !ok || !m.finished {
		fmt.Println("Recentering and releasing torque...")
	}

	// Stop the loop if the user quit and wait for the shutdown sequence.
	cancel()
	return errors.Join(uiErr, ignoreCanceled(<-done))
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

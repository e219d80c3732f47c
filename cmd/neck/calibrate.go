package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/neck/internal/log"
	"github.com/gwillem/neck/pkg/robot"
)

type CalibrateCommand struct {
	Yes bool `short:"y" long:"yes" description:"Save without asking"`
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (c *CalibrateCommand) Execute(args []string) error {
	log.Init(opts.LogLevel)
	cfg := mustLoadConfig()

	fmt.Println(headerStyle.Render("Neck Calibration"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━"))
	fmt.Println()

	driver, err := robot.OpenDriver(cfg)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	store := robot.NewCalibrationStore(cfg.CalibrationFile)
	neck := robot.NewNeck(driver, cfg.Yaw, cfg.Pitch, store.Load())
	defer neck.Close()

	ctx := context.Background()

	// Release the servos so the head can be positioned by hand.
	if err := neck.Disable(ctx); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Could not release torque: %v", err)))
	}

	fmt.Println(subHeaderStyle.Render("Position the head"))
	fmt.Println("Move the head so it looks straight ahead and level.")
	fmt.Println()

	p := tea.NewProgram(newCalibrationModel(neck, cfg))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("run calibration: %w", err)
	}
	if cm := finalModel.(calibrationModel); cm.aborted {
		fmt.Println("Calibration aborted, nothing saved.")
		return nil
	}

	if !c.Yes && !confirm("Save this pose as zero?", "Save", "Cancel") {
		fmt.Println("Nothing saved.")
		return nil
	}

	// Hold the pose while it is read.
	if err := neck.Enable(ctx); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Could not enable torque: %v", err)))
	}
	off, err := neck.Calibrate(ctx, store)
	if disableErr := neck.Disable(ctx); disableErr != nil {
		log.Warn("release torque after calibration", "error", disableErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render(err.Error()))
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Calibration saved."))
	fmt.Printf("  Yaw offset:   %+.2f°\n", off.Yaw)
	fmt.Printf("  Pitch offset: %+.2f°\n", off.Pitch)
	fmt.Printf("  File:         %s\n", store.Path())
	return nil
}

// confirm asks a yes/no question and exits on ctrl+c.
func confirm(title, yes, no string) bool {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative(yes).
				Negative(no).
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return ok
}

// Calibration TUI model
type calibrationModel struct {
	neck      *robot.Neck
	axes      map[robot.AxisName]robot.AxisConfig
	positions map[robot.AxisName]float64
	quitting  bool
	aborted   bool
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func newCalibrationModel(neck *robot.Neck, cfg *robot.Config) calibrationModel {
	return calibrationModel{
		neck: neck,
		axes: map[robot.AxisName]robot.AxisConfig{
			robot.Yaw:   cfg.Yaw,
			robot.Pitch: cfg.Pitch,
		},
		positions: make(map[robot.AxisName]float64),
	}
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.quitting = true
			return m, tea.Quit
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.aborted = true
			return m, tea.Quit
		}

	case tickMsg:
		m.positions = m.neck.ReadPositions(context.Background())
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableAxisStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableOKStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableBadStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	axes := robot.AllAxes()
	rows := make([][]string, 0, len(axes))
	inRange := make([]bool, 0, len(axes))
	for _, name := range axes {
		a := m.axes[name]
		pos, ok := m.positions[name]
		current, offset, status := "-", "-", "no reply"
		if ok {
			current = fmt.Sprintf("%.2f", pos)
			offset = fmt.Sprintf("%+.2f", pos-a.CenterDeg)
			status = "ok"
			if pos < a.MinDeg || pos > a.MaxDeg {
				status = "out of range"
				ok = false
			}
		}
		inRange = append(inRange, ok)
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", a.ID),
			current,
			fmt.Sprintf("%.2f", a.CenterDeg),
			offset,
			status,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Axis", "ID", "Current", "Center", "Offset", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableAxisStyle
			case 2:
				return tableCurrentStyle
			case 5:
				if row >= 0 && row < len(inRange) && inRange[row] {
					return tableOKStyle
				}
				return tableBadStyle
			default:
				return tableCellStyle
			}
		})

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter to record, q to abort"))
	return sb.String()
}

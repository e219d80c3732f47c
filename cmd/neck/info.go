package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/neck/internal/log"
	"github.com/gwillem/neck/pkg/robot"
)

type InfoCommand struct {
	NoRead bool `long:"no-read" description:"Do not open the bus"`
}

func (c *InfoCommand) Execute(args []string) error {
	log.Init(opts.LogLevel)
	cfg := mustLoadConfig()
	off := robot.NewCalibrationStore(cfg.CalibrationFile).Load()

	fmt.Println(headerStyle.Render("Neck"))
	fmt.Printf("  Config:      %s\n", opts.Config)
	fmt.Printf("  Port:        %s (%s)\n", cfg.Port, driverName(cfg))
	fmt.Printf("  Loop:        %d Hz, deadband %.2f°\n", cfg.Hz, cfg.Deadband)
	fmt.Printf("  Source:      %s\n", cfg.Source.Kind)
	fmt.Printf("  Calibration: %s\n", cfg.CalibrationFile)
	fmt.Println()

	positions := map[robot.AxisName]float64{}
	if !c.NoRead {
		driver, err := robot.OpenDriver(cfg)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.Port, err)
		}
		neck := robot.NewNeck(driver, cfg.Yaw, cfg.Pitch, off)
		positions = neck.ReadPositions(context.Background())
		if err := neck.Close(); err != nil {
			log.Warn("close bus", "error", err)
		}
	}

	rows := make([][]string, 0, 2)
	for _, name := range robot.AllAxes() {
		a := cfg.Axis(name)
		offset := off.Yaw
		if name == robot.Pitch {
			offset = off.Pitch
		}
		current := "-"
		if pos, ok := positions[name]; ok {
			current = fmt.Sprintf("%.2f", pos)
		}
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", a.ID),
			fmt.Sprintf("[%.1f, %.1f]", a.MinDeg, a.MaxDeg),
			fmt.Sprintf("%.2f", a.CenterDeg),
			fmt.Sprintf("%+.0f", a.Sign),
			fmt.Sprintf("%+.2f", offset),
			fmt.Sprintf("%.2f", a.Neutral(offset)),
			current,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Axis", "ID", "Range", "Center", "Sign", "Offset", "Neutral", "Current").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return subHeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Println(t.Render())
	return nil
}

func driverName(cfg *robot.Config) string {
	if cfg.Driver == "" {
		return robot.DriverB3M
	}
	return cfg.Driver
}

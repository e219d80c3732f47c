package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/gwillem/neck/internal/log"
	"github.com/gwillem/neck/pkg/b3m"
	"github.com/gwillem/neck/pkg/bus"
	"github.com/gwillem/neck/pkg/robot"
)

type SetupCommand struct {
	Port    string `short:"p" long:"port" description:"Skip the scan and use this port"`
	YawID   uint8  `long:"yaw-id" default:"0" description:"Yaw servo id"`
	PitchID uint8  `long:"pitch-id" default:"1" description:"Pitch servo id"`
}

// wiggleDeg is how far an axis moves to show the operator its direction.
const (
	wiggleDeg   = 5
	wigglePause = 600 * time.Millisecond
)

func (c *SetupCommand) Execute(args []string) error {
	log.Init(opts.LogLevel)

	fmt.Println(headerStyle.Render("Neck Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━"))
	fmt.Println()

	// Step 1: find the bus
	port := c.Port
	if port == "" {
		port = c.scan()
	}

	// Step 2: choose a rig layout
	cfg := choosePreset()
	cfg.Port = port
	cfg.Yaw.ID = c.YawID
	cfg.Pitch.ID = c.PitchID
	cfg.CalibrationFile = robot.DefaultCalibrationFile
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 3: confirm directions on the real hardware
	if cfg.Driver == robot.DriverB3M && confirm("Check servo directions now? The head will move slightly.", "Yes", "Skip") {
		checkDirections(&cfg)
	}

	if err := cfg.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Next: " + headerStyle.Render("neck calibrate") + " then " + headerStyle.Render("neck run"))
	return nil
}

// scan probes every serial port for servos answering on both axis ids.
func (c *SetupCommand) scan() string {
	fmt.Println("Scanning serial ports...")
	fmt.Println()

	ports, err := bus.ListPorts()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		os.Exit(1)
	}

	var found []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		if probe(port, c.YawID, c.PitchID) {
			fmt.Printf("  Found neck servos on %s\n", port)
			found = append(found, port)
		}
	}
	fmt.Println()

	switch len(found) {
	case 0:
		fmt.Println("No neck servos found.")
		fmt.Println("Make sure the servos are connected and powered on, or pass --port.")
		os.Exit(1)
	case 1:
		return found[0]
	}

	var port string
	options := make([]huh.Option[string], 0, len(found))
	for _, p := range found {
		options = append(options, huh.NewOption(p, p))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the neck on?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port
}

// probe reports whether both servo ids answer a position read on port.
func probe(port string, ids ...uint8) bool {
	servos, err := b3m.Open(port, bus.Options{})
	if err != nil {
		log.Debug("probe open failed", "port", port, "error", err)
		return false
	}
	defer servos.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, id := range ids {
		if _, ok := servos.ReadPosition(ctx, id); !ok {
			return false
		}
	}
	return true
}

func choosePreset() robot.Config {
	presets := robot.Presets()
	descriptions := map[string]string{
		robot.PresetTwist2: "VR headset, centre zero, inverted and scaled 1.5x",
		robot.PresetRedis:  "Neck angles from Redis, centre zero",
		robot.PresetHead:   "Head mount, yaw 90° / pitch 60° centre",
	}

	options := make([]huh.Option[string], 0, len(presets))
	for _, name := range robot.PresetNames() {
		options = append(options, huh.NewOption(fmt.Sprintf("%s - %s", name, descriptions[name]), name))
	}

	name := robot.PresetTwist2
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which rig is this?").
				Description("Sets axis ranges, directions, loop rate and pose source").
				Options(options...).
				Value(&name),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return presets[name]
}

// checkDirections moves each axis a little in the positive input direction
// and flips its sign if the operator saw it go the wrong way.
func checkDirections(cfg *robot.Config) {
	driver, err := robot.OpenDriver(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", cfg.Port, err)
		return
	}
	neck := robot.NewNeck(driver, cfg.Yaw, cfg.Pitch, robot.Offset{})
	defer neck.Close()

	ctx := context.Background()
	if err := neck.Enable(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error enabling torque: %v\n", err)
		return
	}
	defer neck.Disable(ctx)

	questions := map[robot.AxisName]string{
		robot.Yaw:   "Did the head turn to its left?",
		robot.Pitch: "Did the head tilt up?",
	}

	for _, name := range robot.AllAxes() {
		a := cfg.Axis(name)
		fmt.Printf("\n  Moving %s...\n", name)
		if err := wiggle(ctx, driver, a, wigglePause); err != nil {
			fmt.Printf("  %s did not move (%v), skipping\n", name, err)
			continue
		}

		if !confirm(questions[name], "Yes", "No, flip it") {
			a.Sign = -a.Sign
			if name == robot.Yaw {
				cfg.Yaw = a
			} else {
				cfg.Pitch = a
			}
			fmt.Printf("  %s direction flipped\n", name)
		}
	}
}

// wiggle moves an axis wiggleDeg in its positive input direction and back.
// It fails if the axis cannot be read or either move was not sent.
func wiggle(ctx context.Context, d robot.Driver, a robot.AxisConfig, pause time.Duration) error {
	start, ok := d.ReadPosition(ctx, a.ID)
	if !ok {
		return fmt.Errorf("servo %d did not answer", a.ID)
	}
	if err := d.SetPosition(ctx, a.ID, a.Clamp(start+a.Sign*wiggleDeg)); err != nil {
		return err
	}
	time.Sleep(pause)
	if err := d.SetPosition(ctx, a.ID, start); err != nil {
		return err
	}
	time.Sleep(pause)
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-session/config"
	"go-session/debug"
	"go-session/midi"
	"go-session/project"
	"go-session/sequencer"
	"go-session/theme"
	"go-session/tui"
)

func main() {
	debugFlag := flag.Bool("debug", false, "write a debug log to ~/.config/go-session/debug.log")
	configPath := flag.String("config", "", "config file (default ~/.config/go-session/config.json)")
	palettePath := flag.String("palette", "", "GIMP .gpl palette for the UI")
	projectName := flag.String("project", "", "project to open (default: the last one)")
	flag.Parse()

	if *debugFlag {
		if err := debug.Enable(""); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	palette := theme.DefaultPalette()
	if *palettePath != "" {
		p, err := theme.LoadGPL(*palettePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "palette: %v (using default)\n", err)
		} else {
			palette = p
		}
	}
	th := theme.New(palette)

	store := project.NewStore()
	store.SetTransport(cfg.Transport.Tempo, cfg.Signature())
	store.SetGlobalQuantize(cfg.Session.DefaultQuantize)

	var library *project.Library
	if dir, err := project.DefaultDir(); err != nil {
		debug.Log("main", "no project dir, saving disabled: %v", err)
	} else {
		library = project.NewLibrary(dir)
	}

	name := *projectName
	if name == "" {
		name = cfg.UI.LastProject
	}

	manager := sequencer.NewManager(store, sequencer.Options{
		Lookahead:  time.Duration(cfg.Transport.LookaheadMs) * time.Millisecond,
		Interval:   time.Duration(cfg.Transport.IntervalMs) * time.Millisecond,
		RecordMode: cfg.Automation.RecordMode,
		Library:    library,
		Project:    name,
		Theme:      th,
	})

	if library != nil && name != "" {
		if err := manager.Load(""); err != nil {
			debug.Log("main", "open %s: %v", name, err)
		}
	}

	if cfg.Output.PortName != "" {
		out, err := midi.OpenCCOutput(cfg.Output.PortName, manager.Clock().Time, manager.Mixer(), cfg.Output.CCMap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "output: %v (automation stays internal)\n", err)
		} else {
			manager.SetOutput(out)
		}
	}

	deviceMgr := midi.NewDeviceManager(knobPorts(cfg)...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)
	manager.StartRuntime(ctx)

	m := tui.NewModel(manager, deviceMgr, th)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	cfg.UI.LastProject = manager.Project()
	if err := saveConfig(cfg, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "save config: %v\n", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func saveConfig(cfg *config.Config, path string) error {
	if path == "" {
		return cfg.Save()
	}
	return cfg.SaveTo(path)
}

// knobPorts lists the configured knob boxes for the device manager
func knobPorts(cfg *config.Config) []midi.KnobPort {
	var ports []midi.KnobPort
	for _, c := range cfg.AutoConnectControllers() {
		if c.Type == config.ControllerKnobs {
			ports = append(ports, midi.KnobPort{Name: c.PortName, Channel: c.InputChannel})
		}
	}
	return ports
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-session/midi"
	"go-session/theme"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	arg := ""
	if len(os.Args) > 2 {
		arg = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detect()
	case "leds":
		testLEDs()
	case "knobs":
		watchKnobs(arg)
	case "cc":
		sweepCC(arg)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List all MIDI ports")
	fmt.Println("  detect        - Show which ports would be opened as a Launchpad")
	fmt.Println("  leds          - Paint the Launchpad grid and echo pad presses")
	fmt.Println("  knobs <port>  - Print knob moves from an input port")
	fmt.Println("  cc <port>     - Sweep volume on channel 1 of an output port")
}

type ports struct {
	ins  []drivers.In
	outs []drivers.Out
}

// getPorts lists ports with a timeout (CoreMIDI can hang)
func getPorts() (ports, bool) {
	ch := make(chan ports, 1)
	go func() {
		ch <- ports{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r, true
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return ports{}, false
	}
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	r, ok := getPorts()
	if !ok {
		return
	}
	for i, p := range r.ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range r.outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

func findIn(r ports, match func(string) bool) drivers.In {
	for _, p := range r.ins {
		if match(p.String()) {
			return p
		}
	}
	return nil
}

func findOut(r ports, match func(string) bool) drivers.Out {
	for _, p := range r.outs {
		if match(p.String()) {
			return p
		}
	}
	return nil
}

func contains(sub string) func(string) bool {
	sub = strings.ToLower(sub)
	return func(name string) bool {
		return sub != "" && strings.Contains(strings.ToLower(name), sub)
	}
}

func detect() {
	fmt.Println("Looking for Launchpad X...")

	r, ok := getPorts()
	if !ok {
		return
	}
	in, out := findIn(r, isLaunchpad), findOut(r, isLaunchpad)
	if in != nil {
		fmt.Printf("Found input: %s\n", in.String())
	}
	if out != nil {
		fmt.Printf("Found output: %s\n", out.String())
	}

	if in != nil && out != nil {
		fmt.Println("\nLaunchpad X detected!")
	} else {
		fmt.Println("\nLaunchpad X not found")
	}
}

func testLEDs() {
	fmt.Println("Testing LED control...")

	r, ok := getPorts()
	if !ok {
		return
	}
	in, out := findIn(r, isLaunchpad), findOut(r, isLaunchpad)
	if out == nil {
		fmt.Println("No Launchpad found")
		return
	}

	lp, err := midi.NewLaunchpadController(out.String(), in, out)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer lp.Close()

	// Palette gradient, bottom-left to top-right
	palette := theme.DefaultPalette()
	var leds []midi.LEDUpdate
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			c := palette.Lookup(float64(row+col) / 14)
			leds = append(leds, midi.LEDUpdate{Row: row, Col: col, Color: c})
		}
	}
	for i := 0; i < 8; i++ {
		leds = append(leds,
			midi.LEDUpdate{Row: 8, Col: i, Color: [3]uint8{255, 80, 80}, Channel: midi.ChannelPulse},
			midi.LEDUpdate{Row: i, Col: 8, Color: [3]uint8{255, 200, 0}, Channel: midi.ChannelFlash},
		)
	}
	if err := lp.SetLEDBatch(leds); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	go func() {
		for ev := range lp.PadEvents() {
			fmt.Printf("  pad row=%d col=%d vel=%d\n", ev.Row, ev.Col, ev.Velocity)
		}
	}()

	fmt.Println("Press pads to see events. Press Enter to clear...")
	fmt.Scanln()

	for i := range leds {
		leds[i].Color = [3]uint8{}
		leds[i].Channel = midi.ChannelStatic
	}
	lp.SetLEDBatch(leds)

	fmt.Println("Done!")
}

func watchKnobs(port string) {
	if port == "" {
		fmt.Println("usage: miditest knobs <port name>")
		return
	}
	r, ok := getPorts()
	if !ok {
		return
	}
	in := findIn(r, contains(port))
	if in == nil {
		fmt.Printf("No input matching %q\n", port)
		return
	}

	kc, err := midi.NewKnobController(in.String(), in, 0)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer kc.Close()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.String())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-kc.KnobEvents():
			fmt.Printf("  ch=%d cc=%d value=%d (%.2f)\n", ev.Channel+1, ev.CC, ev.Value, midi.CCToUnit(ev.Value))
		}
	}
}

// sweepCC ramps volume up and back down over two seconds through a CCOutput
func sweepCC(port string) {
	if port == "" {
		fmt.Println("usage: miditest cc <port name>")
		return
	}
	r, ok := getPorts()
	if !ok {
		return
	}
	out := findOut(r, contains(port))
	if out == nil {
		fmt.Printf("No output matching %q\n", port)
		return
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		fmt.Printf("Error opening port: %v\n", err)
		return
	}

	origin := time.Now()
	toWall := func(sec float64) time.Time {
		return origin.Add(time.Duration(sec * float64(time.Second)))
	}
	cc := midi.NewCCOutput(send, toWall, nil, nil)
	cc.SetTrackChannel("sweep", 1)

	const steps = 64
	for i := 0; i <= 2*steps; i++ {
		gain := float64(i) / steps
		if i > steps {
			gain = 2 - gain
		}
		cc.SetTrackGain("sweep", gain, float64(i)/steps)
	}
	fmt.Printf("Sweeping CC7 on %s (%d messages)...\n", out.String(), cc.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 2200*time.Millisecond)
	defer cancel()
	cc.Run(ctx)
	fmt.Println("Done!")
}

package main

import (
	"fmt"

	"github.com/mastercactapus/gcinterp/gcode"
	"github.com/mastercactapus/gcinterp/spjs"
	"github.com/spf13/cobra"
	"github.com/tarm/serial"
)

var (
	streamFrom string
	streamEcho bool
)

var streamCmd = &cobra.Command{
	Use:   "stream [FILE|-]",
	Short: "Interpret lines as they arrive from a file, stdin, serial port or SPJS",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fl := cmd.Flags()
		if fl.Changed("port") {
			cfg.Serial.Port, _ = fl.GetString("port")
			cfg.SPJS.Port = cfg.Serial.Port
		}
		if fl.Changed("baud") {
			cfg.Serial.Baud, _ = fl.GetInt("baud")
		}
		if fl.Changed("url") {
			cfg.SPJS.URL, _ = fl.GetString("url")
		}
		if fl.Changed("open") {
			cfg.SPJS.Open, _ = fl.GetBool("open")
		}

		t := newTally()
		in := t.interpreter(interpreterLogger())
		if streamEcho {
			stderr := cmd.ErrOrStderr()
			in.OnData(func(ln gcode.Line) { fmt.Fprintln(stderr, ln.Text) })
		}

		var lines []gcode.Line
		var loadErr error
		cb := func(l []gcode.Line, err error) { lines, loadErr = l, err }

		var done <-chan struct{}
		switch streamFrom {
		case "serial":
			p, err := serial.OpenPort(&serial.Config{Name: cfg.Serial.Port, Baud: cfg.Serial.Baud})
			if err != nil {
				return err
			}
			defer p.Close()
			done = in.LoadFromStream(p, cb)
		case "spjs":
			r, err := spjs.Dial(cfg.SPJS.URL, cfg.SPJS.Port, cfg.SPJS.Open)
			if err != nil {
				return err
			}
			defer r.Close()
			done = in.LoadFromStream(r, cb)
		case "", "file":
			if len(args) == 1 && args[0] != "-" {
				done = in.LoadFromFile(args[0], cb)
				break
			}
			done = in.LoadFromStream(cmd.InOrStdin(), cb)
		default:
			return fmt.Errorf("unknown source '%s'", streamFrom)
		}

		<-done
		if loadErr != nil {
			return loadErr
		}
		return t.print(cmd.OutOrStdout(), len(lines))
	},
}

func init() {
	fl := streamCmd.Flags()
	fl.StringVar(&streamFrom, "from", "", "Source: file (default), serial or spjs.")
	fl.BoolVar(&streamEcho, "echo", false, "Echo each line to stderr as it is dispatched.")
	fl.String("port", "/dev/ttyUSB0", "Serial port path (or name if using SPJS).")
	fl.Int("baud", 115200, "Serial baud rate.")
	fl.String("url", "ws://cnc-bridge:8989/ws", "Websocket URL of the SPJS server to use.")
	fl.Bool("open", false, "Ask SPJS to open the port before reading.")
	rootCmd.AddCommand(streamCmd)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lpcio/core"
	"lpcio/host/loopback"
	"lpcio/host/mcu"
	"lpcio/host/serial"
)

// session holds the flag values and the connection shared by every
// command of one invocation (or one shell)
type session struct {
	device  string
	baud    int
	timeout time.Duration
	sim     bool
	verbose bool

	mcu     *mcu.MCU
	inShell bool
}

// client connects on first use and returns the MCU client
func (s *session) client(cmd *cobra.Command) (*mcu.MCU, error) {
	if s.mcu != nil {
		return s.mcu, nil
	}

	m := mcu.NewMCU()
	m.SetTimeout(s.timeout)
	if s.verbose {
		m.SetOutput(cmd.ErrOrStderr())
	}

	if s.sim {
		if s.verbose {
			stderr := cmd.ErrOrStderr()
			core.SetDebugWriter(func(msg string) { fmt.Fprintln(stderr, msg) })
			core.SetDebugEnabled(true)
			fmt.Fprintln(stderr, "Using simulated board")
		}
		m.ConnectPort(loopback.New())
	} else {
		cfg := serial.DefaultConfig(s.device)
		cfg.Baud = s.baud
		if s.verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "Connecting to %s at %d baud...\n", cfg.Device, cfg.Baud)
		}
		if err := m.ConnectWithConfig(cfg); err != nil {
			return nil, err
		}
	}

	if err := m.RetrieveDictionary(); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to retrieve dictionary: %w", err)
	}
	s.mcu = m
	return m, nil
}

func (s *session) close() {
	if s.mcu != nil {
		s.mcu.Close()
		s.mcu = nil
	}
}

// newRootCmd builds the command tree over a session
func newRootCmd(s *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lpcio-host",
		Short: "LPC214x GPIO host tool",
		Long: `Drive the GPIO, pin function select and DAC of an LPC214x board running
the lpcio firmware.

Examples:
  lpcio-host --device /dev/ttyUSB0 pin write P0.4 high
  lpcio-host pin read P1.20
  lpcio-host port write 0 0xB1
  lpcio-host func set P0.5 2
  lpcio-host dac 512 --bias
  lpcio-host --sim run blink.pin
  lpcio-host shell`,
		Version:       core.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Shell lines share the connection opened by the outer invocation
	if !s.inShell {
		addConnectionFlags(rootCmd, s)
	}

	rootCmd.AddCommand(
		newPinCmd(s),
		newPortCmd(s),
		newFuncCmd(s),
		newDACCmd(s),
		newRegCmd(s),
		newStatusCmd(s),
		newDictCmd(s),
		newRunCmd(s),
	)
	if !s.inShell {
		rootCmd.AddCommand(newShellCmd(s))
	}
	return rootCmd
}

func addConnectionFlags(rootCmd *cobra.Command, s *session) {
	rootCmd.PersistentFlags().StringVarP(&s.device, "device", "d", "/dev/ttyUSB0",
		"serial device path")
	rootCmd.PersistentFlags().IntVarP(&s.baud, "baud", "b", serial.DefaultBaud,
		"baud rate")
	rootCmd.PersistentFlags().DurationVarP(&s.timeout, "timeout", "t", time.Second,
		"response timeout")
	rootCmd.PersistentFlags().BoolVar(&s.sim, "sim", false,
		"run against an in-process simulated board")
	rootCmd.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false,
		"verbose output")
}

// execute runs one command line against a session
func execute(s *session, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	rootCmd := newRootCmd(s)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(context.Background())
}

// Execute runs the root command
func Execute() {
	s := &session{}
	err := execute(s, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	s.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

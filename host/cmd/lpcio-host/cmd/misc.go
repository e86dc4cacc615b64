package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"lpcio/host/script"
)

func newStatusCmd(s *session) *cobra.Command {
	var stop, leave bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show or change the firmware shutdown state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stop && leave {
				return fmt.Errorf("cannot specify both --stop and --clear")
			}
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			switch {
			case stop:
				if err := m.EmergencyStop(); err != nil {
					return err
				}
			case leave:
				if err := m.ClearShutdown(); err != nil {
					return err
				}
			}
			st, err := m.GetStatus()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "shutdown: %v\ntrace events: %d\n", st.Shutdown, st.TraceCount)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&stop, "stop", false, "emergency stop: refuse GPIO commands")
	statusCmd.Flags().BoolVar(&leave, "clear", false, "leave shutdown")
	return statusCmd
}

func newDictCmd(s *session) *cobra.Command {
	var raw bool
	dictCmd := &cobra.Command{
		Use:   "dict",
		Short: "Show the firmware data dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), string(m.GetDictionaryRaw()))
				return nil
			}
			m.PrintDictionary(cmd.OutOrStdout())
			return nil
		},
	}
	dictCmd.Flags().BoolVar(&raw, "raw", false, "print the raw JSON")
	return dictCmd
}

func newRunCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a pin script",
		Long: `Run a pin script. One statement per line, # starts a comment:

  set P0.4 high          drive a pin
  get P1.20              read a pin
  port 0 = 0xB1          write a byte group
  port 12 ?              read a group
  func P0.5 = 2          select a pin function
  func P0.5 ?            read a pin function
  dac 512 bias           set the analog output
  expect P1.4 high       fail unless a pin reads high
  expect port 12 = 0x3C  fail unless a group reads 0x3C`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := script.ParseFile(args[0])
			if err != nil {
				return err
			}
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			return script.Exec(cmd.Context(), m, prog, cmd.OutOrStdout())
		},
	}
}

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lpcio/core"
)

func parseLevel(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "high", "1", "on":
		return true, nil
	case "low", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid level %q (use high or low)", s)
}

func parseNumber(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return uint32(v), nil
}

func levelName(high bool) string {
	if high {
		return "high"
	}
	return "low"
}

func newPinCmd(s *session) *cobra.Command {
	pinCmd := &cobra.Command{
		Use:   "pin",
		Short: "Write or read a single pin",
		Long: `Write or read a single pin. Pins are named P0.0-P0.31 and P1.0-P1.31,
or by logical id (0-31, 100-131).

Reading a pin makes it an input, so reading back a pin just written does not
return the written level.`,
	}

	pinCmd.AddCommand(&cobra.Command{
		Use:     "write <pin> <high|low>",
		Short:   "Configure a pin as output and drive it",
		Example: "  lpcio-host pin write P0.4 high",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[1])
			if err != nil {
				return err
			}
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			pin, err := m.PinByName(args[0])
			if err != nil {
				return err
			}
			if err := m.WritePin(pin, level); err != nil {
				return err
			}
			if s.verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s <- %s\n", pin, levelName(level))
			}
			return nil
		},
	})

	pinCmd.AddCommand(&cobra.Command{
		Use:     "read <pin>",
		Short:   "Configure a pin as input and read it",
		Example: "  lpcio-host pin read P1.20",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			pin, err := m.PinByName(args[0])
			if err != nil {
				return err
			}
			level, err := m.ReadPin(pin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", pin, levelName(level))
			return nil
		},
	})
	return pinCmd
}

func newPortCmd(s *session) *cobra.Command {
	portCmd := &cobra.Command{
		Use:   "port",
		Short: "Write or read a port group",
		Long: `Write or read a port group.

Groups 0-3 are the four bytes of port 0, groups 12 and 13 the upper two bytes
of port 1. Groups 9 and 19 read the whole of port 0 or port 1 and cannot be
written.`,
	}

	portCmd.AddCommand(&cobra.Command{
		Use:     "write <group> <value>",
		Short:   "Drive the 8 pins of a byte group",
		Example: "  lpcio-host port write 0 0xB1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			value, err := parseNumber(args[1])
			if err != nil {
				return err
			}
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			return m.WritePort(core.Group(group), value)
		},
	})

	portCmd.AddCommand(&cobra.Command{
		Use:     "read <group>",
		Short:   "Configure a group as inputs and read it",
		Example: "  lpcio-host port read 12",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			v, err := m.ReadPort(core.Group(group))
			if err != nil {
				return err
			}
			if core.Group(group) == core.GroupFullA || core.Group(group) == core.GroupFullB {
				fmt.Fprintf(cmd.OutOrStdout(), "port %d = 0x%08X\n", group, v)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "port %d = 0x%02X\n", group, v)
			}
			return nil
		},
	})
	return portCmd
}

func newFuncCmd(s *session) *cobra.Command {
	funcCmd := &cobra.Command{
		Use:   "func",
		Short: "Select or read a pin's function",
		Long: `Select or read the 2-bit pin function code (0-3). P0.0-P0.31 and
P1.16-P1.31 have function select fields.`,
	}

	funcCmd.AddCommand(&cobra.Command{
		Use:     "set <pin> <code>",
		Short:   "Select a pin function",
		Example: "  lpcio-host func set P0.5 2",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseNumber(args[1])
			if err != nil {
				return err
			}
			if code > core.FunctionMax {
				return fmt.Errorf("function code %d out of range 0-%d", code, core.FunctionMax)
			}
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			pin, err := m.PinByName(args[0])
			if err != nil {
				return err
			}
			return m.SelectFunction(pin, uint8(code))
		},
	})

	funcCmd.AddCommand(&cobra.Command{
		Use:   "get <pin>",
		Short: "Read a pin's function code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			pin, err := m.PinByName(args[0])
			if err != nil {
				return err
			}
			fn, err := m.ReadFunction(pin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s function %d\n", pin, fn)
			return nil
		},
	})
	return funcCmd
}

func newDACCmd(s *session) *cobra.Command {
	var bias bool
	dacCmd := &cobra.Command{
		Use:   "dac <value>",
		Short: "Set the analog output (0-1023)",
		Long: `Set the 10-bit DAC output. --bias selects the slower settling time
with lower power consumption.`,
		Example: "  lpcio-host dac 512 --bias",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			return m.WriteDAC(value, bias)
		},
	}
	dacCmd.Flags().BoolVar(&bias, "bias", false, "select the low-power settling mode")
	return dacCmd
}

func parseRegister(name string) (core.Register, error) {
	for _, r := range core.Registers() {
		if strings.EqualFold(r.String(), name) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", name)
}

func newRegCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "reg <name>",
		Short:   "Read a raw register (IOPIN0, IODIR1, PINSEL2, DACR, ...)",
		Example: "  lpcio-host reg DACR",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := parseRegister(args[0])
			if err != nil {
				return err
			}
			m, err := s.client(cmd)
			if err != nil {
				return err
			}
			v, err := m.ReadRegister(reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (0x%08X) = 0x%08X\n", reg, reg.Address(), v)
			return nil
		},
	}
}

package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

func newShellCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt running lpcio-host commands",
		Long: `Read commands from stdin, one per line, over a single connection.
Lines are split like a POSIX shell, so quoting works. Type "quit" to leave.

Example session:
  > pin write P0.4 high
  > port read 12
  port 12 = 0x00
  > quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := s.client(cmd); err != nil {
				return err
			}
			return runShell(s, cmd)
		},
	}
}

func runShell(s *session, cmd *cobra.Command) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	s.inShell = true
	defer func() { s.inShell = false }()

	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}

		line := strings.TrimSpace(in.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "quit", "exit", "q":
			return nil
		}

		if err := execute(s, words, cmd.InOrStdin(), out, errOut); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	}
}

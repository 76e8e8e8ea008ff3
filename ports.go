package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go-eartrain/midi"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI input and output ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer midi.CloseDriver()
			fmt.Fprintf(cmd.ErrOrStderr(), "(waiting up to %s...)\n", midi.PortTimeout)
			ports, err := midi.ListPorts(midi.PortTimeout)
			if err != nil {
				return err
			}
			printPorts(cmd.OutOrStdout(), ports.InNames(), ports.OutNames())
			return nil
		},
	}
}

func printPorts(w io.Writer, ins, outs []string) {
	fmt.Fprintln(w, "=== MIDI Input Ports ===")
	printPortList(w, ins)
	fmt.Fprintln(w, "\n=== MIDI Output Ports ===")
	printPortList(w, outs)
}

func printPortList(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for i, name := range names {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
}

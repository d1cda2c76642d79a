package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/sortdicom"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of sortdicom",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sortdicom version %s\n", strings.TrimSpace(sortdicom.Version))
		},
	}
}

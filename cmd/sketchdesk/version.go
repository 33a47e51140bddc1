package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleTitle.Render(AppName)+" "+styleValue.Render(version))
			printKeyValue(out, "commit", commit)
			printKeyValue(out, "go", runtime.Version())
			printKeyValue(out, "platform", runtime.GOOS+"/"+runtime.GOARCH)
		},
	}
}

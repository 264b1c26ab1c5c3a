package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionTemplate = `tally %s
commit:  %s
built:   %s
go:      %s %s/%s
`

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), versionTemplate,
				info.Version, info.Commit, info.Date,
				runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

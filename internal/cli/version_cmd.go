package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{Version: Version, Go: runtime.Version(), OS: runtime.GOOS, Arch: runtime.GOARCH}
			if handled, err := writeOutput(out(cmd), a.format(), info); handled || err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "goalcheck %s (%s %s/%s)\n", info.Version, info.Go, info.OS, info.Arch)
			return nil
		},
	}
}

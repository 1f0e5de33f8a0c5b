package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamaops/storage-service/internal/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()

			fmt.Printf("storage-service %s\n", info.Version)
			if info.GitCommit != "" {
				fmt.Printf("commit: %s\n", info.GitCommit)
			}
			if info.BuildDate != "" {
				fmt.Printf("built:  %s\n", info.BuildDate)
			}
			fmt.Printf("go:     %s (%s)\n", info.GoVersion, info.Platform)
		},
	}
}

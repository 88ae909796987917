package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "fpctl",
	Short:        "Operate the fingerprint access service",
	SilenceUsage: true,
}

// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/zclone/cmd/config"
	"github.com/stratastor/zclone/cmd/run"
	"github.com/stratastor/zclone/cmd/version"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zclone",
		Short: "zclone: ZFS dataset replication daemon",
	}

	rootCmd.AddCommand(run.NewRunCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(config.NewConfigCmd())

	return rootCmd
}

package cmd

import (
	"github.com/spf13/cobra"
)

const BinaryName = "ttgd"

// NewRootCmd creates a new root command for ttgd. It is called once in main.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           BinaryName,
		Short:         "Two-thirds guessing game ABCI daemon",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// set the default command outputs
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
		},
	}

	rootCmd.AddCommand(
		StartCmd(),
		CommitmentCmd(),
		KeygenCmd(),
		SignTxCmd(),
	)
	return rootCmd
}

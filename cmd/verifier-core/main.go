// Command verifier-core runs the unfrozen-block consensus core standalone
// for local operation and exposes its operator control surface
// (threshold/hash overrides, purge, status) as cobra subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "verifier-core",
	Short: "Unfrozen-block consensus core: admission, voting, and freezing for a verifier node",
	Long: `verifier-core runs the candidate pool, vote decider, and freezer that
together select one block per height and promote it to the frozen chain.

It is a standalone harness around the consensus core; FrozenChain,
BalanceEngine, VoteRegistry, MeshTransport, and NodeRegistry are supplied
by the embedding node process in production and are stubbed here for local
inspection and testing of the control surface.`,
}

func main() {
	rootCmd.AddCommand(
		runCmd(),
		statusCmd(),
		overrideCmd(),
		purgeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

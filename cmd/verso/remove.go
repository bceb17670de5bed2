package main

import (
	"fmt"

	"github.com/jacksmith/verso/internal/cli"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <position>",
	Aliases: []string{"rm"},
	Short:   "Remove a line from the cart",
	Long: `Remove the line at the given position from the cart.

Positions are numbered from 1 as shown by "verso show". The remaining lines
keep their order.

Examples:
  verso remove 2`,
	Args:              cobra.ExactArgs(1),
	RunE:              runRemove,
	ValidArgsFunction: completePositions,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	index, err := cli.ParsePosition(args[0])
	if err != nil {
		return err
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	li, found := sess.store.Item(index)
	if err := settle(sess.drawer.Controls(index).Remove()); err != nil {
		return err
	}
	if found {
		fmt.Printf("Removed %s\n", describe(li.Name, li.Variant()))
	}
	return nil
}

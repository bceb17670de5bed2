package main

import (
	"fmt"
	"strconv"

	"github.com/jacksmith/verso/internal/cli"
	"github.com/spf13/cobra"
)

var qtyCmd = &cobra.Command{
	Use:   "qty <position> <quantity>",
	Short: "Set the quantity of a cart line",
	Long: `Set the quantity of the line at the given position.

A quantity of 0 or less removes the line; the largest is 999. A negative
quantity must follow "--" so it is not read as a flag.

Examples:
  verso qty 1 3
  verso qty 2 0       # same as verso remove 2
  verso qty 2 -- -1   # also removes line 2`,
	Args:              cobra.ExactArgs(2),
	RunE:              runQty,
	ValidArgsFunction: completePositions,
}

var incCmd = &cobra.Command{
	Use:               "inc <position>",
	Short:             "Increase the quantity of a cart line by one",
	Args:              cobra.ExactArgs(1),
	RunE:              runStep,
	ValidArgsFunction: completePositions,
}

var decCmd = &cobra.Command{
	Use:               "dec <position>",
	Short:             "Decrease the quantity of a cart line by one",
	Long:              `Decrease the quantity of a cart line by one, removing it at zero.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePositions,
}

func init() {
	// Assigned here: runStep refers to decCmd, so a literal RunE would form an initialization cycle.
	decCmd.RunE = runStep
	rootCmd.AddCommand(qtyCmd)
	rootCmd.AddCommand(incCmd)
	rootCmd.AddCommand(decCmd)
}

func runQty(cmd *cobra.Command, args []string) error {
	index, err := cli.ParsePosition(args[0])
	if err != nil {
		return err
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return &cli.ArgError{Arg: "quantity", Value: args[1], Message: "must be a whole number"}
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	before, found := sess.store.Item(index)
	if err := settle(sess.store.UpdateQuantity(index, quantity)); err != nil {
		return err
	}
	if found {
		printQuantity(describe(before.Name, before.Variant()), quantity)
	}
	return nil
}

// runStep serves inc and dec through the drawer's row controls.
func runStep(cmd *cobra.Command, args []string) error {
	index, err := cli.ParsePosition(args[0])
	if err != nil {
		return err
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	controls := sess.drawer.Controls(index)
	step, delta := controls.Increment, 1
	if cmd.Name() == decCmd.Name() {
		step, delta = controls.Decrement, -1
	}

	before, found := sess.store.Item(index)
	if err := settle(step()); err != nil {
		return err
	}
	if found {
		printQuantity(describe(before.Name, before.Variant()), before.Quantity+delta)
	}
	return nil
}

func printQuantity(what string, quantity int) {
	if quantity <= 0 {
		fmt.Printf("Removed %s\n", what)
		return
	}
	fmt.Printf("%s × %d\n", what, quantity)
}

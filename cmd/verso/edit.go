package main

import (
	"errors"
	"fmt"

	"github.com/jacksmith/verso/internal/cli"
	"github.com/jacksmith/verso/internal/model"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the cart in $EDITOR",
	Long: `Open the cart snapshot as JSON in $VISUAL or $EDITOR.

Save and close the editor to apply the changes. Lines are checked before
anything is replaced: every line needs an id, a name, a price of at least
zero and a quantity of at least 1. Lines that end up with the same id, size
and grind are merged. Saving "[]" empties the cart.`,
	Args: cobra.NoArgs,
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	content, err := snapshotJSON(sess.store.Items())
	if err != nil {
		return err
	}

	edited, err := cli.EditInEditor(content, ".json")
	if errors.Is(err, cli.ErrNoChanges) {
		fmt.Println("No changes made")
		return nil
	}
	if err != nil {
		return err
	}

	items, err := model.DecodeCart(edited)
	if err != nil {
		return fmt.Errorf("cart not changed: %w", err)
	}
	if err := sess.store.Replace(items); err != nil {
		if err = settle(err); err != nil {
			return fmt.Errorf("cart not changed: %w", err)
		}
	}

	fmt.Printf("Cart updated: %d items, %s\n", sess.store.ItemCount(), model.FormatPrice(sess.config.Currency, sess.store.Total()))
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove everything from the cart",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	if sess.store.Len() == 0 {
		fmt.Println("Cart is already empty")
		return nil
	}
	if err := settle(sess.store.Clear()); err != nil {
		return err
	}
	fmt.Println("Cart cleared")
	return nil
}

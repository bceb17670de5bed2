package main

import (
	"fmt"

	"github.com/jacksmith/verso/internal/storage"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new verso cart",
	Long: `Create a .verso/ directory holding the saved cart.

Settings live next to it in .versoconfig.yaml and .env; see
"verso help config" for the available keys.

Fails if .verso/ already exists in the directory.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	s, err := storage.Init(flagDir)
	if err != nil {
		return err
	}
	fmt.Printf("Initialized verso in %s/\n", s.VersoPath())
	return nil
}

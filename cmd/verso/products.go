package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jacksmith/verso/internal/catalog"
	"github.com/jacksmith/verso/internal/cli"
	"github.com/jacksmith/verso/internal/model"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the coffees in the catalog",
	Long: `List the coffees in the catalog with their price in each size.

Examples:
  verso products
  verso products --roast=dark`,
	Args: cobra.NoArgs,
	RunE: runProducts,
}

var productsRoast string

func init() {
	productsCmd.Flags().StringVarP(&productsRoast, "roast", "r", catalog.FilterAll,
		"show only one roast ("+strings.Join(catalog.Roasts, ", ")+" or "+catalog.FilterAll+")")

	productsCmd.RegisterFlagCompletionFunc("roast", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return append(append([]string(nil), catalog.Roasts...), catalog.FilterAll), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(productsCmd)
}

func runProducts(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	entries, err := sess.catalog.Filter(productsRoast)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No coffees match.")
		return nil
	}

	sizes := sess.catalog.Sizes
	table := cli.NewTable()
	table.SetMaxWidth(1, cli.DefaultMaxNameWidth)

	header := []string{cli.Gray("ID"), cli.Gray("NAME"), cli.Gray("ROAST")}
	right := make([]int, 0, len(sizes))
	for i, size := range sizes {
		header = append(header, cli.Gray(size))
		right = append(right, 3+i)
	}
	table.AlignRight(right...)
	table.AddRow(header...)

	for i := range entries {
		e := &entries[i]
		row := []string{e.ID, e.Name, e.Roast}
		for _, size := range sizes {
			price, ok := e.Price(size)
			if !ok {
				row = append(row, cli.Gray("-"))
				continue
			}
			row = append(row, model.FormatPrice(sess.config.Currency, price))
		}
		table.AddRow(row...)
	}
	table.Render(os.Stdout)

	fmt.Println()
	fmt.Println(cli.Gray("Grinds: " + strings.Join(sess.catalog.Grinds, ", ")))
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/jacksmith/verso/internal/cart"
	"github.com/jacksmith/verso/internal/catalog"
	"github.com/jacksmith/verso/internal/cli"
	"github.com/jacksmith/verso/internal/model"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <product>",
	Short: "Add a coffee to the cart",
	Long: `Add a coffee to the cart and open the cart drawer.

The product is a catalog id (see "verso products"), priced for the chosen
size. Alternatively pass a product descriptor with --json, as attached to a
storefront "add to cart" button; its price is used as given.

Adding a coffee already in the cart in the same size and grind increases its
quantity instead of adding a new line, up to 999 per line. Sizes and grinds
may be abbreviated. With --keep-shopping the drawer stays closed.

Examples:
  verso add house-blend
  verso add house-blend --size=2lb --grind=drip --qty=2
  verso add house-blend -s 5 -g esp
  verso add sumatra-mandheling --keep-shopping
  verso add --json '{"id":"house-blend","name":"House Blend","price":18.00}'`,
	Args:              cobra.MaximumNArgs(1),
	RunE:              runAdd,
	ValidArgsFunction: completeProductIDs,
}

var (
	addQuantity int
	addSize     string
	addGrind    string
	addJSON     string
	addKeepShop bool
)

func init() {
	addCmd.Flags().IntVarP(&addQuantity, "qty", "q", 1, "quantity to add")
	addCmd.Flags().StringVarP(&addSize, "size", "s", "", "bag size (default from config)")
	addCmd.Flags().StringVarP(&addGrind, "grind", "g", "", "grind (default from config)")
	addCmd.Flags().StringVar(&addJSON, "json", "", "product descriptor as JSON")
	addCmd.Flags().BoolVarP(&addKeepShop, "keep-shopping", "k", false, "continue shopping without opening the cart drawer")

	addCmd.RegisterFlagCompletionFunc("size", completeSizes)
	addCmd.RegisterFlagCompletionFunc("grind", completeGrinds)

	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	switch {
	case addJSON == "" && len(args) == 0:
		return fmt.Errorf("name a product to add, or pass --json")
	case addJSON != "" && len(args) > 0:
		return fmt.Errorf("give either a product id or --json, not both")
	}
	if addQuantity < 1 || addQuantity > model.MaxQuantity {
		return &cli.ArgError{
			Arg:     "quantity",
			Value:   fmt.Sprint(addQuantity),
			Message: fmt.Sprintf("must be between 1 and %d", model.MaxQuantity),
		}
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	size := sess.config.DefaultSize
	if addSize != "" {
		size = addSize
	}
	grind := sess.config.DefaultGrind
	if addGrind != "" {
		grind = addGrind
	}

	if grind, err = cli.MatchChoice("grind", grind, sess.catalog.Grinds); err != nil {
		return err
	}

	var product model.Product
	if addJSON != "" {
		if size, err = cli.MatchChoice("size", size, sess.catalog.Sizes); err != nil {
			return err
		}
		if product, err = catalog.ParseDescriptor([]byte(addJSON)); err != nil {
			return err
		}
	} else {
		entry, err := sess.catalog.Lookup(args[0])
		if err != nil {
			return err
		}
		if size, err = cli.MatchChoice("size", size, entry.SizesIn(sess.catalog.Sizes)); err != nil {
			return err
		}
		if product, err = entry.Product(size); err != nil {
			return err
		}
	}

	err = sess.store.AddItem(product, cart.AddOptions{Quantity: addQuantity, Size: size, Grind: grind})
	if err = settle(err); err != nil {
		return err
	}

	if addKeepShop {
		sess.drawer.ContinueShopping()
	}

	fmt.Printf("Added %d × %s\n", addQuantity, describe(product.Name, model.VariantLabel(size, grind)))
	if sess.drawer.IsOpen() {
		fmt.Println()
		sess.drawer.Render(os.Stdout)
	}
	return nil
}

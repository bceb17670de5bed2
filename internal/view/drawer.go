// Package view presents the cart as a drawer: a panel that opens when an item
// is added, lists the line items with their controls, and shows the total.
package view

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jacksmith/verso/internal/cart"
	"github.com/jacksmith/verso/internal/cli"
	"github.com/jacksmith/verso/internal/model"
)

// Drawer is the cart drawer. It implements cart.Listener; after Bind its
// contents come only from CartChanged notifications.
type Drawer struct {
	currency string
	store    *cart.Store
	items    []model.LineItem
	open     bool
}

var _ cart.Listener = (*Drawer)(nil)

// NewDrawer returns a closed drawer printing prices with the given symbol.
func NewDrawer(currency string) *Drawer {
	return &Drawer{currency: currency}
}

// Bind attaches the drawer to a store for its row controls and takes the
// store's current contents. The drawer is usually registered as a listener
// in cart.Open, so it is bound once the store exists.
func (d *Drawer) Bind(s *cart.Store) {
	d.store = s
	d.items = s.Items()
}

// CartChanged refreshes the drawer contents.
func (d *Drawer) CartChanged(items []model.LineItem) {
	d.items = items
}

// OpenRequested opens the drawer.
func (d *Drawer) OpenRequested() {
	d.open = true
}

// Open opens the drawer.
func (d *Drawer) Open() { d.open = true }

// Close closes the drawer.
func (d *Drawer) Close() { d.open = false }

// ContinueShopping closes the drawer.
func (d *Drawer) ContinueShopping() { d.Close() }

// IsOpen reports whether the drawer is open.
func (d *Drawer) IsOpen() bool { return d.open }

// Badge returns the item count shown on the cart button, or "" when the cart
// is empty and the badge is hidden.
func (d *Drawer) Badge() string {
	n := model.CartCount(d.items)
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Render writes the drawer: the empty-cart message, or one row per item
// followed by the total. Rows are numbered from 1.
func (d *Drawer) Render(w io.Writer) {
	if len(d.items) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		fmt.Fprintln(w, cli.Gray("Browse coffees with `verso products`."))
		return
	}

	fmt.Fprintf(w, "%s %s\n\n", cli.Bold("Your Cart"), cli.Gray("("+d.Badge()+")"))

	table := cli.NewTable()
	table.SetMaxWidth(1, cli.DefaultMaxNameWidth)
	table.AlignRight(0, 3, 4, 5)
	for i := range d.items {
		li := &d.items[i]
		table.AddRow(
			strconv.Itoa(i+1)+".",
			li.Name,
			cli.Gray(li.Variant()),
			model.FormatPrice(d.currency, li.Price),
			"× "+strconv.Itoa(li.Quantity),
			model.FormatPrice(d.currency, li.Subtotal()),
		)
	}
	table.Render(w)

	fmt.Fprintf(w, "\n%s %s\n", cli.Bold("Total:"), cli.Green(model.FormatPrice(d.currency, model.CartTotal(d.items))))
}

// RowControls are the actions of one drawer row, bound to the store and the
// row's position when the row was rendered.
type RowControls struct {
	Increment func() error
	Decrement func() error
	Remove    func() error
}

// Controls returns the controls of the row at index. A control whose row no
// longer exists returns the store's *cart.IndexError and changes nothing.
func (d *Drawer) Controls(index int) RowControls {
	s := d.store
	step := func(delta int) func() error {
		return func() error {
			if s == nil {
				return fmt.Errorf("cart drawer is not bound to a store")
			}
			li, ok := s.Item(index)
			if !ok {
				return s.UpdateQuantity(index, 1)
			}
			return s.UpdateQuantity(index, li.Quantity+delta)
		}
	}
	return RowControls{
		Increment: step(1),
		Decrement: step(-1),
		Remove: func() error {
			if s == nil {
				return fmt.Errorf("cart drawer is not bound to a store")
			}
			return s.RemoveItem(index)
		},
	}
}

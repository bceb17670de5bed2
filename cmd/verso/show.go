package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jacksmith/verso/internal/cli"
	"github.com/jacksmith/verso/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	Long: `Open the cart drawer: every line with its size, grind, price and
quantity, numbered for use with remove, qty, inc and dec, and the total.
When the storage records it, the time the cart was last saved follows.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

var totalCmd = &cobra.Command{
	Use:   "total",
	Short: "Print the item count and total",
	Args:  cobra.NoArgs,
	RunE:  runTotal,
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(totalCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.drawer.Open()
	sess.drawer.Render(os.Stdout)
	if !sess.store.Persistent() {
		fmt.Println(cli.Yellow("(not saved)"))
		return nil
	}
	if at, ok := sess.savedAt(); ok {
		fmt.Println(cli.Gray("Saved " + at.Local().Format(savedTimeLayout)))
	}
	return nil
}

const savedTimeLayout = "Jan 2, 2006 15:04"

// timestamped is implemented by slots that record when a key was last written.
type timestamped interface {
	UpdatedAt(key string) (time.Time, bool, error)
}

// savedAt returns when the cart snapshot was last written, if the slot
// records it and a snapshot exists.
func (s *session) savedAt() (time.Time, bool) {
	ts, ok := s.slot.(timestamped)
	if !ok {
		return time.Time{}, false
	}
	at, found, err := ts.UpdatedAt(s.config.SlotKey)
	if err != nil {
		s.log.Debug("failed to read cart save time", zap.Error(err))
		return time.Time{}, false
	}
	return at, found
}

func runTotal(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Printf("Items: %d\n", sess.store.ItemCount())
	fmt.Printf("Total: %s\n", model.FormatPrice(sess.config.Currency, sess.store.Total()))
	return nil
}

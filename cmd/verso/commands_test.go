package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jacksmith/verso/internal/cli"
	"github.com/jacksmith/verso/internal/model"
	"github.com/jacksmith/verso/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStorage creates a temporary .verso directory and points the CLI at it.
func setupTestStorage(t *testing.T) (string, *storage.Storage) {
	t.Helper()

	dir := t.TempDir()
	s, err := storage.Init(dir)
	require.NoError(t, err)

	// Keep the developer's settings out of the tests
	for _, key := range []string{
		"VERSO_STORAGE", "VERSO_SLOT_KEY", "VERSO_SQLITE_PATH", "VERSO_REDIS_URL", "VERSO_REDIS_ADDR",
		"VERSO_REDIS_TIMEOUT", "VERSO_DEFAULT_SIZE", "VERSO_DEFAULT_GRIND", "VERSO_LOG_LEVEL",
		"VERSO_CATALOG", "VERSO_CURRENCY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	flagDir = dir
	flagVerbose = false
	cli.SetColorEnabled(false)
	resetFlags()
	t.Cleanup(func() {
		flagDir = "."
		cli.SetColorEnabled(true)
	})
	return dir, s
}

func resetFlags() {
	addQuantity = 1
	addSize = ""
	addGrind = ""
	addJSON = ""
	addKeepShop = false
	productsRoast = "all"
	dumpFormat = "json"
}

// capture runs fn and returns what it wrote to stdout and stderr.
func capture(t *testing.T, fn func() error) (string, string, error) {
	t.Helper()

	oldOut, oldErr := os.Stdout, os.Stderr
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout, os.Stderr = outW, errW

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		io.Copy(&stderr, errR)
		close(done)
	}()

	runErr := fn()

	outW.Close()
	errW.Close()
	stdout.ReadFrom(outR)
	<-done
	os.Stdout, os.Stderr = oldOut, oldErr

	return stdout.String(), stderr.String(), runErr
}

// add runs `verso add` with the given flags set.
func add(t *testing.T, flags func(), args ...string) (string, error) {
	t.Helper()
	resetFlags()
	if flags != nil {
		flags()
	}
	out, _, err := capture(t, func() error { return runAdd(addCmd, args) })
	return out, err
}

// assertNoSavedCart checks that the file slot holds no snapshot.
func assertNoSavedCart(t *testing.T, s *storage.Storage) {
	t.Helper()
	_, found, err := s.Get("versoCart")
	require.NoError(t, err)
	assert.False(t, found, "cart snapshot should be deleted")
}

// savedCart reads the snapshot the file slot holds.
func savedCart(t *testing.T, s *storage.Storage) []model.LineItem {
	t.Helper()
	data, found, err := s.Get("versoCart")
	require.NoError(t, err)
	require.True(t, found, "cart snapshot should be saved")
	items, err := model.DecodeCart(data)
	require.NoError(t, err)
	return items
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	flagDir = dir
	defer func() { flagDir = "." }()

	out, _, err := capture(t, func() error { return runInit(initCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized verso in "+filepath.Join(dir, ".verso")+"/")
	assert.DirExists(t, filepath.Join(dir, ".verso", "slots"))

	_, _, err = capture(t, func() error { return runInit(initCmd, nil) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCommandsRequireInit(t *testing.T) {
	flagDir = t.TempDir()
	defer func() { flagDir = "." }()

	_, _, err := capture(t, func() error { return runShow(showCmd, nil) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verso init")
}

func TestAddCommand(t *testing.T) {
	_, s := setupTestStorage(t)

	out, err := add(t, nil, "house-blend")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 1 × House Blend (12oz • whole-bean)")
	// The drawer opens after an add
	assert.Contains(t, out, "Your Cart (1)")
	assert.Contains(t, out, "Total: $18.00")

	items := savedCart(t, s)
	require.Len(t, items, 1)
	assert.Equal(t, "house-blend", items[0].ID)
	assert.Equal(t, "18.00", items[0].Price.StringFixed(2))
	assert.Equal(t, "placeholder", items[0].Attributes["image"])

	t.Run("same variant merges", func(t *testing.T) {
		out, err := add(t, func() { addQuantity = 2 }, "House-Blend")
		require.NoError(t, err)
		assert.Contains(t, out, "Added 2 × House Blend")

		items := savedCart(t, s)
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
	})

	t.Run("abbreviated size and grind", func(t *testing.T) {
		out, err := add(t, func() { addSize = "2"; addGrind = "fr" }, "house-blend")
		require.NoError(t, err)
		assert.Contains(t, out, "House Blend (2lb • french-press)")

		items := savedCart(t, s)
		require.Len(t, items, 2)
		assert.Equal(t, "60.00", items[1].Price.StringFixed(2))
		assert.Equal(t, "french-press", items[1].Grind)
	})

	t.Run("keep shopping leaves the drawer closed", func(t *testing.T) {
		out, err := add(t, func() { addKeepShop = true }, "house-blend")
		require.NoError(t, err)
		assert.Contains(t, out, "Added 1 × House Blend (12oz • whole-bean)")
		assert.NotContains(t, out, "Your Cart")
		assert.Equal(t, 4, savedCart(t, s)[0].Quantity)
	})

	t.Run("merging past the line limit is rejected", func(t *testing.T) {
		_, err := add(t, func() { addQuantity = model.MaxQuantity }, "house-blend")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid quantity: must be at most 999")
		assert.Equal(t, 4, savedCart(t, s)[0].Quantity)
	})

	t.Run("descriptor", func(t *testing.T) {
		out, err := add(t, func() {
			addJSON = `{"id":"gift-card","name":"Gift Card","price":"25","image":"card"}`
		})
		require.NoError(t, err)
		assert.Contains(t, out, "Added 1 × Gift Card (12oz • whole-bean)")

		items := savedCart(t, s)
		require.Len(t, items, 3)
		assert.Equal(t, "card", items[2].Attributes["image"])
	})
}

func TestAddCommandErrors(t *testing.T) {
	_, s := setupTestStorage(t)

	tests := []struct {
		name    string
		flags   func()
		args    []string
		errText string
	}{
		{"nothing to add", nil, nil, "name a product"},
		{"id and descriptor", func() { addJSON = `{}` }, []string{"house-blend"}, "not both"},
		{"zero quantity", func() { addQuantity = 0 }, []string{"house-blend"}, "invalid quantity"},
		{"quantity over the line limit", func() { addQuantity = model.MaxQuantity + 1 }, []string{"house-blend"}, "must be between 1 and 999"},
		{"unknown product", nil, []string{"instant"}, "product instant not found"},
		{"size not sold", func() { addSize = "5lb" }, []string{"ethiopia-yirgacheffe"}, "expected one of 12oz, 2lb"},
		{"unknown grind", func() { addGrind = "cold-brew" }, []string{"house-blend"}, "invalid grind"},
		{"descriptor without price", func() { addJSON = `{"id":"x","name":"X"}` }, nil, "invalid price"},
		{"malformed descriptor", func() { addJSON = `{"id":` }, nil, "invalid product descriptor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := add(t, tt.flags, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}

	_, found, err := s.Get("versoCart")
	require.NoError(t, err)
	assert.False(t, found, "failed adds must not write the cart")
}

func TestQuantityCommands(t *testing.T) {
	_, s := setupTestStorage(t)

	_, err := add(t, nil, "house-blend")
	require.NoError(t, err)
	_, err = add(t, func() { addSize = "2lb" }, "house-blend")
	require.NoError(t, err)

	t.Run("qty sets an absolute quantity", func(t *testing.T) {
		out, _, err := capture(t, func() error { return runQty(qtyCmd, []string{"1", "4"}) })
		require.NoError(t, err)
		assert.Contains(t, out, "House Blend (12oz • whole-bean) × 4")
		assert.Equal(t, 4, savedCart(t, s)[0].Quantity)
	})

	t.Run("inc and dec step by one", func(t *testing.T) {
		out, _, err := capture(t, func() error { return runStep(incCmd, []string{"2"}) })
		require.NoError(t, err)
		assert.Contains(t, out, "House Blend (2lb • whole-bean) × 2")

		_, _, err = capture(t, func() error { return runStep(decCmd, []string{"1"}) })
		require.NoError(t, err)

		items := savedCart(t, s)
		assert.Equal(t, 3, items[0].Quantity)
		assert.Equal(t, 2, items[1].Quantity)
	})

	t.Run("total", func(t *testing.T) {
		out, _, err := capture(t, func() error { return runTotal(totalCmd, nil) })
		require.NoError(t, err)
		assert.Contains(t, out, "Items: 5")
		assert.Contains(t, out, "Total: $174.00")
	})

	t.Run("out of range is reported and changes nothing", func(t *testing.T) {
		_, _, err := capture(t, func() error { return runQty(qtyCmd, []string{"9", "1"}) })
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid position "9": the cart has 2 items`)

		var argErr *cli.ArgError
		assert.True(t, errors.As(err, &argErr))
		assert.Len(t, savedCart(t, s), 2)
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, _, err := capture(t, func() error { return runQty(qtyCmd, []string{"0", "1"}) })
		assert.Error(t, err)
		_, _, err = capture(t, func() error { return runQty(qtyCmd, []string{"1", "lots"}) })
		assert.Error(t, err)
	})

	t.Run("qty above the line limit is rejected", func(t *testing.T) {
		_, _, err := capture(t, func() error { return runQty(qtyCmd, []string{"1", "1000"}) })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be at most 999")
		assert.Equal(t, 3, savedCart(t, s)[0].Quantity)
	})

	t.Run("negative qty after -- removes the line", func(t *testing.T) {
		_, err := add(t, func() { addSize = "5lb" }, "house-blend")
		require.NoError(t, err)
		require.Len(t, savedCart(t, s), 3)

		rootCmd.SetArgs([]string{"qty", "3", "--", "-1"})
		defer rootCmd.SetArgs(nil)
		out, _, err := capture(t, rootCmd.Execute)
		require.NoError(t, err)
		assert.Contains(t, out, "Removed House Blend (5lb • whole-bean)")
		assert.Len(t, savedCart(t, s), 2)
	})

	t.Run("qty 0 removes the line", func(t *testing.T) {
		out, _, err := capture(t, func() error { return runQty(qtyCmd, []string{"1", "0"}) })
		require.NoError(t, err)
		assert.Contains(t, out, "Removed House Blend (12oz • whole-bean)")

		items := savedCart(t, s)
		require.Len(t, items, 1)
		assert.Equal(t, "2lb", items[0].Size)
	})

	t.Run("dec to zero removes the line", func(t *testing.T) {
		_, _, err := capture(t, func() error { return runStep(decCmd, []string{"1"}) })
		require.NoError(t, err)
		out, _, err := capture(t, func() error { return runStep(decCmd, []string{"1"}) })
		require.NoError(t, err)
		assert.Contains(t, out, "Removed House Blend (2lb • whole-bean)")
		assertNoSavedCart(t, s)
	})
}

func TestRemoveCommand(t *testing.T) {
	_, s := setupTestStorage(t)

	for _, id := range []string{"house-blend", "sumatra-mandheling", "midnight-espresso"} {
		_, err := add(t, nil, id)
		require.NoError(t, err)
	}

	out, _, err := capture(t, func() error { return runRemove(removeCmd, []string{"2"}) })
	require.NoError(t, err)
	assert.Contains(t, out, "Removed Sumatra Mandheling")

	items := savedCart(t, s)
	require.Len(t, items, 2)
	assert.Equal(t, "house-blend", items[0].ID)
	assert.Equal(t, "midnight-espresso", items[1].ID)

	_, _, err = capture(t, func() error { return runRemove(removeCmd, []string{"3"}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the cart has 2 items")
}

func TestShowCommand(t *testing.T) {
	setupTestStorage(t)

	out, _, err := capture(t, func() error { return runShow(showCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty.")
	assert.NotContains(t, out, "not saved")

	_, err = add(t, func() { addQuantity = 2 }, "house-blend")
	require.NoError(t, err)
	_, err = add(t, func() { addSize = "2lb" }, "house-blend")
	require.NoError(t, err)

	out, _, err = capture(t, func() error { return runShow(showCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Your Cart (3)")
	assert.Contains(t, out, "1.  House Blend")
	assert.Contains(t, out, "2.  House Blend")
	assert.Contains(t, out, "Total: $96.00")
	assert.Contains(t, out, "Saved ")
}

func TestShowSavedTime(t *testing.T) {
	_, s := setupTestStorage(t)

	_, err := add(t, nil, "house-blend")
	require.NoError(t, err)
	saved := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(filepath.Join(s.VersoPath(), "slots", "versoCart.json"), saved, saved))

	out, _, err := capture(t, func() error { return runShow(showCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Mar 14, 2026 09:30")

	t.Run("sqlite records the save time", func(t *testing.T) {
		t.Setenv("VERSO_STORAGE", "sqlite")
		_, err := add(t, nil, "house-blend")
		require.NoError(t, err)

		out, _, err := capture(t, func() error { return runShow(showCmd, nil) })
		require.NoError(t, err)
		assert.Regexp(t, `Saved [A-Z][a-z]{2} \d{1,2}, \d{4} \d{2}:\d{2}`, out)
	})

	t.Run("memory has no save time", func(t *testing.T) {
		t.Setenv("VERSO_STORAGE", "memory")
		out, _, err := capture(t, func() error { return runShow(showCmd, nil) })
		require.NoError(t, err)
		assert.NotContains(t, out, "Saved")
	})
}

func TestClearCommand(t *testing.T) {
	_, s := setupTestStorage(t)

	out, _, err := capture(t, func() error { return runClear(clearCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "already empty")

	_, err = add(t, nil, "house-blend")
	require.NoError(t, err)

	out, _, err = capture(t, func() error { return runClear(clearCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Cart cleared")
	assertNoSavedCart(t, s)

	out, _, err = capture(t, func() error { return runShow(showCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty.")
}

func TestProductsCommand(t *testing.T) {
	setupTestStorage(t)

	out, _, err := capture(t, func() error { return runProducts(productsCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "house-blend")
	assert.Contains(t, out, "$140.00")
	assert.Contains(t, out, "Grinds: whole-bean, drip")

	productsRoast = "dark"
	out, _, err = capture(t, func() error { return runProducts(productsCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "sumatra-mandheling")
	assert.NotContains(t, out, "house-blend")

	productsRoast = "burnt"
	_, _, err = capture(t, func() error { return runProducts(productsCmd, nil) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown roast")
}

func TestCatalogOverride(t *testing.T) {
	dir, _ := setupTestStorage(t)

	override := `sizes: [250g]
grinds: [whole-bean]
products:
  - id: guest-roast
    name: Guest Roast
    roast: light
    prices:
      250g: "14.50"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".verso", "catalog.yaml"), []byte(override), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".versoconfig.yaml"), []byte("default_size: 250g\ncurrency: \"£\"\n"), 0644))

	out, err := add(t, nil, "guest-roast")
	require.NoError(t, err)
	assert.Contains(t, out, "Guest Roast (250g • whole-bean)")
	assert.Contains(t, out, "Total: £14.50")

	_, err = add(t, nil, "house-blend")
	require.Error(t, err)
}

func TestDumpCommand(t *testing.T) {
	setupTestStorage(t)

	out, _, err := capture(t, func() error { return runDump(dumpCmd, nil) })
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	_, err = add(t, func() { addQuantity = 2 }, "house-blend")
	require.NoError(t, err)

	out, _, err = capture(t, func() error { return runDump(dumpCmd, nil) })
	require.NoError(t, err)
	items, err := model.DecodeCart([]byte(out))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	dumpFormat = "yaml"
	out, _, err = capture(t, func() error { return runDump(dumpCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "item_count: 2")
	assert.Contains(t, out, `total: "36.00"`)

	dumpFormat = "xml"
	_, _, err = capture(t, func() error { return runDump(dumpCmd, nil) })
	require.Error(t, err)
}

func TestEditCommand(t *testing.T) {
	dir, s := setupTestStorage(t)
	_, err := add(t, nil, "house-blend")
	require.NoError(t, err)

	writeEditor := func(t *testing.T, content string) {
		script := filepath.Join(dir, "editor.sh")
		body := "#!/bin/sh\ncat > \"$1\" <<'JSON'\n" + content + "\nJSON\n"
		require.NoError(t, os.WriteFile(script, []byte(body), 0755))
		t.Setenv("VISUAL", "")
		t.Setenv("EDITOR", script)
	}

	t.Run("unchanged", func(t *testing.T) {
		t.Setenv("VISUAL", "")
		t.Setenv("EDITOR", "true")
		out, _, err := capture(t, func() error { return runEdit(editCmd, nil) })
		require.NoError(t, err)
		assert.Contains(t, out, "No changes made")
	})

	t.Run("invalid edit leaves the cart alone", func(t *testing.T) {
		writeEditor(t, `[{"id":"house-blend","name":"House Blend","price":18,"quantity":0,"size":"12oz","grind":"drip"}]`)
		_, _, err := capture(t, func() error { return runEdit(editCmd, nil) })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cart not changed")
		assert.Equal(t, 1, savedCart(t, s)[0].Quantity)
	})

	t.Run("edit replaces the cart", func(t *testing.T) {
		writeEditor(t, `[
  {"id":"house-blend","name":"House Blend","price":18,"quantity":2,"size":"12oz","grind":"drip"},
  {"id":"house-blend","name":"House Blend","price":18,"quantity":1,"size":"12oz","grind":"drip"}
]`)
		out, _, err := capture(t, func() error { return runEdit(editCmd, nil) })
		require.NoError(t, err)
		assert.Contains(t, out, "Cart updated: 3 items, $54.00")

		items := savedCart(t, s)
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
		assert.Equal(t, "drip", items[0].Grind)
	})
}

func TestMalformedSnapshotIsDiscarded(t *testing.T) {
	_, s := setupTestStorage(t)
	require.NoError(t, s.Set("versoCart", []byte(`{"not":"a cart"`)))

	out, stderr, err := capture(t, func() error { return runShow(showCmd, nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty.")
	assert.Contains(t, stderr, "warning: discarded saved cart, starting empty")

	// The next change writes a fresh snapshot
	_, err = add(t, nil, "house-blend")
	require.NoError(t, err)
	assert.Len(t, savedCart(t, s), 1)
}

func TestStorageBackends(t *testing.T) {
	t.Run("sqlite keeps the cart across runs", func(t *testing.T) {
		dir, s := setupTestStorage(t)
		t.Setenv("VERSO_STORAGE", "sqlite")

		_, err := add(t, func() { addQuantity = 2 }, "house-blend")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, ".verso", "cart.db"))

		_, found, err := s.Get("versoCart")
		require.NoError(t, err)
		assert.False(t, found, "the file slot is not used")

		out, _, err := capture(t, func() error { return runTotal(totalCmd, nil) })
		require.NoError(t, err)
		assert.Contains(t, out, "Total: $36.00")
	})

	t.Run("memory forgets the cart between runs", func(t *testing.T) {
		setupTestStorage(t)
		t.Setenv("VERSO_STORAGE", "memory")

		_, err := add(t, nil, "house-blend")
		require.NoError(t, err)

		out, _, err := capture(t, func() error { return runTotal(totalCmd, nil) })
		require.NoError(t, err)
		assert.Contains(t, out, "Items: 0")
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		setupTestStorage(t)
		t.Setenv("VERSO_STORAGE", "redis")
		t.Setenv("VERSO_REDIS_URL", "not-a-redis-url")

		out, stderr, err := capture(t, func() error { return runShow(showCmd, nil) })
		require.NoError(t, err)
		assert.Contains(t, stderr, "warning: redis storage unavailable")
		assert.True(t, strings.Contains(out, "(not saved)"))
	})
}

func TestPositionCompletion(t *testing.T) {
	setupTestStorage(t)
	_, err := add(t, nil, "house-blend")
	require.NoError(t, err)
	_, err = add(t, func() { addSize = "2lb" }, "house-blend")
	require.NoError(t, err)

	completions, _ := completePositions(removeCmd, nil, "")
	assert.Equal(t, []string{
		"1\tHouse Blend (12oz • whole-bean)",
		"2\tHouse Blend (2lb • whole-bean)",
	}, completions)

	completions, _ = completePositions(qtyCmd, []string{"1"}, "")
	assert.Empty(t, completions)
}

func TestCatalogCompletion(t *testing.T) {
	setupTestStorage(t)

	ids, _ := completeProductIDs(addCmd, nil, "mid")
	assert.Equal(t, []string{"midnight-espresso\tMidnight Espresso"}, ids)

	sizes, _ := completeSizes(addCmd, []string{"ethiopia-yirgacheffe"}, "")
	assert.Equal(t, []string{"12oz", "2lb"}, sizes)

	grinds, _ := completeGrinds(addCmd, nil, "p")
	assert.Equal(t, []string{"pour-over"}, grinds)
}

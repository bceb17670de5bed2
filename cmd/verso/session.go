package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jacksmith/verso/internal/cart"
	"github.com/jacksmith/verso/internal/catalog"
	"github.com/jacksmith/verso/internal/cli"
	"github.com/jacksmith/verso/internal/logging"
	"github.com/jacksmith/verso/internal/storage"
	"github.com/jacksmith/verso/internal/storage/memory"
	"github.com/jacksmith/verso/internal/storage/redis"
	"github.com/jacksmith/verso/internal/storage/sqlite"
	"github.com/jacksmith/verso/internal/view"
	"go.uber.org/zap"
)

// catalogOverride is the catalog file picked up from .verso/ when the config
// does not name one.
const catalogOverride = "catalog.yaml"

var (
	_ cart.Deleter = (*storage.Storage)(nil)
	_ cart.Deleter = (*memory.Slots)(nil)
	_ cart.Deleter = (*sqlite.Store)(nil)
	_ cart.Deleter = (*redis.Slots)(nil)

	_ timestamped = (*storage.Storage)(nil)
	_ timestamped = (*sqlite.Store)(nil)
)

// session is one invocation's cart: the workspace, its configuration, and a
// store wired to the configured slot with the drawer listening.
type session struct {
	storage *storage.Storage
	config  *storage.Config
	log     *zap.Logger
	catalog *catalog.Catalog
	slot    cart.Slot
	store   *cart.Store
	drawer  *view.Drawer
	closer  io.Closer
}

// openSession opens the workspace in flagDir and loads the cart.
func openSession() (*session, error) {
	s, err := storage.Open(flagDir)
	if err != nil {
		return nil, err
	}

	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, flagVerbose)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(s, cfg)
	if err != nil {
		return nil, err
	}

	slot, closer := openSlot(s, cfg, log)
	drawer := view.NewDrawer(cfg.Currency)
	store := cart.Open(slot,
		cart.WithKey(cfg.SlotKey),
		cart.WithLogger(log),
		cart.WithListener(drawer),
		cart.WithDefaults(cfg.DefaultSize, cfg.DefaultGrind),
	)
	drawer.Bind(store)

	if err := store.LoadErr(); err != nil {
		warn(fmt.Errorf("discarded saved cart, starting empty: %w", err))
	}

	return &session{
		storage: s,
		config:  cfg,
		log:     log,
		catalog: cat,
		slot:    slot,
		store:   store,
		drawer:  drawer,
		closer:  closer,
	}, nil
}

// Close releases the slot backend and flushes the logger.
func (s *session) Close() {
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			s.log.Debug("failed to close cart storage", zap.Error(err))
		}
	}
	_ = s.log.Sync()
}

// loadCatalog returns the configured catalog, .verso/catalog.yaml if present,
// or the built-in one.
func loadCatalog(s *storage.Storage, cfg *storage.Config) (*catalog.Catalog, error) {
	if cfg.Catalog != "" {
		return catalog.Load(s.Path(cfg.Catalog))
	}
	path := s.Path(catalogOverride)
	if _, err := os.Stat(path); err == nil {
		return catalog.Load(path)
	}
	return catalog.Default()
}

// openSlot opens the configured backend. If it cannot be opened the cart
// runs memory-only for this invocation and a warning is printed.
func openSlot(s *storage.Storage, cfg *storage.Config, log *zap.Logger) (cart.Slot, io.Closer) {
	var (
		slot   cart.Slot
		closer io.Closer
		err    error
	)
	switch cfg.Backend {
	case storage.BackendFile:
		slot = s
	case storage.BackendMemory:
		slot = memory.New()
	case storage.BackendSQLite:
		var db *sqlite.Store
		db, err = sqlite.Open(s.Path(cfg.SQLitePath))
		if err == nil {
			slot, closer = db, db
		}
	case storage.BackendRedis:
		var rs *redis.Slots
		rs, err = redis.Open(redis.Options{URL: cfg.RedisURL, Addr: cfg.RedisAddr, Timeout: cfg.RedisTimeout})
		if err == nil {
			slot, closer = rs, rs
		}
	default:
		err = fmt.Errorf("unknown storage %q", cfg.Backend)
	}

	if err != nil {
		log.Warn("cart storage unavailable; running memory-only", zap.String("storage", cfg.Backend), zap.Error(err))
		warn(fmt.Errorf("%s storage unavailable, cart changes will not be saved: %w", cfg.Backend, err))
		return nil, nil
	}
	log.Debug("cart storage opened", zap.String("storage", cfg.Backend), zap.String("key", cfg.SlotKey))
	return slot, closer
}

// warn prints a condition that does not fail the command.
func warn(err error) {
	fmt.Fprintln(os.Stderr, cli.FormatWarning(err))
}

// settle turns a store error into command output. A failed write is a
// warning since the change stands in memory; an out-of-range index is
// reported with the 1-based position the user typed.
func settle(err error) error {
	var persistErr *cart.PersistError
	if errors.As(err, &persistErr) {
		warn(err)
		return nil
	}
	var indexErr *cart.IndexError
	if errors.As(err, &indexErr) {
		return positionError(indexErr)
	}
	return err
}

func positionError(e *cart.IndexError) error {
	err := &cli.ArgError{Arg: "position", Value: strconv.Itoa(e.Index + 1)}
	if e.Len == 0 {
		err.Message = "the cart is empty"
		return err
	}
	err.Message = fmt.Sprintf("the cart has %d items", e.Len)
	err.Hint = "Run `verso show` to see cart positions."
	return err
}

// describe names a cart line the way confirmations print it.
func describe(name, variant string) string {
	return fmt.Sprintf("%s (%s)", name, variant)
}

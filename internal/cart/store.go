// Package cart implements the cart store: the ordered list of line items,
// kept in memory and synchronized with a single durable slot.
package cart

import (
	"fmt"

	"github.com/jacksmith/verso/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultKey is the name of the durable slot holding the cart snapshot.
const DefaultKey = "versoCart"

// Slot defines the durable storage the store persists into. Implementations
// live in internal/storage and its subpackages.
type Slot interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, data []byte) error
}

// Deleter is implemented by slots that can drop a key. When the cart becomes
// empty the store deletes its snapshot from such a slot instead of writing [].
type Deleter interface {
	Delete(key string) error
}

// Listener is notified by the store. The store never depends on how the
// listener presents the cart.
type Listener interface {
	// CartChanged is called after every mutation that changed the cart.
	CartChanged(items []model.LineItem)
	// OpenRequested is called after an item is added.
	OpenRequested()
}

// AddOptions holds the optional parameters of AddItem.
// Zero values select the defaults: quantity 1 and the store's default size and grind.
type AddOptions struct {
	Quantity int
	Size     string
	Grind    string
}

// Store owns the cart. It is not safe for concurrent use; every call runs to
// completion on the caller's goroutine.
type Store struct {
	slot         Slot
	key          string
	log          *zap.Logger
	listeners    []Listener
	defaultSize  string
	defaultGrind string

	items      []model.LineItem
	loadErr    error
	persistErr error
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the slot key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used for reported conditions.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithListener registers a listener. It may be given more than once.
func WithListener(l Listener) Option {
	return func(s *Store) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// WithDefaults overrides the size and grind used when AddItem is not given one.
// Empty values keep the built-in defaults.
func WithDefaults(size, grind string) Option {
	return func(s *Store) {
		if size != "" {
			s.defaultSize = size
		}
		if grind != "" {
			s.defaultGrind = grind
		}
	}
}

// Open creates a store and loads the persisted snapshot from slot.
// A nil slot gives a memory-only store. A missing snapshot starts an empty
// cart; an unreadable or malformed one is discarded with a warning and is
// available from LoadErr.
func Open(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:         slot,
		key:          DefaultKey,
		log:          zap.NewNop(),
		defaultSize:  model.DefaultSize,
		defaultGrind: model.DefaultGrind,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.slot == nil {
		s.log.Debug("cart store running memory-only")
		return
	}

	data, found, err := s.slot.Get(s.key)
	if err != nil {
		s.loadErr = fmt.Errorf("failed to read cart slot %s: %w", s.key, err)
		s.log.Warn("discarding unreadable cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}
	if !found {
		return
	}

	items, err := model.DecodeCart(data)
	if err != nil {
		s.loadErr = err
		s.log.Warn("discarding malformed cart snapshot", zap.String("key", s.key), zap.Error(err))
		return
	}
	s.items = items
	s.log.Debug("cart loaded", zap.String("key", s.key), zap.Int("items", len(items)))
}

// LoadErr reports why the persisted snapshot was discarded at Open, if it was.
func (s *Store) LoadErr() error {
	return s.loadErr
}

// Persistent reports whether the cart is currently backed by durable storage:
// the store has a slot and the last write to it succeeded.
func (s *Store) Persistent() bool {
	return s.slot != nil && s.persistErr == nil
}

// AddItem adds quantity of product p in the given size and grind. If the cart
// already holds the same (id, size, grind) its quantity grows; otherwise a new
// item is appended. Listeners see a change and then an open request. A line
// may not grow past model.MaxQuantity; such an add returns a
// *model.ValidationError and leaves the cart unchanged.
func (s *Store) AddItem(p model.Product, opts AddOptions) error {
	if err := model.ValidateProduct(p); err != nil {
		return err
	}
	if opts.Quantity < 0 {
		return &model.ValidationError{Field: "quantity", Message: fmt.Sprintf("must be positive, got %d", opts.Quantity)}
	}
	if opts.Quantity == 0 {
		opts.Quantity = 1
	}
	if err := model.ValidateQuantity(opts.Quantity); err != nil {
		return err
	}
	if opts.Size == "" {
		opts.Size = s.defaultSize
	}
	if opts.Grind == "" {
		opts.Grind = s.defaultGrind
	}

	key := model.ItemKey{ID: p.ID, Size: opts.Size, Grind: opts.Grind}
	if i := s.indexOf(key); i >= 0 {
		if err := mergeQuantity(s.items[i].Quantity, opts.Quantity); err != nil {
			return err
		}
		s.items[i].Quantity += opts.Quantity
		s.log.Debug("cart item quantity increased", zap.Stringer("item", key), zap.Int("quantity", s.items[i].Quantity))
	} else {
		s.items = append(s.items, model.NewLineItem(p, opts.Quantity, opts.Size, opts.Grind))
		s.log.Debug("cart item added", zap.Stringer("item", key), zap.Int("quantity", opts.Quantity))
	}

	err := s.commit()
	for _, l := range s.listeners {
		l.OpenRequested()
	}
	return err
}

// RemoveItem deletes the item at index, keeping the order of the rest.
// An out-of-range index leaves the cart unchanged and returns an *IndexError.
func (s *Store) RemoveItem(index int) error {
	if err := s.checkIndex("remove", index); err != nil {
		return err
	}

	removed := s.items[index].Key()
	s.items = append(s.items[:index], s.items[index+1:]...)
	s.log.Debug("cart item removed", zap.Stringer("item", removed))
	return s.commit()
}

// UpdateQuantity sets the quantity of the item at index. A quantity of zero
// or less removes the item; one above model.MaxQuantity is rejected.
func (s *Store) UpdateQuantity(index, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(index)
	}
	if err := s.checkIndex("update", index); err != nil {
		return err
	}
	if err := model.ValidateQuantity(quantity); err != nil {
		return err
	}

	s.items[index].Quantity = quantity
	s.log.Debug("cart item quantity set", zap.Stringer("item", s.items[index].Key()), zap.Int("quantity", quantity))
	return s.commit()
}

// Clear removes every item.
func (s *Store) Clear() error {
	if len(s.items) == 0 {
		return nil
	}
	s.items = nil
	s.log.Debug("cart cleared")
	return s.commit()
}

// Replace swaps the whole cart for items, e.g. after an edit of the snapshot.
// Every item is validated first; on error the cart is unchanged. Items that
// share a key are merged in first-seen order.
func (s *Store) Replace(items []model.LineItem) error {
	merged := make([]model.LineItem, 0, len(items))
	index := make(map[model.ItemKey]int, len(items))
	for i, li := range items {
		if err := model.ValidateLineItem(li); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if j, ok := index[li.Key()]; ok {
			if err := mergeQuantity(merged[j].Quantity, li.Quantity); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			merged[j].Quantity += li.Quantity
			continue
		}
		index[li.Key()] = len(merged)
		merged = append(merged, li.Clone())
	}

	s.items = merged
	s.log.Debug("cart replaced", zap.Int("items", len(merged)))
	return s.commit()
}

// Items returns a copy of the cart in display order.
func (s *Store) Items() []model.LineItem {
	out := make([]model.LineItem, len(s.items))
	for i, li := range s.items {
		out[i] = li.Clone()
	}
	return out
}

// Item returns the item at index.
func (s *Store) Item(index int) (model.LineItem, bool) {
	if index < 0 || index >= len(s.items) {
		return model.LineItem{}, false
	}
	return s.items[index].Clone(), true
}

// Len returns the number of line items.
func (s *Store) Len() int {
	return len(s.items)
}

// Total returns the sum of price * quantity over the cart.
func (s *Store) Total() decimal.Decimal {
	return model.CartTotal(s.items)
}

// ItemCount returns the sum of quantities over the cart.
func (s *Store) ItemCount() int {
	return model.CartCount(s.items)
}

// mergeQuantity checks that adding more to a line holding have stays within
// model.MaxQuantity. Both arguments are already in range, so the sum cannot
// overflow.
func mergeQuantity(have, more int) error {
	if have > model.MaxQuantity-more {
		return &model.ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("must be at most %d, line already holds %d", model.MaxQuantity, have),
		}
	}
	return nil
}

func (s *Store) indexOf(key model.ItemKey) int {
	for i := range s.items {
		if s.items[i].Key() == key {
			return i
		}
	}
	return -1
}

func (s *Store) checkIndex(op string, index int) error {
	if index >= 0 && index < len(s.items) {
		return nil
	}
	err := &IndexError{Op: op, Index: index, Len: len(s.items)}
	s.log.Warn("ignoring out-of-range cart index", zap.String("op", op), zap.Int("index", index), zap.Int("len", len(s.items)))
	return err
}

// commit persists the cart and notifies listeners. The in-memory cart is
// authoritative: a failed write is returned as a *PersistError but the
// mutation stands, and the next commit tries again.
func (s *Store) commit() error {
	err := s.persist()
	items := s.Items()
	for _, l := range s.listeners {
		l.CartChanged(items)
	}
	return err
}

func (s *Store) persist() error {
	if s.slot == nil {
		return nil
	}

	err := s.write()
	if err != nil {
		s.persistErr = err
		s.log.Warn("cart snapshot not persisted; continuing in memory", zap.String("key", s.key), zap.Error(err))
		return &PersistError{Key: s.key, Err: err}
	}

	if s.persistErr != nil {
		s.log.Info("cart snapshot persisted again", zap.String("key", s.key))
	}
	s.persistErr = nil
	return nil
}

func (s *Store) write() error {
	if d, ok := s.slot.(Deleter); ok && len(s.items) == 0 {
		return d.Delete(s.key)
	}
	data, err := model.EncodeCart(s.items)
	if err != nil {
		return err
	}
	return s.slot.Set(s.key, data)
}

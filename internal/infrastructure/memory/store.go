// Package memory implementa el almacenamiento del ledger en memoria del proceso.
// Un único escritor a la vez (Run) y lectores concurrentes (View) sobre un RWMutex;
// Run deshace todos sus cambios si la función devuelve error.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// ErrReadOnly se devuelve al intentar escribir dentro de View.
var ErrReadOnly = errors.New("memory: escritura dentro de una vista de solo lectura")

// Store guarda catálogo, ubicaciones, movimientos, revisiones, agregado de saldos y versión.
type Store struct {
	mu        sync.RWMutex
	products  map[string]entity.Product
	locations map[string]entity.Location
	movements map[string]entity.Movement
	// índices de ids de movimiento; se mantienen junto con movements
	byProduct  idIndex
	byLocation idIndex
	revisions  map[string][]entity.MovementRevision
	balances   map[entity.BalanceKey]int64
	seq        int64
	version    int64
	epoch      string
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		products:   make(map[string]entity.Product),
		locations:  make(map[string]entity.Location),
		movements:  make(map[string]entity.Movement),
		byProduct:  make(idIndex),
		byLocation: make(idIndex),
		revisions:  make(map[string][]entity.MovementRevision),
		balances:   make(map[entity.BalanceKey]int64),
		epoch:      uuid.NewString(),
	}
}

var _ inventory.TxRunner = (*Store)(nil)

// Run ejecuta fn con acceso exclusivo. Si fn devuelve error (o entra en pánico) se aplica el undo log.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{store: s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
	}()
	return fn(ctx, tx.repos())
}

// View ejecuta fn con acceso de lectura compartido.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, (&txn{store: s, readOnly: true}).repos())
}

// txn acumula las operaciones inversas de cada escritura.
type txn struct {
	store    *Store
	readOnly bool
	undo     []func()
}

func (t *txn) repos() inventory.Repos {
	return inventory.Repos{
		Products:  productRepo{t},
		Locations: locationRepo{t},
		Movements: movementRepo{t},
		Revisions: revisionRepo{t},
		Balances:  balanceRepo{t},
		Versions:  versionRepo{t},
	}
}

func (t *txn) write(ctx context.Context) error {
	if t.readOnly {
		return ErrReadOnly
	}
	return ctx.Err()
}

func (t *txn) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// ── productos ────────────────────────────────────────────────────────────────

type productRepo struct{ t *txn }

func (r productRepo) Create(ctx context.Context, p *entity.Product) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	s := r.t.store
	if _, ok := s.products[p.ID]; ok {
		return fmt.Errorf("%w: producto %s", domain.ErrDuplicateID, p.ID)
	}
	s.products[p.ID] = *p
	r.t.onRollback(func() { delete(s.products, p.ID) })
	return nil
}

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.t.store.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r productRepo) Update(ctx context.Context, p *entity.Product) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	s := r.t.store
	prev, ok := s.products[p.ID]
	if !ok {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, p.ID)
	}
	s.products[p.ID] = *p
	r.t.onRollback(func() { s.products[p.ID] = prev })
	return nil
}

func (r productRepo) List(_ context.Context) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(r.t.store.products))
	for _, p := range r.t.store.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── ubicaciones ──────────────────────────────────────────────────────────────

type locationRepo struct{ t *txn }

func (r locationRepo) Create(ctx context.Context, l *entity.Location) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	s := r.t.store
	if _, ok := s.locations[l.ID]; ok {
		return fmt.Errorf("%w: ubicación %s", domain.ErrDuplicateID, l.ID)
	}
	s.locations[l.ID] = *l
	r.t.onRollback(func() { delete(s.locations, l.ID) })
	return nil
}

func (r locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.t.store.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r locationRepo) Update(ctx context.Context, l *entity.Location) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	s := r.t.store
	prev, ok := s.locations[l.ID]
	if !ok {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, l.ID)
	}
	s.locations[l.ID] = *l
	r.t.onRollback(func() { s.locations[l.ID] = prev })
	return nil
}

func (r locationRepo) List(_ context.Context) ([]*entity.Location, error) {
	out := make([]*entity.Location, 0, len(r.t.store.locations))
	for _, l := range r.t.store.locations {
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── movimientos ──────────────────────────────────────────────────────────────

type movementRepo struct{ t *txn }

// idIndex clave (producto o ubicación) -> conjunto de ids de movimiento.
type idIndex map[string]map[string]struct{}

func (x idIndex) add(key, id string) {
	if key == "" {
		return
	}
	set, ok := x[key]
	if !ok {
		set = make(map[string]struct{})
		x[key] = set
	}
	set[id] = struct{}{}
}

func (x idIndex) remove(key, id string) {
	set, ok := x[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(x, key)
	}
}

func (s *Store) index(m entity.Movement) {
	s.byProduct.add(m.ProductID, m.ID)
	s.byLocation.add(m.FromLocation, m.ID)
	s.byLocation.add(m.ToLocation, m.ID)
}

func (s *Store) unindex(m entity.Movement) {
	s.byProduct.remove(m.ProductID, m.ID)
	s.byLocation.remove(m.FromLocation, m.ID)
	s.byLocation.remove(m.ToLocation, m.ID)
}

func (r movementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	s := r.t.store
	if _, ok := s.movements[m.ID]; ok {
		return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicateID, m.ID)
	}
	prevSeq := s.seq
	s.seq++
	m.Seq = s.seq
	stored := *m
	s.movements[m.ID] = stored
	s.index(stored)
	r.t.onRollback(func() {
		s.unindex(stored)
		delete(s.movements, stored.ID)
		s.seq = prevSeq
	})
	return nil
}

func (r movementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	m, ok := r.t.store.movements[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r movementRepo) Update(ctx context.Context, m *entity.Movement) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	s := r.t.store
	prev, ok := s.movements[m.ID]
	if !ok {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, m.ID)
	}
	next := *m
	next.Seq = prev.Seq
	s.unindex(prev)
	s.movements[m.ID] = next
	s.index(next)
	r.t.onRollback(func() {
		s.unindex(next)
		s.movements[prev.ID] = prev
		s.index(prev)
	})
	return nil
}

func (r movementRepo) ListAll(_ context.Context) ([]*entity.Movement, error) {
	s := r.t.store
	out := make([]*entity.Movement, 0, len(s.movements))
	for _, m := range s.movements {
		m := m
		out = append(out, &m)
	}
	return sortMovements(out), nil
}

func (r movementRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Movement, error) {
	return r.byIDs(r.t.store.byProduct[productID]), nil
}

func (r movementRepo) ListByLocation(_ context.Context, locationID string) ([]*entity.Movement, error) {
	return r.byIDs(r.t.store.byLocation[locationID]), nil
}

func (r movementRepo) byIDs(ids map[string]struct{}) []*entity.Movement {
	out := make([]*entity.Movement, 0, len(ids))
	for id := range ids {
		m := r.t.store.movements[id]
		out = append(out, &m)
	}
	return sortMovements(out)
}

// sortMovements ordena por Timestamp descendente y Seq ascendente.
func sortMovements(out []*entity.Movement) []*entity.Movement {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// ── revisiones ───────────────────────────────────────────────────────────────

type revisionRepo struct{ t *txn }

func (r revisionRepo) Create(ctx context.Context, rev *entity.MovementRevision) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	s := r.t.store
	prev := s.revisions[rev.MovementID]
	s.revisions[rev.MovementID] = append(prev[:len(prev):len(prev)], *rev)
	r.t.onRollback(func() {
		if len(prev) == 0 {
			delete(s.revisions, rev.MovementID)
			return
		}
		s.revisions[rev.MovementID] = prev
	})
	return nil
}

func (r revisionRepo) ListByMovement(_ context.Context, movementID string) ([]*entity.MovementRevision, error) {
	list := r.t.store.revisions[movementID]
	out := make([]*entity.MovementRevision, 0, len(list))
	for _, rev := range list {
		rev := rev
		out = append(out, &rev)
	}
	return out, nil
}

// ── saldos ───────────────────────────────────────────────────────────────────

type balanceRepo struct{ t *txn }

func (r balanceRepo) Apply(ctx context.Context, key entity.BalanceKey, delta int64) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}
	s := r.t.store
	prev, had := s.balances[key]
	if next := prev + delta; next == 0 {
		delete(s.balances, key)
	} else {
		s.balances[key] = next
	}
	r.t.onRollback(func() {
		if had {
			s.balances[key] = prev
		} else {
			delete(s.balances, key)
		}
	})
	return nil
}

func (r balanceRepo) Get(_ context.Context, key entity.BalanceKey) (int64, error) {
	return r.t.store.balances[key], nil
}

func (r balanceRepo) ListNonZero(_ context.Context) ([]entity.Balance, error) {
	out := make([]entity.Balance, 0, len(r.t.store.balances))
	for k, v := range r.t.store.balances {
		if v == 0 {
			continue
		}
		out = append(out, entity.Balance{ProductID: k.ProductID, LocationID: k.LocationID, Quantity: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out, nil
}

func (r balanceRepo) Reset(ctx context.Context, balances map[entity.BalanceKey]int64) error {
	if err := r.t.write(ctx); err != nil {
		return err
	}
	s := r.t.store
	prev := s.balances
	next := make(map[entity.BalanceKey]int64, len(balances))
	for k, v := range balances {
		if v != 0 {
			next[k] = v
		}
	}
	s.balances = next
	r.t.onRollback(func() { s.balances = prev })
	return nil
}

// ── versión ──────────────────────────────────────────────────────────────────

type versionRepo struct{ t *txn }

func (r versionRepo) Current(_ context.Context) (int64, error) {
	return r.t.store.version, nil
}

func (r versionRepo) Bump(ctx context.Context) (int64, error) {
	if err := r.t.write(ctx); err != nil {
		return 0, err
	}
	s := r.t.store
	s.version++
	r.t.onRollback(func() { s.version-- })
	return s.version, nil
}

func (r versionRepo) Epoch(_ context.Context) (string, error) {
	return r.t.store.epoch, nil
}

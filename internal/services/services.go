// Package services implements the ledger operations: the account, envelope
// and savings stores, the transfer engine, the ledger itself and the
// read-only analytics built on top of them.
//
// Every operation that changes a balance runs inside one storage
// transaction together with the ledger rows it produces. Entry ids are
// announced to the EntryPublisher only after commit.
package services

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Store is the persistence the services run against.
// *storage.SQLiteRepository satisfies it.
type Store interface {
	Queries() *storage.Queries
	InTx(ctx context.Context, fn func(q *storage.Queries) error) error
}

// EntryPublisher announces committed ledger entries. Publishing is best
// effort and never fails the operation that produced the entry.
type EntryPublisher interface {
	PublishLedgerEntry(ctx context.Context, userID, entryID int64) error
}

// DashboardCache holds computed dashboards keyed by user and period.
type DashboardCache interface {
	Get(key string) (Dashboard, bool)
	Set(key string, d Dashboard)
	DeletePrefix(prefix string) int
}

type Option func(*env)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *env) { e.now = now }
}

func WithPublisher(p EntryPublisher) Option {
	return func(e *env) { e.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(e *env) { e.logger = l }
}

func WithDashboardCache(c DashboardCache) Option {
	return func(e *env) { e.dashboards = c }
}

// WithPasswordCost sets the bcrypt cost used for new passwords.
func WithPasswordCost(cost int) Option {
	return func(e *env) { e.passwordCost = cost }
}

// env is shared by every service built from the same New call.
type env struct {
	store      Store
	publisher  EntryPublisher
	dashboards DashboardCache
	now        func() time.Time
	logger     *log.Logger

	passwordCost int
}

// Services bundles the components that make up the ledger core.
type Services struct {
	Accounts  *Accounts
	Wallets   *Wallets
	Envelopes *Envelopes
	Savings   *Savings
	Transfers *Transfers
	Ledger    *Ledger
	Analytics *Analytics
	Users     *Users
	Audit     *Audit
}

func New(store Store, opts ...Option) *Services {
	e := &env{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.Default(log.ComponentApp),

		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(e)
	}

	ledger := &Ledger{env: e, log: e.logger.WithComponent(log.ComponentLedger)}
	return &Services{
		Accounts:  &Accounts{env: e, ledger: ledger, log: e.logger.WithComponent(log.ComponentAccounts)},
		Wallets:   &Wallets{env: e, ledger: ledger, log: e.logger.WithComponent(log.ComponentAccounts)},
		Envelopes: &Envelopes{env: e, log: e.logger.WithComponent(log.ComponentEnvelopes)},
		Savings:   &Savings{env: e, log: e.logger.WithComponent(log.ComponentSavings)},
		Transfers: &Transfers{env: e, ledger: ledger, log: e.logger.WithComponent(log.ComponentTransfer)},
		Ledger:    ledger,
		Analytics: &Analytics{env: e, log: e.logger.WithComponent(log.ComponentAnalytics)},
		Users:     &Users{env: e, ledger: ledger, log: e.logger.WithComponent(log.ComponentUsers)},
		Audit:     &Audit{env: e},
	}
}

func (e *env) clock() time.Time {
	return e.now().UTC().Truncate(time.Second)
}

// committed runs after a successful transaction: it drops cached analytics
// for the affected users and publishes the new entries.
func (e *env) committed(ctx context.Context, entries written) {
	for userID, ids := range entries {
		e.invalidate(userID)
		if e.publisher == nil {
			continue
		}
		for _, id := range ids {
			if id == 0 {
				continue
			}
			if err := e.publisher.PublishLedgerEntry(ctx, userID, id); err != nil {
				e.logger.ErrorContext(ctx, "Failed to publish ledger entry",
					log.FieldUserID, userID, log.FieldEntryID, id, log.FieldError, err)
			}
		}
	}
}

// written collects the entries appended inside one transaction, grouped by
// owning user.
type written map[int64][]int64

// reset drops what a rolled-back attempt collected. InTx replays its
// function after SQLITE_BUSY, and the replay writes the entries again.
func (w written) reset() {
	clear(w)
}

func (w written) add(userID, entryID int64) {
	w[userID] = append(w[userID], entryID)
}

// touch marks a user's cached analytics stale without adding an entry.
func (w written) touch(userID int64) {
	if _, ok := w[userID]; !ok {
		w[userID] = nil
	}
}

// ownedBy hides records of other users behind a not-found error.
func ownedBy(ownerID, userID int64, entity string, id int64) error {
	if ownerID != userID {
		return core.NotFound(entity, id)
	}
	return nil
}

// invalidate drops cached analytics for a user after a change that wrote no
// ledger entry.
func (e *env) invalidate(userID int64) {
	if e.dashboards != nil {
		e.dashboards.DeletePrefix(dashboardPrefix(userID))
	}
}

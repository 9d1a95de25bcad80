package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Wallets serves the legacy single-balance account that predates cards.
type Wallets struct {
	*env
	ledger *Ledger
	log    *log.Logger
}

// Get returns the user's wallet, creating an empty one if it is missing.
func (s *Wallets) Get(ctx context.Context, userID int64) (core.Wallet, error) {
	w, err := s.store.Queries().GetWallet(ctx, userID)
	if !errors.Is(err, core.ErrNotFound) {
		return w, err
	}
	err = s.store.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		if err := q.CreateWallet(ctx, userID, s.clock()); err != nil {
			return err
		}
		w, err = q.GetWallet(ctx, userID)
		return err
	})
	return w, err
}

func (s *Wallets) Deposit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	return s.change(ctx, userID, amount, description, core.KindDeposit)
}

// Withdraw fails with InsufficientFundsError when the wallet holds less than
// amount.
func (s *Wallets) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	return s.change(ctx, userID, amount, description, core.KindWithdrawal)
}

func (s *Wallets) change(ctx context.Context, userID int64, amount decimal.Decimal, description string, kind core.Kind) (decimal.Decimal, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	amount = core.RoundMoney(amount)
	if _, err := s.Get(ctx, userID); err != nil {
		return decimal.Zero, err
	}

	w := written{}
	var balance decimal.Decimal
	err := s.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		wallet, err := q.GetWallet(ctx, userID)
		if err != nil {
			return err
		}
		balance = wallet.Balance.Add(amount)
		if kind == core.KindWithdrawal {
			if wallet.Balance.LessThan(amount) {
				return &core.InsufficientFundsError{Available: wallet.Balance}
			}
			balance = wallet.Balance.Sub(amount)
		}
		if err := q.SetWalletBalance(ctx, userID, balance, s.clock()); err != nil {
			return err
		}
		entryID, err := s.ledger.append(ctx, q, NewEntry{
			UserID: userID, Kind: kind, Amount: amount, Description: description,
		})
		w.add(userID, entryID)
		return err
	})
	if err != nil {
		s.log.Failure(ctx, "Wallet operation rejected", err, log.FieldUserID, userID, log.FieldKind, kind)
		return decimal.Zero, err
	}
	s.committed(ctx, w)
	s.log.InfoContext(ctx, "Wallet balance changed",
		log.FieldUserID, userID, log.FieldKind, kind, log.FieldAmount, amount.String(), log.FieldBalance, balance.String())
	return balance, nil
}

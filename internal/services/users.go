package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// DefaultCardName is the card every new user starts with.
const DefaultCardName = "Main card"

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Users handles registration and password checks.
type Users struct {
	*env
	ledger *Ledger
	log    *log.Logger
}

// Register creates the user together with an empty legacy wallet and a
// default card.
func (u *Users) Register(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return 0, core.ErrEmptyName
	}
	if err := core.ValidateEmail(email); err != nil {
		return 0, err
	}
	if err := core.ValidatePassword(password); err != nil {
		return 0, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.passwordCost)
	if err != nil {
		return 0, err
	}

	w := written{}
	var userID int64
	err = u.store.InTx(ctx, func(q *storage.Queries) error {
		w.reset()
		now := u.clock()
		var err error
		userID, err = q.CreateUser(ctx, username, email, string(hash), now)
		if err != nil {
			return err
		}
		if err := q.CreateWallet(ctx, userID, now); err != nil {
			return err
		}
		cardID, err := q.CreateCard(ctx, core.Card{UserID: userID, Name: DefaultCardName, Color: core.DefaultColor}, now)
		if err != nil {
			return err
		}
		entryID, err := u.ledger.append(ctx, q, NewEntry{
			UserID: userID, Kind: core.KindCardCreation, Description: "Card created: " + DefaultCardName, CardID: &cardID,
		})
		w.add(userID, entryID)
		return err
	})
	if err != nil {
		u.log.Failure(ctx, "Registration failed", err)
		return 0, err
	}
	u.committed(ctx, w)
	u.log.InfoContext(ctx, "User registered", log.FieldUserID, userID)
	return userID, nil
}

// Authenticate returns the user when the password matches.
func (u *Users) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	user, err := u.store.Queries().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		u.log.WarnContext(ctx, "Authentication failed", log.FieldUserID, user.ID)
		return core.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (u *Users) Get(ctx context.Context, userID int64) (core.User, error) {
	return u.store.Queries().GetUser(ctx, userID)
}

package db

import (
	"context"
	"errors"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/security"
)

type UserSeeder interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, username, passwordHash string) (user.User, error)
}

// EnsureSeedUser creates the configured seed account if it does not exist yet.
// It is a no-op when SEED_USERNAME or SEED_PASSWORD is empty.
func EnsureSeedUser(ctx context.Context, users UserSeeder, cfg config.Config) (created bool, err error) {
	if cfg.SeedUsername == "" || cfg.SeedPassword == "" {
		return false, nil
	}

	exists, err := users.ExistsByUsername(ctx, cfg.SeedUsername)
	if err != nil {
		return false, err
	}

	if exists {
		return false, nil
	}

	hash, err := security.HashPassword(cfg.SeedPassword)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, cfg.SeedUsername, hash)

	// another replica won the race
	if errors.Is(err, user.ErrUsernameTaken) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

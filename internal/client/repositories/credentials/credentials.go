// Package credentials persists the client session (access token and user
// profile) under the "token" and "user" keys of the metadata store.
package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/researcher/internal/client/models"
	"github.com/dmitrijs2005/researcher/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/researcher/internal/common"
	"github.com/dmitrijs2005/researcher/internal/dbx"
)

// Stored is what survives a restart. User is nil when no profile was saved
// or the saved one could not be decoded.
type Stored struct {
	Token string
	User  *models.UserProfile
}

// Repository is the storage contract of the session manager.
type Repository interface {
	Load(ctx context.Context) (Stored, error)
	// SaveToken stores a fresh token and drops any profile of an earlier one.
	SaveToken(ctx context.Context, token string) error
	SaveUser(ctx context.Context, user *models.UserProfile) error
	Clear(ctx context.Context) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) (Stored, error) {
	repo := metadata.NewSQLiteRepository(r.db)

	token, err := repo.Get(ctx, common.TokenKey)
	if err != nil {
		return Stored{}, err
	}
	if len(token) == 0 {
		return Stored{}, nil
	}

	raw, err := repo.Get(ctx, common.UserKey)
	if err != nil {
		return Stored{}, err
	}

	return Stored{Token: string(token), User: decodeUser(raw)}, nil
}

func (r *SQLiteRepository) SaveToken(ctx context.Context, token string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, common.UserKey); err != nil {
			return err
		}
		return repo.Set(ctx, common.TokenKey, []byte(token))
	})
}

func (r *SQLiteRepository) SaveUser(ctx context.Context, user *models.UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return metadata.NewSQLiteRepository(r.db).Set(ctx, common.UserKey, data)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, common.TokenKey, common.UserKey)
	})
}

func decodeUser(raw []byte) *models.UserProfile {
	if len(raw) == 0 {
		return nil
	}
	var u models.UserProfile
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	return &u
}

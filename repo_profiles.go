package authstate

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the bun-backed repository serving the profile table.
type Profiles interface {
	repository.Repository[*Profile]

	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, userID string) (*Profile, error)

	Insert(ctx context.Context, record *Profile) (*Profile, error)
	InsertTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error)
	GetOrCreate(ctx context.Context, record *Profile) (*Profile, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error)

	UpdateFavorites(ctx context.Context, userID string, favorites []string) error
	UpdateFavoritesTx(ctx context.Context, tx bun.IDB, userID string, favorites []string) error
	UpdateSubscription(ctx context.Context, userID string, isPaid bool) error
	UpdateSubscriptionTx(ctx context.Context, tx bun.IDB, userID string, isPaid bool) error
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ ProfileStore                    = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (a *profiles) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	return a.GetByUserIDTx(ctx, a.db, userID)
}

func (a *profiles) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID string) (*Profile, error) {
	record := &Profile{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID,
				})
		}
		return nil, err
	}

	return record.EnsureDefaults(), nil
}

func (a *profiles) Insert(ctx context.Context, record *Profile) (*Profile, error) {
	return a.InsertTx(ctx, a.db, record)
}

func (a *profiles) InsertTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error) {
	prepareProfileDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *profiles) GetOrCreate(ctx context.Context, record *Profile) (*Profile, error) {
	return a.GetOrCreateTx(ctx, a.db, record)
}

func (a *profiles) GetOrCreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error) {
	existing, err := a.GetByUserIDTx(ctx, tx, record.UserID)
	if err == nil {
		return existing, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return a.InsertTx(ctx, tx, record)
}

func (a *profiles) UpdateFavorites(ctx context.Context, userID string, favorites []string) error {
	return a.UpdateFavoritesTx(ctx, a.db, userID, favorites)
}

func (a *profiles) UpdateFavoritesTx(ctx context.Context, tx bun.IDB, userID string, favorites []string) error {
	if favorites == nil {
		favorites = []string{}
	}

	now := time.Now()
	record := &Profile{
		Favorites: favorites,
		UpdatedAt: &now,
	}

	return a.updateColumns(ctx, tx, record, userID, "favorites")
}

func (a *profiles) UpdateSubscription(ctx context.Context, userID string, isPaid bool) error {
	return a.UpdateSubscriptionTx(ctx, a.db, userID, isPaid)
}

func (a *profiles) UpdateSubscriptionTx(ctx context.Context, tx bun.IDB, userID string, isPaid bool) error {
	now := time.Now()
	record := &Profile{
		IsPaid:    isPaid,
		UpdatedAt: &now,
	}

	return a.updateColumns(ctx, tx, record, userID, "is_paid")
}

func (a *profiles) updateColumns(ctx context.Context, tx bun.IDB, record *Profile, userID string, column string) error {
	res, err := tx.NewUpdate().
		Model(record).
		Column(column, "updated_at").
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)

	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"user_id": userID,
			})
	}

	return nil
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}

	record.EnsureDefaults()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

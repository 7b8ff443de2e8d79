package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserProfiles stores the registration profile of each user
type UserProfiles interface {
	repository.Repository[*UserProfile]

	GetByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *UserProfile, criteria ...repository.InsertCriteria) (*UserProfile, error)
}

type userProfiles struct {
	repository.Repository[*UserProfile]
	queryTimeout time.Duration
	now          func() time.Time
}

var _ UserProfiles = (*userProfiles)(nil)

func NewUserProfilesRepository(db *bun.DB, opts ...RepositoryOption) UserProfiles {
	o := resolveRepoOptions(opts)
	repo := repository.NewRepository[*UserProfile](db, repository.ModelHandlers[*UserProfile]{
		NewRecord: func() *UserProfile { return &UserProfile{} },
		GetID: func(p *UserProfile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.UserID
		},
		SetID: func(p *UserProfile, id uuid.UUID) {
			if p != nil {
				p.UserID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})

	return &userProfiles{
		Repository:   repo,
		queryTimeout: o.queryTimeout,
		now:          o.now,
	}
}

func (p *userProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	ctx, cancel := withQueryTimeout(ctx, p.queryTimeout)
	defer cancel()
	return p.Repository.GetByIdentifier(ctx, userID.String())
}

func (p *userProfiles) CreateTx(ctx context.Context, tx bun.IDB, record *UserProfile, criteria ...repository.InsertCriteria) (*UserProfile, error) {
	if record != nil {
		stamp(&record.CreatedAt, &record.UpdatedAt, p.now())
	}
	return p.Repository.CreateTx(ctx, tx, record, criteria...)
}

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the credential store
type Users interface {
	repository.Repository[*User]
	UserFinder

	GetByLogin(ctx context.Context, identifier string) (*User, error)
	GetByLoginTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error)
	ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error)
	ExistsByPhoneOrEmailTx(ctx context.Context, tx bun.IDB, phone, email string) (bool, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db           *bun.DB
	queryTimeout time.Duration
	now          func() time.Time
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// RepositoryOption configures the bun backed repositories
type RepositoryOption func(*repoOptions)

type repoOptions struct {
	queryTimeout time.Duration
	now          func() time.Time
}

// WithQueryTimeout bounds every single-statement call. Zero disables it.
func WithQueryTimeout(d time.Duration) RepositoryOption {
	return func(o *repoOptions) {
		o.queryTimeout = d
	}
}

// WithRepositoryClock overrides the time source used for timestamps
func WithRepositoryClock(now func() time.Time) RepositoryOption {
	return func(o *repoOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func resolveRepoOptions(opts []RepositoryOption) repoOptions {
	o := repoOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func NewUsersRepository(db *bun.DB, opts ...RepositoryOption) Users {
	o := resolveRepoOptions(opts)
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository:   repo,
		db:           db,
		queryTimeout: o.queryTimeout,
		now:          o.now,
	}
}

// FindByIdentifier resolves a login identifier, phone or email
func (a *users) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.GetByLogin(ctx, identifier)
}

// FindByID resolves the subject of a token
func (a *users) FindByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := withQueryTimeout(ctx, a.queryTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id,
			})
	}

	return a.Repository.GetByID(ctx, id)
}

func (a *users) GetByLogin(ctx context.Context, identifier string) (*User, error) {
	ctx, cancel := withQueryTimeout(ctx, a.queryTimeout)
	defer cancel()
	return a.GetByLoginTx(ctx, a.db, identifier)
}

func (a *users) GetByLoginTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, repository.NewRecordNotFound()
	}

	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ? OR ?TableAlias.phone = ?", identifier, identifier).
		OrderExpr("?TableAlias.created_at ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"identifier": identifier,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error) {
	ctx, cancel := withQueryTimeout(ctx, a.queryTimeout)
	defer cancel()
	return a.ExistsByPhoneOrEmailTx(ctx, a.db, phone, email)
}

func (a *users) ExistsByPhoneOrEmailTx(ctx context.Context, tx bun.IDB, phone, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.phone = ? OR ?TableAlias.email = ?", phone, email).
		Exists(ctx)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	ctx, cancel := withQueryTimeout(ctx, a.queryTimeout)
	defer cancel()
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record, a.now())
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareUserDefaults(record *User, now time.Time) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleStudent
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	stamp(&record.CreatedAt, &record.UpdatedAt, now)
}

func withQueryTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

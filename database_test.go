package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	auth "github.com/goliatone/go-uav-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '0912345678' for key 'phone'"}, true},
		{"wrapped mysql duplicate entry", fmt.Errorf("insert user: %w", &mysql.MySQLError{Number: 1062}), true},
		{"other mysql error", &mysql.MySQLError{Number: 1452, Message: "foreign key constraint fails"}, false},
		{"wrapped sqlite unique", fmt.Errorf("insert user: %w", errors.New("constraint failed: UNIQUE constraint failed: users.phone (2067)")), true},
		{"sqlite not null", errors.New("constraint failed: NOT NULL constraint failed: users.email (1299)"), false},
		{"repository duplicate", goerrors.New("Duplicate key value violates unique constraint", repository.CategoryDatabaseDuplicate), true},
		{"repository constraint", goerrors.New("Not null constraint violation", repository.CategoryDatabaseConstraint), false},
		{"plain", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.IsDuplicateKeyError(tt.err))
		})
	}
}

func TestIsDuplicateKeyError_SQLiteInsert(t *testing.T) {
	ctx := context.Background()
	repo := auth.NewRepositoryManager(newTestDB(t))

	first := newTestUser(auth.RoleStudent)
	_, err := repo.Users().Create(ctx, first)
	require.NoError(t, err)

	clone := newTestUser(auth.RoleStudent)
	clone.ID = uuid.New()
	clone.Email = "clone@example.com"
	_, err = repo.Users().Create(ctx, clone)

	require.Error(t, err)
	assert.True(t, auth.IsDuplicateKeyError(err))
}

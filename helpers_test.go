package auth_test

import (
	"context"
	"path/filepath"
	"testing"

	auth "github.com/goliatone/go-uav-auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// newTestDB opens a migrated SQLite database in a temp dir
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := auth.OpenSQLite(ctx, "file:"+filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, auth.Migrate(ctx, db))
	return db
}

func fastHasher() *auth.BcryptHasher {
	return &auth.BcryptHasher{Cost: bcrypt.MinCost}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func countRows(t *testing.T, db *bun.DB, table string) int {
	t.Helper()
	count, err := db.NewSelect().Table(table).Count(context.Background())
	require.NoError(t, err)
	return count
}

func registerMessage() auth.RegisterUserMessage {
	return auth.RegisterUserMessage{
		Phone:               "0912345678",
		Email:               "pilot@example.com",
		Password:            "s3cret-pass",
		FullName:            "Nguyen Van A",
		BirthDate:           "1995-04-12",
		CCCD:                "079095001234",
		Gender:              "male",
		FinalCurrentAddress: "12 Le Loi, W1, D1, HCMC",
		PermanentAddress:    "5 Tran Hung Dao",
		PermanentDistrict:   "D5",
		PermanentCity:       "HCMC",
		EmergencyName:       "Nguyen Thi B",
		EmergencyPhone:      "0987654321",
		EmergencyRelation:   "sister",
		UAVTypes:            auth.UAVTypes{"DJI Mini", "Autel"},
		UAVPurpose:          "aerial photography",
		ActivityArea:        "Ho Chi Minh City",
		Experience:          "1 year",
		CertificateType:     "A",
	}
}

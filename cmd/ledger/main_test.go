package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/testutil"
)

// runLedger executes the CLI against dbPath and returns everything it printed.
func runLedger(t *testing.T, dbPath, stdin string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	cfgFile = ""
	appConfig = nil
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	out, err := runLedger(t, dbPath, "", args...)
	require.NoError(t, err, "ledger %s\n%s", strings.Join(args, " "), out)
	return out
}

func TestCLI_PostingsTransfersAndBalances(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	mustRun(t, dbPath, "groups", "add", "Bank")
	mustRun(t, dbPath, "accounts", "add", "Checking", "--group", "Bank", "--kind", "bank")
	mustRun(t, dbPath, "accounts", "add", "Savings", "--group", "bank")
	mustRun(t, dbPath, "categories", "add", "Salary")

	mustRun(t, dbPath, "post", "income", "Checking", "100", "--date", "2024-01-01", "--category", "Salary")
	mustRun(t, dbPath, "post", "expense", "checking", "60", "--date", "2024-01-02")

	out := mustRun(t, dbPath, "accounts", "balance", "Checking")
	assert.Contains(t, out, "$40.00")

	out = mustRun(t, dbPath, "accounts", "balance", "Checking", "--as-of", "2024-01-01")
	assert.Contains(t, out, "$100.00")

	mustRun(t, dbPath, "transfer", "create", "Checking", "Savings", "25", "--date", "2024-01-03")

	out = mustRun(t, dbPath, "accounts", "balance", "Savings")
	assert.Contains(t, out, "$25.00")
	out = mustRun(t, dbPath, "accounts", "balance", "Checking")
	assert.Contains(t, out, "$15.00")

	out = mustRun(t, dbPath, "balance")
	assert.Contains(t, out, "Bank")
	assert.Contains(t, out, "$40.00")

	out = mustRun(t, dbPath, "transactions", "list", "--account", "Savings")
	assert.Contains(t, out, "transfer")
	assert.Contains(t, out, "Checking "+"⇄"+" Savings")

	out = mustRun(t, dbPath, "transactions", "list", "--category", "Salary")
	assert.Contains(t, out, "income")
	assert.NotContains(t, out, "expense")

	out = mustRun(t, dbPath, "accounts", "history", "Checking")
	assert.Contains(t, out, "2024-01-03")
}

func TestCLI_ValidationErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	mustRun(t, dbPath, "accounts", "add", "Wallet", "--kind", "cash")

	_, err := runLedger(t, dbPath, "", "transfer", "create", "Wallet", "Wallet", "5")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = runLedger(t, dbPath, "", "post", "income", "Nowhere", "5")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = runLedger(t, dbPath, "", "post", "income", "Wallet", "lots")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = runLedger(t, dbPath, "", "accounts", "add", "Vault", "--kind", "safe")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCLI_DeleteGroupConfirmsAndCheckpoints(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	mustRun(t, dbPath, "groups", "add", "Cash")
	mustRun(t, dbPath, "accounts", "add", "Wallet", "--group", "Cash")
	mustRun(t, dbPath, "post", "income", "Wallet", "20")

	out, err := runLedger(t, dbPath, "n\n", "groups", "delete", "Cash")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")
	assert.Contains(t, mustRun(t, dbPath, "groups", "list"), "Cash")

	out, err = runLedger(t, dbPath, "y\n", "groups", "delete", "Cash")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved checkpoint auto-delete-group")
	assert.Contains(t, out, "1 accounts")
	assert.Contains(t, mustRun(t, dbPath, "groups", "list"), "No groups found")

	out = mustRun(t, dbPath, "checkpoint", "list")
	assert.Contains(t, out, "auto-delete-group")
	assert.Contains(t, out, "auto")
}

func TestCLI_Migrate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	out := mustRun(t, dbPath, "migrate", "--status")
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "pending")

	mustRun(t, dbPath, "migrate")
	out = mustRun(t, dbPath, "migrate", "--status")
	assert.Contains(t, out, "up to date")
}

func TestResolve(t *testing.T) {
	accounts := []model.Account{
		{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Name: "Checking"},
		{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Name: "Savings"},
		{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), Name: "savings"},
	}
	id := func(a model.Account) uuid.UUID { return a.ID }
	name := func(a model.Account) string { return a.Name }

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr error
	}{
		{name: "exact name", ref: "Checking", want: "Checking"},
		{name: "case-insensitive name", ref: "CHECKING", want: "Checking"},
		{name: "full id", ref: "22222222-2222-2222-2222-222222222222", want: "Savings"},
		{name: "id prefix", ref: "33333333", want: "savings"},
		{name: "ambiguous name", ref: "Savings", wantErr: common.ErrValidation},
		{name: "unknown name", ref: "Brokerage", wantErr: common.ErrNotFound},
		{name: "unknown id", ref: "44444444-4444-4444-4444-444444444444", wantErr: common.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve("account", tt.ref, accounts, id, name)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-02-29")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local)))

	got, err = parseDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseDate("02/29/2024")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestParseDateIn_BoundsMatchLedgerClock(t *testing.T) {
	ctx := context.Background()
	est := time.FixedZone("EST", -5*60*60)
	db := testutil.SetupTestDB(t)
	l := ledger.New(db.Storage)

	checking := &model.Account{Name: "Checking", Kind: model.AccountKindOffline, IncludeInBalance: true}
	require.NoError(t, l.CreateAccount(ctx, checking))

	// 22:00 local is already the next day in UTC.
	posted := time.Date(2024, 1, 1, 22, 0, 0, 0, est)
	_, err := l.CreateSimplePosting(ctx, ledger.PostingRequest{
		Account: checking.ID, Type: model.TransactionTypeIncome, Amount: decimal.NewFromInt(50), Date: posted,
	})
	require.NoError(t, err)

	day, err := parseDateIn("2024-01-01", est)
	require.NoError(t, err)
	balance, err := l.RunningBalance(ctx, checking.ID, endOfDay(day))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(50)), "got %s", balance)

	day, err = parseDateIn("2023-12-31", est)
	require.NoError(t, err)
	balance, err = l.RunningBalance(ctx, checking.ID, endOfDay(day))
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "got %s", balance)
}

func TestFormatDay(t *testing.T) {
	midnight := time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2024-03-09", formatDay(midnight.UTC()))
	assert.Equal(t, "2024-03-09", formatDay(endOfDay(midnight)))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1.5 KB", formatFileSize(1536))
	assert.Equal(t, "2.0 MB", formatFileSize(2*1024*1024))
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeledger-backend-go/internal/app"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/config"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/domain/ledger"
	"github.com/cmlabs-hris/timeledger-backend-go/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cli-test-secret"

type brokenLedger struct {
	ledger.Service
	employeeID string
}

func (b brokenLedger) VerifyChain(ctx context.Context, employeeID string) (ledger.Verification, error) {
	if employeeID == b.employeeID {
		return ledger.Verification{}, &ledger.ChainBrokenError{EmployeeID: employeeID, EventID: "evt-2", Sequence: 2, Reason: "hash mismatch"}
	}
	return b.Service.VerifyChain(ctx, employeeID)
}

type harness struct {
	cfg  *config.Config
	svc  *app.Services
	opts *RootOptions
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		Database:   config.DatabaseConfig{Driver: config.StorageDriverMemory},
		JWT:        config.JWTConfig{Secret: testSecret, AccessExpiration: time.Hour},
		Compliance: config.ComplianceConfig{PreApprovalTTL: time.Hour},
		Offline:    config.OfflineConfig{QueuePath: filepath.Join(t.TempDir(), "queue.db"), DrainInterval: time.Minute},
	}
	svc, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	for _, id := range []string{"emp-1", "emp-2"} {
		require.NoError(t, svc.Employees.Save(context.Background(), employee.Employee{
			ID: id, CompanyID: "co-1", EmploymentStatus: employee.EmploymentStatusActive,
		}))
	}

	h := &harness{cfg: cfg, svc: svc}
	h.opts = &RootOptions{
		LoadConfig: func() (*config.Config, error) { return cfg, nil },
		Open: func(context.Context, *config.Config) (*app.Services, func(), error) {
			return h.svc, func() {}, nil
		},
	}
	return h
}

func (h *harness) clock(t *testing.T, employeeID string, kind ledger.Kind, ts time.Time) {
	t.Helper()
	_, err := h.svc.Ledger.Append(context.Background(), ledger.AppendRequest{EmployeeID: employeeID, Kind: kind, Timestamp: &ts})
	require.NoError(t, err)
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(h.opts)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func at(d, h, m int) time.Time {
	return time.Date(2026, 3, d, h, m, 0, 0, time.UTC)
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "verify", "emp-1", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestVerify(t *testing.T) {
	h := newHarness(t)
	h.clock(t, "emp-1", ledger.KindClockIn, at(2, 9, 0))
	h.clock(t, "emp-1", ledger.KindClockOut, at(2, 17, 0))

	out, err := h.run(t, "verify", "--company", "co-1")
	require.NoError(t, err)
	assert.Contains(t, out, "emp-1")
	assert.Contains(t, out, "emp-2")
	assert.NotContains(t, out, "BROKEN")

	_, err = h.run(t, "verify")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerify_BrokenChainExitsWithFailure(t *testing.T) {
	h := newHarness(t)
	h.svc.Ledger = brokenLedger{Service: h.svc.Ledger, employeeID: "emp-2"}

	out, err := h.run(t, "verify", "emp-1", "emp-2", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data []ChainStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].Valid)
	assert.False(t, resp.Data[1].Valid)
	assert.Equal(t, int64(2), resp.Data[1].Sequence)
	assert.Equal(t, "evt-2", resp.Data[1].EventID)
}

func TestPeriods(t *testing.T) {
	h := newHarness(t)
	h.clock(t, "emp-1", ledger.KindClockIn, at(2, 9, 0))
	h.clock(t, "emp-1", ledger.KindClockOut, at(2, 17, 30))

	out, err := h.run(t, "periods", "emp-1", "--from", "2026-03-02", "--to", "2026-03-08", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []struct {
			DurationMinutes int64 `json:"duration_minutes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(510), resp.Data[0].DurationMinutes)

	_, err = h.run(t, "periods", "emp-1", "--from", "2026-03-08", "--to", "2026-03-02")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = h.run(t, "periods", "ghost")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSummary(t *testing.T) {
	h := newHarness(t)
	h.clock(t, "emp-1", ledger.KindClockIn, at(2, 9, 0))
	h.clock(t, "emp-1", ledger.KindClockOut, at(2, 17, 0))
	h.clock(t, "emp-1", ledger.KindClockIn, at(2, 17, 30))
	h.clock(t, "emp-1", ledger.KindClockOut, at(2, 18, 0))

	out, err := h.run(t, "summary", "--company", "co-1", "--from", "2026-03-02", "--to", "2026-03-08")
	require.NoError(t, err)
	assert.Contains(t, out, "co-1 2026-03-02/2026-03-08: 1 findings (0 waived)")
	assert.Contains(t, out, "rest_period_insufficient")

	_, err = h.run(t, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestQueue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Queue.Enqueue(ctx, "emp-1", string(ledger.KindClockIn), at(2, 9, 0))
	require.NoError(t, err)
	_, err = h.svc.Queue.Enqueue(ctx, "emp-1", string(ledger.KindClockIn), at(2, 9, 5))
	require.NoError(t, err)

	out, err := h.run(t, "queue", "stats", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"pending":2,"failed":0}}`, out)

	out, err = h.run(t, "queue", "drain")
	require.NoError(t, err)
	assert.Contains(t, out, "submitted  1")
	assert.Contains(t, out, "failed     1")

	out, err = h.run(t, "queue", "list", "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "already_clocked_in")

	_, err = h.run(t, "queue", "list", "--status", "done")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	snap, err := h.svc.Ledger.Snapshot(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, ledger.SourceOffline, snap.Events[0].Source)
}

func TestToken(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "token", "--user", "u-1", "--company", "co-1", "--role", "manager", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data TokenResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	token, err := jwt.NewJWTService(testSecret, time.Hour).JWTAuth().Decode(resp.Data.Token)
	require.NoError(t, err)
	m, err := token.AsMap(context.Background())
	require.NoError(t, err)
	claims, err := jwt.ClaimsFromMap(m)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.True(t, claims.Role.IsManager())
	assert.Equal(t, "access", m["type"])

	_, err = h.run(t, "token", "--user", "u-1", "--company", "co-1")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "employee tokens need --employee")

	_, err = h.run(t, "token", "--user", "u-1", "--company", "co-1", "--role", "admin")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("plain")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
}

package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGetSessionRecord(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec := SessionRecord{
		SessionID:   "cs_abc",
		Funnel:      "assessment",
		AmountTotal: 4999,
		ItemCount:   1,
		ClientIP:    "203.0.113.9",
	}
	require.NoError(t, db.InsertSessionRecord(ctx, rec))

	got, err := db.GetSessionRecord(ctx, "cs_abc")
	require.NoError(t, err)
	assert.Equal(t, "assessment", got.Funnel)
	assert.Equal(t, int64(4999), got.AmountTotal)
	assert.Equal(t, 1, got.ItemCount)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestDuplicateSessionRecordFails(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec := SessionRecord{SessionID: "cs_abc", Funnel: "assessment"}
	require.NoError(t, db.InsertSessionRecord(ctx, rec))
	assert.Error(t, db.InsertSessionRecord(ctx, rec))
}

func TestGetSummary(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertSessionRecord(ctx, SessionRecord{SessionID: "cs_1", Funnel: "assessment", AmountTotal: 4999}))
	require.NoError(t, db.InsertSessionRecord(ctx, SessionRecord{SessionID: "cs_2", Funnel: "assessment", AmountTotal: 14900}))
	require.NoError(t, db.InsertSessionRecord(ctx, SessionRecord{SessionID: "cs_3", Funnel: "metabolic-reset", AmountTotal: 7500}))

	require.NoError(t, db.InsertAccessEntry(ctx, AccessEntry{SessionID: "cs_1", Funnel: "assessment", Outcome: "granted"}))
	require.NoError(t, db.InsertAccessEntry(ctx, AccessEntry{SessionID: "cs_2", Funnel: "assessment", Outcome: "denied", Reason: "payment check"}))
	require.NoError(t, db.InsertAccessEntry(ctx, AccessEntry{SessionID: "cs_3", Funnel: "metabolic-reset", Outcome: "granted"}))

	summary, err := db.GetSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalSessions)
	assert.Equal(t, int64(27399), summary.GrossAmount)
	assert.Equal(t, 2, summary.SessionsByFunnel["assessment"])
	assert.Equal(t, 1, summary.SessionsByFunnel["metabolic-reset"])
	assert.Equal(t, 2, summary.DecisionCounts["granted"])
	assert.Equal(t, 1, summary.DecisionCounts["denied"])
}

func TestGetSessionRecordMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetSessionRecord(context.Background(), "cs_missing")
	assert.Error(t, err)
}

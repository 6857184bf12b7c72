package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectseashield/seashield/pkg/core/model"
)

func TestDedupeCheckIns_NoDuplicates(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	checkIns := []model.CheckIn{
		{ID: "c1", UserID: "u1", EventID: "e1", Timestamp: base},
		{ID: "c2", UserID: "u1", EventID: "e2", Timestamp: base.Add(time.Hour)},
		{ID: "c3", UserID: "u2", EventID: "e1", Timestamp: base.Add(2 * time.Hour)},
	}

	kept, duplicates := DedupeCheckIns(checkIns)

	assert.Len(t, kept, 3)
	assert.Empty(t, duplicates)
}

func TestDedupeCheckIns_KeepsEarliest(t *testing.T) {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	checkIns := []model.CheckIn{
		{ID: "late", UserID: "u1", EventID: "e1", Timestamp: base.Add(time.Minute)},
		{ID: "early", UserID: "u1", EventID: "e1", Timestamp: base},
		{ID: "other", UserID: "u2", EventID: "e1", Timestamp: base},
	}

	kept, duplicates := DedupeCheckIns(checkIns)

	require.Len(t, kept, 2)
	require.Len(t, duplicates, 1)
	assert.Equal(t, "late", duplicates[0].ID)

	keptIDs := []string{kept[0].ID, kept[1].ID}
	assert.ElementsMatch(t, []string{"early", "other"}, keptIDs)
}

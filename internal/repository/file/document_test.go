package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

func TestLoadMissingFileReturnsEmptyDocument(t *testing.T) {
	repo, err := NewDocumentRepository(filepath.Join(t.TempDir(), "data", "kitchen.json"))
	require.NoError(t, err)

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Partners)
	assert.NotNil(t, doc.PendingConfirmations)
	assert.Equal(t, "10:00", doc.Settings.VegConfirm.ConfirmTime)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kitchen.json")
	repo, err := NewDocumentRepository(path)
	require.NoError(t, err)

	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	doc := models.NewDocument()
	doc.Partners = append(doc.Partners, &models.Partner{ID: 7, Name: "Ravi", Role: models.RoleOwner})
	doc.PendingConfirmations[models.ConfirmationKey{Date: "2026-10-18", PartnerID: 7}] = &models.PendingConfirmation{
		Status:      models.ConfirmPending,
		LastUpdated: at,
	}
	doc.LastSent[models.SentKey{Kind: "veg_prompt", Ref: "2026-10-18:7"}] = at
	require.NoError(t, repo.Save(ctx, doc))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Partners, 1)
	assert.Equal(t, "Ravi", got.Partners[0].Name)
	entry := got.PendingConfirmations[models.ConfirmationKey{Date: "2026-10-18", PartnerID: 7}]
	require.NotNil(t, entry)
	assert.Equal(t, models.ConfirmPending, entry.Status)
	assert.True(t, at.Equal(got.LastSent[models.SentKey{Kind: "veg_prompt", Ref: "2026-10-18:7"}]))
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kitchen.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	repo, err := NewDocumentRepository(path)
	require.NoError(t, err)
	_, err = repo.Load(context.Background())
	assert.Error(t, err)
}

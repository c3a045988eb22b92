package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/models"
)

func TestLoadEmptyDatabaseReturnsEmptyDocument(t *testing.T) {
	repo, err := NewDocumentRepository(filepath.Join(t.TempDir(), "data", "kitchen.db"))
	require.NoError(t, err)
	defer repo.Close()

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Partners)
	assert.NotNil(t, doc.PendingConfirmations)
	assert.Equal(t, "10:00", doc.Settings.VegConfirm.ConfirmTime)
}

func TestSaveAndLoadAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kitchen.db")
	repo, err := NewDocumentRepository(path)
	require.NoError(t, err)

	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	key := models.ConfirmationKey{Date: "2026-10-18", PartnerID: 7}
	sent := models.SentKey{Kind: "veg_prompt", Ref: "2026-10-18:7"}

	doc := models.NewDocument()
	doc.Partners = append(doc.Partners, &models.Partner{ID: 7, Name: "Ravi", Role: models.RoleOwner})
	doc.PendingConfirmations[key] = &models.PendingConfirmation{Status: models.ConfirmPending, LastUpdated: at}
	doc.LastSent[sent] = at
	require.NoError(t, repo.Save(ctx, doc))

	// second save replaces the single row
	doc.Partners[0].Name = "Ravi K"
	require.NoError(t, repo.Save(ctx, doc))
	require.NoError(t, repo.Close())

	reopened, err := NewDocumentRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Partners, 1)
	assert.Equal(t, "Ravi K", got.Partners[0].Name)
	entry := got.PendingConfirmations[key]
	require.NotNil(t, entry)
	assert.Equal(t, models.ConfirmPending, entry.Status)
	assert.True(t, at.Equal(got.LastSent[sent]))
}

func TestLoadAfterCloseFails(t *testing.T) {
	repo, err := NewDocumentRepository(filepath.Join(t.TempDir(), "kitchen.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = repo.Load(context.Background())
	assert.Error(t, err)
}

package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/fallback"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/services"
	"github.com/dimitrije/adme-site/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInquiryService_Integration_Create(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewInquiryService(tdb.DB)

	inquiry, err := svc.Create(context.Background(), testutil.NewInquiry("Jane", "jane@example.com"))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, inquiry.ID)
	assert.Equal(t, models.InquiryStatusNew, inquiry.Status)
	assert.Equal(t, models.InquiryPriorityMedium, inquiry.Priority)
	assert.Equal(t, "Website redesign", *inquiry.Subject)
	assert.Nil(t, inquiry.AssignedTo)
}

func TestInquiryService_Integration_ListAndFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewInquiryService(tdb.DB)
	ctx := context.Background()

	first, err := svc.Create(ctx, testutil.NewInquiry("First", "first@example.com"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, testutil.NewInquiry("Second", "second@example.com"))
	require.NoError(t, err)

	contacted := models.InquiryStatusContacted
	_, err = svc.Update(ctx, first.ID, models.InquiryUpdate{Status: &contacted})
	require.NoError(t, err)

	all, err := svc.List(ctx, models.InquiryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyNew, err := svc.List(ctx, models.InquiryFilter{Status: models.InquiryStatusNew})
	require.NoError(t, err)
	require.Len(t, onlyNew, 1)
	assert.Equal(t, "Second", onlyNew[0].Name)

	limited, err := svc.List(ctx, models.InquiryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestInquiryService_Integration_UpdateAssigns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewInquiryService(tdb.DB)
	ctx := context.Background()

	admin := fixtures.CreateProfile(t, testutil.WithRole(models.RoleAdmin))
	inquiry, err := svc.Create(ctx, testutil.NewInquiry("Jane", "jane@example.com"))
	require.NoError(t, err)

	high := models.InquiryPriorityHigh
	updated, err := svc.Update(ctx, inquiry.ID, models.InquiryUpdate{Priority: &high, AssignedTo: &admin.ID})
	require.NoError(t, err)
	assert.Equal(t, models.InquiryPriorityHigh, updated.Priority)
	assert.Equal(t, models.InquiryStatusNew, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, admin.ID, *updated.AssignedTo)

	_, err = svc.Update(ctx, uuid.New(), models.InquiryUpdate{Priority: &high})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestInquiries_Integration_FallsBackWhenTableMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	ctx := context.Background()

	_, err := tdb.DB.Pool.Exec(ctx, `DROP TABLE contact_inquiries`)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, tdb.DB.Migrate(context.Background()))
	})

	local, err := fallback.Open(filepath.Join(t.TempDir(), "fallback.db"))
	require.NoError(t, err)
	defer local.Close()

	inquiries := fallback.NewInquiries(services.NewInquiryService(tdb.DB), local, nil)

	inquiry, err := inquiries.Create(ctx, testutil.NewInquiry("Jane", "jane@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "Jane", inquiry.Name)

	kept, err := local.List(ctx, models.InquiryFilter{})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, inquiry.ID, kept[0].ID)
}

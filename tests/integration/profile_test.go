package integration

import (
	"context"
	"testing"

	"github.com/dimitrije/adme-site/internal/account"
	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/gotrue"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/services"
	"github.com/dimitrije/adme-site/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Integration_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewProfileService(tdb.DB)
	ctx := context.Background()

	name := "Jane Doe"
	created, err := svc.Create(ctx, &models.Profile{
		ID:       uuid.New(),
		Email:    "jane@example.com",
		FullName: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Jane Doe", *got.FullName)
	assert.Nil(t, got.CompanyName)
}

func TestProfileService_Integration_GetMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewProfileService(tdb.DB)

	_, err := svc.GetByID(context.Background(), uuid.New())

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProfileService_Integration_CreateDuplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewProfileService(tdb.DB)

	existing := fixtures.CreateProfile(t)

	_, err := svc.Create(context.Background(), &models.Profile{ID: existing.ID, Email: existing.Email})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestProfileService_Integration_Update(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewProfileService(tdb.DB)
	ctx := context.Background()

	profile := fixtures.CreateProfile(t, testutil.WithCompany("Old Co"))

	company := "New Co"
	blank := ""
	updated, err := svc.Update(ctx, profile.ID, models.ProfileUpdate{
		CompanyName: &company,
		FullName:    &blank,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Co", *updated.CompanyName)
	assert.Nil(t, updated.FullName)
	assert.Equal(t, profile.Email, updated.Email)
	assert.True(t, updated.UpdatedAt.After(profile.UpdatedAt) || updated.UpdatedAt.Equal(profile.UpdatedAt))

	_, err = svc.Update(ctx, uuid.New(), models.ProfileUpdate{CompanyName: &company})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProfileService_Integration_SetRoleByEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewProfileService(tdb.DB)
	ctx := context.Background()

	fixtures.CreateProfile(t, testutil.WithEmail("boss@example.com"))

	profile, err := svc.SetRoleByEmail(ctx, "boss@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, profile.Role)

	_, err = svc.SetRoleByEmail(ctx, "nobody@example.com", models.RoleAdmin)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.SetRoleByEmail(ctx, "boss@example.com", models.Role("owner"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSynchronizer_Integration_SignInCreatesProfile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	profiles := services.NewProfileService(tdb.DB)
	ctx := context.Background()

	fake := testutil.NewFakeGoTrue(t)
	user := fake.AddUser("jane@example.com", "correct-horse", map[string]any{
		"full_name":    "Jane Doe",
		"company_name": "Acme",
	})

	client := fake.API().NewClient(gotrue.NewMemoryStorage(nil))
	sync := account.New(client, profiles)
	defer sync.Close()

	_, err := client.SignInWithPassword(ctx, "jane@example.com", "correct-horse")
	require.NoError(t, err)

	st := sync.State()
	require.Equal(t, account.PhaseAuthenticated, st.Phase)
	require.NotNil(t, st.Profile)
	assert.Equal(t, user.ID, st.Profile.ID)

	stored, err := profiles.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", *stored.FullName)
	assert.Equal(t, "Acme", *stored.CompanyName)
	assert.Equal(t, models.RoleClient, stored.Role)

	// A second sign-in finds the row instead of creating another.
	_, err = client.SignInWithPassword(ctx, "jane@example.com", "correct-horse")
	require.NoError(t, err)

	var count int
	require.NoError(t, tdb.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count))
	assert.Equal(t, 1, count)
}

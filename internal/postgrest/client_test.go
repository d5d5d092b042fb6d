package postgrest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAnonKey = "anon-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return New(server.URL, testAnonKey)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func profileRow(id uuid.UUID) map[string]any {
	return map[string]any{
		"id":           id.String(),
		"email":        "jane@example.com",
		"full_name":    "Jane Doe",
		"avatar_url":   nil,
		"company_name": "Acme",
		"phone":        nil,
		"role":         "client",
		"created_at":   time.Now().UTC().Format(time.RFC3339),
		"updated_at":   time.Now().UTC().Format(time.RFC3339),
	}
}

func TestProfileStore_GetByID(t *testing.T) {
	id := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq."+id.String(), r.URL.Query().Get("id"))
		assert.Equal(t, mediaObject, r.Header.Get("Accept"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, profileRow(id))
	})
	store := NewProfileStore(client)

	profile, err := store.GetByID(WithAccessToken(context.Background(), "user-token"), id)

	require.NoError(t, err)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, "Jane Doe", *profile.FullName)
	assert.Nil(t, profile.Phone)
	assert.Equal(t, models.RoleClient, profile.Role)
}

func TestProfileStore_GetByID_NoRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testAnonKey, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusNotAcceptable, map[string]string{
			"code":    "PGRST116",
			"message": "JSON object requested, multiple (or no) rows returned",
			"details": "The result contains 0 rows",
		})
	})

	profile, err := NewProfileStore(client).GetByID(context.Background(), uuid.New())

	assert.Nil(t, profile)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProfileStore_Create_Conflict(t *testing.T) {
	id := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, id.String(), body["id"])
		assert.Equal(t, "client", body["role"])

		writeJSON(w, http.StatusConflict, map[string]string{
			"code":    "23505",
			"message": `duplicate key value violates unique constraint "profiles_pkey"`,
		})
	})

	_, err := NewProfileStore(client).Create(context.Background(), &models.Profile{ID: id, Email: "jane@example.com"})

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestProfileStore_Create_RejectedIsWriteFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "23502", "message": "null value in column"})
	})

	_, err := NewProfileStore(client).Create(context.Background(), &models.Profile{ID: uuid.New()})

	assert.True(t, apperr.Is(err, apperr.KindWriteFailure))
	assert.Equal(t, "null value in column", apperr.Message(err))
}

func TestProfileStore_Update_SendsOnlyChangedFields(t *testing.T) {
	id := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq."+id.String(), r.URL.Query().Get("id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Renamed", body["full_name"])
		assert.Contains(t, body, "phone")
		assert.Nil(t, body["phone"])
		assert.NotContains(t, body, "company_name")
		assert.NotContains(t, body, "avatar_url")

		row := profileRow(id)
		row["full_name"] = "Renamed"
		writeJSON(w, http.StatusOK, row)
	})
	name, phone := "Renamed", ""

	profile, err := NewProfileStore(client).Update(context.Background(), id, models.ProfileUpdate{FullName: &name, Phone: &phone})

	require.NoError(t, err)
	assert.Equal(t, "Renamed", *profile.FullName)
}

func TestProfileStore_SetRoleByEmail(t *testing.T) {
	id := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.ops@example.com", r.URL.Query().Get("email"))
		row := profileRow(id)
		row["role"] = "admin"
		writeJSON(w, http.StatusOK, row)
	})

	profile, err := NewProfileStore(client).SetRoleByEmail(context.Background(), "ops@example.com", models.RoleAdmin)

	require.NoError(t, err)
	assert.True(t, profile.IsAdmin())
}

func TestInquiryStore_Create(t *testing.T) {
	id := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/contact_inquiries", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new", body["status"])
		assert.Equal(t, "medium", body["priority"])
		for _, column := range []string{"company", "phone", "subject"} {
			assert.Contains(t, body, column)
			assert.Nil(t, body[column], column)
		}

		body["id"] = id.String()
		body["created_at"] = time.Now().UTC().Format(time.RFC3339)
		body["updated_at"] = body["created_at"]
		writeJSON(w, http.StatusCreated, body)
	})

	inquiry, err := NewInquiryStore(client).Create(context.Background(), &models.ContactInquiry{
		Name: "Jane", Email: "jane@example.com", Message: "Hello",
	})

	require.NoError(t, err)
	assert.Equal(t, id, inquiry.ID)
	assert.Equal(t, models.InquiryStatusNew, inquiry.Status)
	assert.Equal(t, models.InquiryPriorityMedium, inquiry.Priority)
	assert.Nil(t, inquiry.Company)
}

func TestInquiryStore_Create_MissingTable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"code":    "PGRST205",
			"message": "Could not find the table 'public.contact_inquiries' in the schema cache",
		})
	})

	_, err := NewInquiryStore(client).Create(context.Background(), &models.ContactInquiry{Name: "a", Email: "b", Message: "c"})

	assert.ErrorIs(t, err, apperr.ErrMissingTable)
	assert.True(t, apperr.Is(err, apperr.KindWriteFailure))
}

func TestInquiryStore_List(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eq.new", q.Get("status"))
		assert.Equal(t, "25", q.Get("limit"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Equal(t, mediaJSON, r.Header.Get("Accept"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": uuid.NewString(), "name": "A", "email": "a@example.com", "message": "m", "status": "new", "priority": "high"},
		})
	})

	inquiries, err := NewInquiryStore(client).List(context.Background(), models.InquiryFilter{Status: models.InquiryStatusNew, Limit: 25})

	require.NoError(t, err)
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryPriorityHigh, inquiries[0].Priority)
}

func TestInquiryStore_Update(t *testing.T) {
	id := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "contacted", body["status"])
		assert.NotContains(t, body, "priority")
		writeJSON(w, http.StatusOK, map[string]any{"id": id.String(), "name": "A", "email": "a", "message": "m", "status": "contacted", "priority": "medium"})
	})
	status := models.InquiryStatusContacted

	inquiry, err := NewInquiryStore(client).Update(context.Background(), id, models.InquiryUpdate{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, models.InquiryStatusContacted, inquiry.Status)
}

func TestCatalogStore_ListActive(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/services", r.URL.Path)
		assert.Equal(t, "is.true", r.URL.Query().Get("is_active"))
		assert.Equal(t, "display_order.asc,name.asc", r.URL.Query().Get("order"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": uuid.NewString(), "name": "Web Development", "features": []string{"SEO"}, "is_active": true, "display_order": 1},
		})
	})

	services, err := NewCatalogStore(client).ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, []string{"SEO"}, services[0].Features)
}

func TestProjectStore_ListByClient(t *testing.T) {
	clientID := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq."+clientID.String(), r.URL.Query().Get("client_id"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": uuid.NewString(), "client_id": clientID.String(), "title": "Shop", "status": "proposal"},
		})
	})

	projects, err := NewProjectStore(client).ListByClient(context.Background(), clientID)

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, models.ProjectStatusProposal, projects[0].Status)
}

func TestProjectStore_Create_DefaultsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "inquiry", body["status"])
		body["id"] = uuid.NewString()
		writeJSON(w, http.StatusCreated, body)
	})

	project, err := NewProjectStore(client).Create(context.Background(), &models.Project{Title: "Shop"})

	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusInquiry, project.Status)
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]string
		kind   apperr.Kind
	}{
		{"expired jwt", http.StatusUnauthorized, map[string]string{"code": "PGRST301", "message": "JWT expired"}, apperr.KindAuthFailure},
		{"rls", http.StatusForbidden, map[string]string{"code": "42501", "message": "permission denied"}, apperr.KindAuthFailure},
		{"gateway", http.StatusGatewayTimeout, map[string]string{}, apperr.KindNetworkOrTimeout},
		{"server", http.StatusInternalServerError, map[string]string{"message": "boom"}, apperr.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := client.Ping(context.Background(), "profiles")

			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	err := New(server.URL, testAnonKey).Ping(context.Background(), "profiles")

	assert.True(t, apperr.Is(err, apperr.KindNetworkOrTimeout))
}

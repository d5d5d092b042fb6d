package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dimitrije/adme-site/internal/gotrue"
	"github.com/dimitrije/adme-site/internal/middleware"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/dimitrije/adme-site/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAdminApp(inquiries *testutil.MockInquiryService) http.Handler {
	handler := NewAdminHandler(inquiries)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	admin := app.Group("/api/v1/admin")
	admin.Use(middleware.Auth(gotrue.NewVerifier(testutil.TestJWTSecret)))
	admin.Get("/inquiries", handler.ListInquiries)
	admin.Patch("/inquiries/:id", handler.UpdateInquiry)
	return app
}

func TestAdminHandler_ListInquiries(t *testing.T) {
	inquiries := new(testutil.MockInquiryService)
	inquiries.On("List", withToken(), models.InquiryFilter{Status: models.InquiryStatusNew, Limit: 20}).
		Return([]models.ContactInquiry{
			*testutil.NewInquiry("Jane", "jane@example.com"),
		}, nil)

	rec := serve(t, newAdminApp(inquiries), http.MethodGet, "/api/v1/admin/inquiries?status=new&limit=20", nil, bearer(t, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.InquiryListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Inquiries, 1)
	assert.Equal(t, "Jane", resp.Inquiries[0].Name)
	inquiries.AssertExpectations(t)
}

func TestAdminHandler_ListInquiries_BadQuery(t *testing.T) {
	for _, query := range []string{"?status=archived", "?limit=0", "?limit=501", "?limit=ten"} {
		t.Run(query, func(t *testing.T) {
			inquiries := new(testutil.MockInquiryService)

			rec := serve(t, newAdminApp(inquiries), http.MethodGet, "/api/v1/admin/inquiries"+query, nil, bearer(t, uuid.New()))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			inquiries.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminHandler_UpdateInquiry(t *testing.T) {
	id := uuid.New()
	status := models.InquiryStatusContacted
	priority := models.InquiryPriorityHigh
	inquiries := new(testutil.MockInquiryService)
	inquiries.On("Update", withToken(), id, models.InquiryUpdate{Status: &status, Priority: &priority}).
		Return(&models.ContactInquiry{ID: id, Status: status, Priority: priority}, nil)

	rec := serve(t, newAdminApp(inquiries), http.MethodPatch, "/api/v1/admin/inquiries/"+id.String(),
		dto.UpdateInquiryRequest{Status: &status, Priority: &priority}, bearer(t, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got models.ContactInquiry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.InquiryStatusContacted, got.Status)
	inquiries.AssertExpectations(t)
}

func TestAdminHandler_UpdateInquiry_Rejected(t *testing.T) {
	badPriority := models.InquiryPriority("urgent")

	tests := []struct {
		name string
		body dto.UpdateInquiryRequest
	}{
		{"empty", dto.UpdateInquiryRequest{}},
		{"invalid priority", dto.UpdateInquiryRequest{Priority: &badPriority}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inquiries := new(testutil.MockInquiryService)

			rec := serve(t, newAdminApp(inquiries), http.MethodPatch, "/api/v1/admin/inquiries/"+uuid.NewString(), tt.body, bearer(t, uuid.New()))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			inquiries.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

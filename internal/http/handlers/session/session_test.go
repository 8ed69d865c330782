package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/car-subscription/internal/http/middlewarectx"
	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/reservation"
	"github.com/magabrotheeeer/car-subscription/internal/storage"
)

type SourceMock struct{ mock.Mock }

func (m *SourceMock) Vehicle(ctx context.Context, vehicleID string) (models.VehicleCatalog, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(models.VehicleCatalog), args.Error(1)
}

func (m *SourceMock) Cities(ctx context.Context) ([]models.CityFactor, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CityFactor), args.Error(1)
}

type UploaderMock struct{ mock.Mock }

func (m *UploaderMock) Upload(ctx context.Context, ownerID string, doc models.Document) (string, error) {
	args := m.Called(ctx, ownerID, doc.Name)
	return args.String(0), args.Error(1)
}

type StoreMock struct{ mock.Mock }

func (m *StoreMock) SaveRecord(ctx context.Context, rec models.SubscriptionRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testCatalog() models.VehicleCatalog {
	return models.VehicleCatalog{
		VehicleID: "car-1",
		EngagementTiers: []models.EngagementTier{
			{Months: 12, MonthlyPrice: 300},
			{Months: 24, MonthlyPrice: 250},
		},
		MileageTiers:          []models.MileageTier{{Km: 1000}},
		InsuranceTiers:        []models.InsuranceTier{{Type: "standard", FranchiseAmount: 1500}},
		AdditionalDriverPrice: 20,
	}
}

type fixture struct {
	registry *reservation.Registry
	uploader *UploaderMock
	primary  *StoreMock
}

func newFixture() fixture {
	src := new(SourceMock)
	src.On("Vehicle", mock.Anything, "car-1").Return(testCatalog(), nil)
	src.On("Vehicle", mock.Anything, "missing").
		Return(models.VehicleCatalog{}, fmt.Errorf("repository.Vehicle: %w", storage.ErrNotFound))
	src.On("Cities", mock.Anything).Return([]models.CityFactor{{Name: "Paris", Factor: 1.07}}, nil)

	f := fixture{uploader: new(UploaderMock), primary: new(StoreMock)}
	f.registry = reservation.NewRegistry(src, reservation.Deps{
		Uploader: f.uploader,
		Primary:  f.primary,
		Fallback: new(StoreMock),
		Now:      func() time.Time { return time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC) },
	})
	return f
}

func newRequest(method, target string, body io.Reader, ownerID string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-id")
	if ownerID != "" {
		ctx = middlewarectx.WithOwner(ctx, models.Owner{ID: ownerID, Email: "owner@example.fr"})
	}
	return req.WithContext(ctx)
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	if s, ok := v.(string); ok {
		return bytes.NewBufferString(s)
	}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

type viewResponse struct {
	Status string `json:"status"`
	Data   View   `json:"data"`
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) View {
	t.Helper()
	var resp viewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "OK", resp.Status)
	return resp.Data
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func identityBody() models.Identity {
	return models.Identity{
		ClientType: models.ClientIndividual,
		FirstName:  "Jean",
		LastName:   "Dupont",
		Email:      "jean.dupont@example.fr",
		Phone:      "0612345678",
		Address:    "1 rue de Rivoli",
		City:       "Paris",
		PostalCode: "75001",
	}
}

func multipartBody(t *testing.T, keep []string, names ...string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, id := range keep {
		require.NoError(t, mw.WriteField(KeepField, id))
	}
	for _, name := range names {
		fw, err := mw.CreateFormFile(FilesField, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postDocuments(t *testing.T, f fixture, keep []string, names ...string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, keep, names...)
	req := newRequest(http.MethodPost, "/api/v1/sessions/documents", body, "owner-1")
	req.Header.Set("Content-Type", contentType)
	return serve(NewDocuments(newNoopLogger(), f.registry, 10<<20), req)
}

func startSession(t *testing.T, f fixture) {
	t.Helper()
	rr := serve(NewStart(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions", jsonBody(t, StartRequest{VehicleID: "car-1"}), "owner-1"))
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestStartHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		ownerID        string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "без владельца",
			body:           StartRequest{VehicleID: "car-1"},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:           "невалидный JSON",
			body:           "not a json",
			ownerID:        "owner-1",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "без vehicle_id",
			body:           StartRequest{},
			ownerID:        "owner-1",
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field VehicleID is a required field"}`,
		},
		{
			name:           "неизвестный автомобиль",
			body:           StartRequest{VehicleID: "missing"},
			ownerID:        "owner-1",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"vehicle not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rr := serve(NewStart(newNoopLogger(), f.registry),
				newRequest(http.MethodPost, "/api/v1/sessions", jsonBody(t, tt.body), tt.ownerID))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}

func TestStartHandler_Success(t *testing.T) {
	f := newFixture()
	rr := serve(NewStart(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions", jsonBody(t, StartRequest{VehicleID: "car-1"}), "owner-1"))

	require.Equal(t, http.StatusCreated, rr.Code)
	v := decodeView(t, rr)
	assert.Equal(t, "identity", v.State)
	assert.Equal(t, "car-1", v.Quote.VehicleID)
	assert.Equal(t, 250.0, v.Quote.Price.Total)
	assert.Equal(t, "owner@example.fr", v.Draft.Identity.Email)
	assert.Nil(t, v.Record)
}

func TestViewHandler_NoSession(t *testing.T) {
	f := newFixture()
	rr := serve(NewViewHandler(newNoopLogger(), f.registry),
		newRequest(http.MethodGet, "/api/v1/sessions", nil, "owner-1"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"status":"Error","error":"no active reservation session"}`, rr.Body.String())
}

func TestSelectionHandler_ServeHTTP(t *testing.T) {
	f := newFixture()
	startSession(t, f)

	rr := serve(NewSelection(newNoopLogger(), f.registry), newRequest(http.MethodPatch, "/api/v1/sessions/selection",
		jsonBody(t, `{"engagement_index":0,"drivers":2,"city":"Paris"}`), "owner-1"))

	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, rr)
	// (300 + 2*20) * 1.07 = 363.8
	assert.Equal(t, 364.0, v.Quote.Price.Total)
	assert.Equal(t, 2, v.Quote.Selection.DriversCount)
	assert.Equal(t, "Paris", v.Quote.City.Name)
}

func TestIdentityHandler_ValidationError(t *testing.T) {
	f := newFixture()
	startSession(t, f)

	id := identityBody()
	id.Email = "nope"
	rr := serve(NewIdentity(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions/identity", jsonBody(t, id), "owner-1"))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "email")
}

func TestStepHandlers_OutOfOrder(t *testing.T) {
	f := newFixture()
	startSession(t, f)

	rr := serve(NewContract(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions/contract", jsonBody(t, `{"accepted":true}`), "owner-1"))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(NewBack(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions/back", nil, "owner-1"))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestContractHandler_RequiresField(t *testing.T) {
	f := newFixture()
	startSession(t, f)

	rr := serve(NewContract(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions/contract", jsonBody(t, `{}`), "owner-1"))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"status":"Error","error":"field Accepted is a required field"}`, rr.Body.String())
}

func TestDocumentsHandler_KeepsSelectedDocuments(t *testing.T) {
	f := newFixture()
	startSession(t, f)

	rr := serve(NewIdentity(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions/identity", jsonBody(t, identityBody()), "owner-1"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postDocuments(t, f, nil, "id.pdf", "licence.pdf")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	wf, err := f.registry.Get("owner-1")
	require.NoError(t, err)
	first := wf.Draft().Documents
	require.Len(t, first, 2)

	rr = postDocuments(t, f, []string{first[0].ID, first[1].ID}, "notes.txt")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, "rejected types are not counted")
	require.Len(t, wf.Draft().Rejected, 1)

	rr = postDocuments(t, f, []string{first[0].ID, first[1].ID}, "address.pdf")
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, rr)
	assert.Equal(t, "contract", v.State)
	require.Len(t, v.Draft.Documents, 3)
	assert.Equal(t, first[0].ID, v.Draft.Documents[0].ID)
	assert.Equal(t, first[1].ID, v.Draft.Documents[1].ID)
	assert.Equal(t, "address.pdf", v.Draft.Documents[2].Name)
}

func TestDocumentsHandler_TooLarge(t *testing.T) {
	f := newFixture()
	startSession(t, f)

	body, contentType := multipartBody(t, nil, "big.pdf")
	req := newRequest(http.MethodPost, "/api/v1/sessions/documents", body, "owner-1")
	req.Header.Set("Content-Type", contentType)
	h := NewDocuments(newNoopLogger(), f.registry, 0)
	h.maxBody = 16

	rr := serve(h, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestReservationFlow(t *testing.T) {
	f := newFixture()
	startSession(t, f)

	rr := serve(NewIdentity(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions/identity", jsonBody(t, identityBody()), "owner-1"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postDocuments(t, f, nil, "id.pdf", "licence.pdf", "address.pdf")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(NewContract(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/api/v1/sessions/contract", jsonBody(t, `{"accepted":true}`), "owner-1"))
	require.Equal(t, http.StatusOK, rr.Code)

	for _, name := range []string{"id.pdf", "licence.pdf", "address.pdf"} {
		f.uploader.On("Upload", mock.Anything, "owner-1", name).Return("s3://docs/"+name, nil).Once()
	}
	f.primary.On("SaveRecord", mock.Anything, mock.Anything).Return(nil).Once()

	payment := NewPayment(newNoopLogger(), f.registry, time.Minute)
	rr = serve(payment, newRequest(http.MethodPost, "/api/v1/sessions/payment",
		jsonBody(t, PaymentRequest{CardNumber: "4111111111111111", Expiry: "12/28", CVC: "123"}), "owner-1"))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "4111111111111111")
	v := decodeView(t, rr)
	assert.Equal(t, "submitted", v.State)
	require.NotNil(t, v.Record)
	assert.Equal(t, 250.0, v.Record.Total)
	assert.Equal(t, "1111", v.Record.Card.Last4)
	assert.Equal(t, models.StoragePrimary, v.Record.StoredIn)
	assert.Len(t, v.Record.Documents, 3)

	rr = serve(payment, newRequest(http.MethodPost, "/api/v1/sessions/payment",
		jsonBody(t, PaymentRequest{CardNumber: "4111111111111111", Expiry: "12/28", CVC: "123"}), "owner-1"))
	assert.Equal(t, http.StatusConflict, rr.Code)

	f.uploader.AssertExpectations(t)
	f.primary.AssertExpectations(t)
}

func TestPaymentHandler_UploadFailure(t *testing.T) {
	f := newFixture()
	startSession(t, f)
	require.Equal(t, http.StatusOK, serve(NewIdentity(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/", jsonBody(t, identityBody()), "owner-1")).Code)
	require.Equal(t, http.StatusOK, postDocuments(t, f, nil, "a.pdf", "b.pdf", "c.pdf").Code)
	require.Equal(t, http.StatusOK, serve(NewContract(newNoopLogger(), f.registry),
		newRequest(http.MethodPost, "/", jsonBody(t, `{"accepted":true}`), "owner-1")).Code)

	f.uploader.On("Upload", mock.Anything, "owner-1", mock.Anything).Return("", fmt.Errorf("s3 timeout"))

	rr := serve(NewPayment(newNoopLogger(), f.registry, time.Minute), newRequest(http.MethodPost, "/",
		jsonBody(t, PaymentRequest{CardNumber: "4111111111111111", Expiry: "12/28", CVC: "123"}), "owner-1"))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	wf, err := f.registry.Get("owner-1")
	require.NoError(t, err)
	assert.Equal(t, reservation.StatePayment, wf.State())
	f.primary.AssertNotCalled(t, "SaveRecord", mock.Anything, mock.Anything)
}

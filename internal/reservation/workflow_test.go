package reservation

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/selection"
)

var testNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

func testCatalog() models.VehicleCatalog {
	return models.VehicleCatalog{
		VehicleID: "car-1",
		EngagementTiers: []models.EngagementTier{
			{Months: 12, MonthlyPrice: 300},
			{Months: 24, MonthlyPrice: 250},
		},
		MileageTiers: []models.MileageTier{
			{Km: 1000},
			{Km: 1500, AdditionalPrice: 50},
		},
		InsuranceTiers: []models.InsuranceTier{
			{Type: "standard", FranchiseAmount: 1500},
			{Type: "premium", FranchiseAmount: 500, AdditionalPrice: 80},
		},
		AdditionalDriverPrice: 20,
	}
}

func testCities() []models.CityFactor {
	return []models.CityFactor{{Name: "Paris", Factor: 1.07}, {Name: "Lyon", Factor: 1.03}}
}

func validIdentity(t models.ClientType) models.Identity {
	id := models.Identity{
		ClientType: t,
		FirstName:  "Jean",
		LastName:   "Dupont",
		Email:      "jean.dupont@example.fr",
		Phone:      "06 12 34 56 78",
		Address:    "1 rue de Rivoli",
		City:       "Paris",
		PostalCode: "75001",
	}
	if t == models.ClientCompany {
		id.CompanyName = "Dupont SARL"
	}
	return id
}

func docs(n int) []models.Document {
	out := make([]models.Document, n)
	for i := range out {
		out[i] = models.Document{
			ID:          fmt.Sprintf("doc-%d", i),
			Name:        fmt.Sprintf("doc-%d.pdf", i),
			ContentType: "application/pdf",
			Size:        1024,
			Content:     []byte("%PDF"),
		}
	}
	return out
}

func validCard() models.Card {
	return models.Card{Number: "4111 1111 1111 1111", Expiry: "12/28", CVC: "123", Holder: "Jean Dupont"}
}

func testDeps(up Uploader, primary, fallback RecordStore) Deps {
	var seq atomic.Int64
	return Deps{
		Uploader: up,
		Primary:  primary,
		Fallback: fallback,
		Now:      func() time.Time { return testNow },
		NewID:    func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	}
}

func newTestWorkflow(deps Deps) *Workflow {
	return New(models.Owner{ID: "owner-1", Email: "owner@example.fr"}, testCatalog(), testCities(), deps)
}

// toPayment проводит бронирование до шага оплаты.
func toPayment(t *testing.T, w *Workflow, clientType models.ClientType, n int) {
	t.Helper()
	require.NoError(t, w.SubmitIdentity(validIdentity(clientType)))
	require.NoError(t, w.SubmitDocuments(docs(n)))
	require.NoError(t, w.AcceptContract(true))
	require.Equal(t, StatePayment, w.State())
}

func TestWorkflow_New_PrefillsEmail(t *testing.T) {
	w := newTestWorkflow(Deps{})
	assert.Equal(t, StateIdentity, w.State())
	assert.Equal(t, "owner@example.fr", w.Draft().Identity.Email)
}

func TestWorkflow_SubmitIdentity(t *testing.T) {
	tests := []struct {
		name       string
		identity   func() models.Identity
		wantFields []string
	}{
		{
			name:     "частный клиент",
			identity: func() models.Identity { return validIdentity(models.ClientIndividual) },
		},
		{
			name:     "компания",
			identity: func() models.Identity { return validIdentity(models.ClientCompany) },
		},
		{
			name: "компания без названия",
			identity: func() models.Identity {
				id := validIdentity(models.ClientCompany)
				id.CompanyName = " "
				return id
			},
			wantFields: []string{"company_name"},
		},
		{
			name: "некорректные email, телефон и индекс",
			identity: func() models.Identity {
				id := validIdentity(models.ClientIndividual)
				id.Email = "nope"
				id.Phone = "123"
				id.PostalCode = "7500"
				return id
			},
			wantFields: []string{"email", "phone", "postal_code"},
		},
		{
			name:       "пустая форма",
			identity:   func() models.Identity { return models.Identity{} },
			wantFields: []string{"client_type", "first_name", "last_name", "email", "phone", "address", "city", "postal_code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorkflow(Deps{})
			err := w.SubmitIdentity(tt.identity())
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				assert.Equal(t, StateDocuments, w.State())
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.Fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Equal(t, StateIdentity, w.State())
			assert.Equal(t, tt.identity(), w.Draft().Identity, "data is kept after a failed gate")
		})
	}
}

func TestWorkflow_SubmitDocuments_RequiredCount(t *testing.T) {
	tests := []struct {
		name       string
		clientType models.ClientType
		count      int
		wantOK     bool
	}{
		{name: "частный клиент, 2 документа", clientType: models.ClientIndividual, count: 2},
		{name: "частный клиент, 3 документа", clientType: models.ClientIndividual, count: 3, wantOK: true},
		{name: "компания, 4 документа", clientType: models.ClientCompany, count: 4},
		{name: "компания, 5 документов", clientType: models.ClientCompany, count: 5, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorkflow(Deps{})
			require.NoError(t, w.SubmitIdentity(validIdentity(tt.clientType)))

			err := w.SubmitDocuments(docs(tt.count))
			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, StateContract, w.State())
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "documents")
			assert.Equal(t, StateDocuments, w.State())
		})
	}
}

func TestWorkflow_SubmitDocuments_RejectedTypesNotCounted(t *testing.T) {
	w := newTestWorkflow(Deps{})
	require.NoError(t, w.SubmitIdentity(validIdentity(models.ClientIndividual)))

	in := append(docs(2), models.Document{Name: "notes.docx", ContentType: "application/msword", Size: 10})
	err := w.SubmitDocuments(in)
	require.Error(t, err)

	d := w.Draft()
	assert.Len(t, d.Documents, 2)
	require.Len(t, d.Rejected, 1)
	assert.Equal(t, "notes.docx", d.Rejected[0].Name)
	assert.NotEmpty(t, d.Rejected[0].ID)
}

func TestWorkflow_SubmitDocuments_SizeLimit(t *testing.T) {
	deps := Deps{Rules: Rules{MinDocuments: 1, MinCompanyDocuments: 1, MaxTotalSize: 1500}}
	w := newTestWorkflow(deps)
	require.NoError(t, w.SubmitIdentity(validIdentity(models.ClientIndividual)))

	err := w.SubmitDocuments(docs(2))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "documents_size")
}

func TestWorkflow_AcceptContract(t *testing.T) {
	w := newTestWorkflow(Deps{})
	require.NoError(t, w.SubmitIdentity(validIdentity(models.ClientIndividual)))
	require.NoError(t, w.SubmitDocuments(docs(3)))

	var verr *ValidationError
	require.ErrorAs(t, w.AcceptContract(false), &verr)
	assert.Equal(t, StateContract, w.State())

	require.NoError(t, w.AcceptContract(true))
	assert.Equal(t, StatePayment, w.State())
	assert.True(t, w.Draft().ContractAccepted)
}

func TestWorkflow_OutOfOrderTransitions(t *testing.T) {
	w := newTestWorkflow(Deps{})

	assert.ErrorIs(t, w.SubmitDocuments(docs(3)), ErrInvalidTransition)
	assert.ErrorIs(t, w.AcceptContract(true), ErrInvalidTransition)
	_, err := w.Submit(context.Background(), validCard())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = w.Back()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateIdentity, w.State())
}

func TestWorkflow_BackKeepsData(t *testing.T) {
	w := newTestWorkflow(Deps{})
	toPayment(t, w, models.ClientIndividual, 3)

	st, err := w.Back()
	require.NoError(t, err)
	assert.Equal(t, StateContract, st)
	st, err = w.Back()
	require.NoError(t, err)
	assert.Equal(t, StateDocuments, st)
	st, err = w.Back()
	require.NoError(t, err)
	assert.Equal(t, StateIdentity, st)

	d := w.Draft()
	assert.Equal(t, validIdentity(models.ClientIndividual), d.Identity)
	assert.Len(t, d.Documents, 3)
	assert.True(t, d.ContractAccepted)
}

func TestWorkflow_UpdateSelection(t *testing.T) {
	w := newTestWorkflow(Deps{})

	q := w.Quote()
	assert.Equal(t, 250.0, q.Price.Total, "cheapest engagement by default")
	assert.Equal(t, 1, q.DisplayEngagementIndex)

	q, err := w.UpdateSelection(func(m *selection.Manager) {
		m.SetIndex(models.TierEngagement, 0)
		m.SetIndex(models.TierMileage, 1)
		m.SetDrivers(1)
		m.SetCity("Paris")
	})
	require.NoError(t, err)
	// (300 + 50 + 20) * 1.07 = 395.9
	assert.Equal(t, 396.0, q.Price.Total)
	assert.Equal(t, 0, q.DisplayEngagementIndex)
	require.NotNil(t, q.Options.Mileage)
	assert.Equal(t, 1500, q.Options.Mileage.Km)
	assert.Equal(t, models.CityFactor{Name: "Paris", Factor: 1.07}, q.City)
}

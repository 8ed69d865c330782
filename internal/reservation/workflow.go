// Package reservation реализует пошаговое бронирование подписки:
// личные данные, документы, договор, оплата и отправка.
//
// Workflow — линейная машина состояний с проверкой на каждом переходе.
// Назад можно вернуться всегда, данные при этом не стираются.
// Отправка выполняет загрузку документов, расчёт итоговой цены
// и сохранение записи подписки с резервным хранилищем.
package reservation

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/pricing"
	"github.com/magabrotheeeer/car-subscription/internal/selection"
)

// State — шаг бронирования.
type State int

const (
	StateIdentity State = iota
	StateDocuments
	StateContract
	StatePayment
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdentity:
		return "identity"
	case StateDocuments:
		return "documents"
	case StateContract:
		return "contract"
	case StatePayment:
		return "payment"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Uploader загружает документ во внешнее хранилище и возвращает его адрес.
type Uploader interface {
	Upload(ctx context.Context, ownerID string, doc models.Document) (string, error)
}

// RecordStore сохраняет запись подписки.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec models.SubscriptionRecord) error
}

// Publisher уведомляет о новой подписке. Ошибка публикации не влияет на отправку.
type Publisher interface {
	PublishSubmitted(ctx context.Context, rec models.SubscriptionRecord) error
}

// DefaultSessionTTL — время простоя сессии по умолчанию.
const DefaultSessionTTL = 24 * time.Hour

// Deps — внешние зависимости бронирования.
type Deps struct {
	Uploader  Uploader
	Primary   RecordStore
	Fallback  RecordStore
	Publisher Publisher // может быть nil
	Rules     Rules

	// SessionTTL — время простоя, после которого реестр удаляет сессию.
	SessionTTL time.Duration
	Now        func() time.Time
	NewID      func() string
	Log        *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Rules == (Rules{}) {
		d.Rules = DefaultRules()
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = DefaultSessionTTL
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	return d
}

// Quote — текущий выбор пользователя и рассчитанная по нему цена.
type Quote struct {
	VehicleID              string                 `json:"vehicle_id"`
	Selection              models.Selection       `json:"selection"`
	DisplayEngagementIndex int                    `json:"display_engagement_index"`
	Options                models.ResolvedOptions `json:"options"`
	City                   models.CityFactor      `json:"city"`
	Price                  models.PriceBreakdown  `json:"price"`
}

// Workflow принадлежит одной сессии пользователя.
type Workflow struct {
	deps  Deps
	owner models.Owner

	mu     sync.Mutex
	sel    *selection.Manager
	cities []models.CityFactor
	state  State
	draft  models.Draft
	record *models.SubscriptionRecord
	// retired выставляется, когда реестр заменил или вытеснил сессию.
	retired bool

	inflight atomic.Bool
}

// New создаёт бронирование для каталога автомобиля. Email владельца
// подставляется в черновик как значение по умолчанию.
func New(owner models.Owner, catalog models.VehicleCatalog, cities []models.CityFactor, deps Deps) *Workflow {
	w := &Workflow{
		deps:   deps.withDefaults(),
		owner:  owner,
		sel:    selection.New(catalog),
		cities: cities,
		state:  StateIdentity,
	}
	w.draft.Identity.Email = owner.Email
	return w
}

func (w *Workflow) Owner() models.Owner {
	return w.owner
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft возвращает копию черновика без платёжных данных.
func (w *Workflow) Draft() models.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := w.draft
	d.Documents = append([]models.Document(nil), w.draft.Documents...)
	d.Rejected = append([]models.Document(nil), w.draft.Rejected...)
	d.Card = models.Card{}
	return d
}

// Record возвращает сохранённую запись после успешной отправки.
func (w *Workflow) Record() (models.SubscriptionRecord, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.record == nil {
		return models.SubscriptionRecord{}, false
	}
	return *w.record, true
}

// Quote рассчитывает цену по текущему выбору.
func (w *Workflow) Quote() Quote {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quoteLocked()
}

func (w *Workflow) quoteLocked() Quote {
	catalog := w.sel.Catalog()
	sel := w.sel.Selection()
	city := pricing.ResolveCity(w.cities, sel.CityName)
	return Quote{
		VehicleID:              catalog.VehicleID,
		Selection:              sel,
		DisplayEngagementIndex: w.sel.DisplayEngagementIndex(),
		Options:                pricing.Resolve(catalog, sel),
		City:                   city,
		Price:                  pricing.Compute(catalog, sel, city),
	}
}

// UpdateSelection применяет изменения выбора и возвращает новую цену.
// После отправки выбор больше не меняется.
func (w *Workflow) UpdateSelection(fn func(m *selection.Manager)) (Quote, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitted || w.inflight.Load() {
		return Quote{}, ErrInvalidTransition
	}
	fn(w.sel)
	return w.quoteLocked(), nil
}

// SubmitIdentity: Identity → Documents.
func (w *Workflow) SubmitIdentity(id models.Identity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdentity {
		return ErrInvalidTransition
	}
	w.draft.Identity = id
	if err := ValidateIdentity(id); err != nil {
		return err
	}
	w.state = StateDocuments
	return nil
}

// SubmitDocuments: Documents → Contract. Документы недопустимых типов
// не учитываются в минимальном количестве и сохраняются в Rejected.
// Адреса уже загруженных документов с теми же ID сохраняются.
func (w *Workflow) SubmitDocuments(docs []models.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateDocuments {
		return ErrInvalidTransition
	}

	uploaded := make(map[string]string, len(w.draft.Documents))
	for _, d := range w.draft.Documents {
		if d.URL != "" {
			uploaded[d.ID] = d.URL
		}
	}
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = w.deps.NewID()
		}
		if url, ok := uploaded[docs[i].ID]; ok && docs[i].URL == "" {
			docs[i].URL = url
		}
	}

	accepted, rejected := SplitDocuments(docs)
	w.draft.Documents = accepted
	w.draft.Rejected = rejected
	if err := ValidateDocuments(accepted, w.draft.Identity.ClientType, w.deps.Rules); err != nil {
		return err
	}
	w.state = StateContract
	return nil
}

// AcceptContract: Contract → Payment, только при явном согласии.
func (w *Workflow) AcceptContract(accepted bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateContract {
		return ErrInvalidTransition
	}
	w.draft.ContractAccepted = accepted
	if !accepted {
		return &ValidationError{Fields: map[string]string{"contract": "contract must be accepted"}}
	}
	w.state = StatePayment
	return nil
}

// Back возвращает на предыдущий шаг без потери данных.
func (w *Workflow) Back() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inflight.Load() {
		return w.state, ErrSubmissionInProgress
	}
	switch w.state {
	case StateDocuments, StateContract, StatePayment:
		w.state--
		return w.state, nil
	default:
		return w.state, ErrInvalidTransition
	}
}

package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/metrics"
	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/pricing"
)

// snapshot — состояние сессии, зафиксированное в начале отправки.
type snapshot struct {
	owner     models.Owner
	catalog   models.VehicleCatalog
	selection models.Selection
	city      models.CityFactor
	identity  models.Identity
	documents []models.Document
	card      models.Card
}

// Submit: Payment → Submitted. Проверяет карту, загружает документы,
// строит запись и сохраняет её. При любой ошибке шаг остаётся Payment.
// Повторный вызов во время выполнения возвращает ErrSubmissionInProgress.
func (w *Workflow) Submit(ctx context.Context, card models.Card) (models.SubscriptionRecord, error) {
	const op = "reservation.Submit"
	log := w.deps.Log.With(slog.String("op", op), slog.String("owner_id", w.owner.ID))

	if !w.inflight.CompareAndSwap(false, true) {
		return models.SubscriptionRecord{}, ErrSubmissionInProgress
	}
	defer w.inflight.Store(false)

	snap, err := w.begin(card)
	if err != nil {
		return models.SubscriptionRecord{}, err
	}

	price, options := computePrice(snap)

	docs, err := uploadDocuments(ctx, w.deps.Uploader, snap.owner.ID, snap.documents)
	w.rememberUploads(docs)
	if err != nil {
		log.Error("failed to upload documents", sl.Err(err))
		metrics.SubmissionsTotal.WithLabelValues("upload_failed").Inc()
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	rec := buildRecord(snap, docs, price, options, w.deps.NewID(), w.deps.Now())

	rec, err = persist(ctx, w.deps.Primary, w.deps.Fallback, rec, log)
	if err != nil {
		log.Error("failed to persist subscription record", sl.Err(err))
		metrics.SubmissionsTotal.WithLabelValues("persist_failed").Inc()
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	w.mu.Lock()
	w.record = &rec
	w.state = StateSubmitted
	w.draft.Card = models.Card{}
	w.mu.Unlock()

	metrics.SubmissionsTotal.WithLabelValues("success").Inc()
	log.Info("reservation submitted",
		slog.String("reservation_id", rec.ReservationID),
		slog.String("stored_in", string(rec.StoredIn)),
		slog.Float64("total", rec.Total),
	)

	if w.deps.Publisher != nil {
		if err := w.deps.Publisher.PublishSubmitted(ctx, rec); err != nil {
			log.Warn("failed to publish submission event", sl.Err(err))
		}
	}
	return rec, nil
}

// begin проверяет шаг и карту и фиксирует снимок состояния.
func (w *Workflow) begin(card models.Card) (snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.retired {
		return snapshot{}, ErrSessionNotFound
	}
	if w.state != StatePayment {
		return snapshot{}, ErrInvalidTransition
	}
	w.draft.Card = card
	if err := ValidateCard(card, w.deps.Now()); err != nil {
		return snapshot{}, err
	}

	sel := w.sel.Selection()
	return snapshot{
		owner:     w.owner,
		catalog:   w.sel.Catalog(),
		selection: sel,
		city:      pricing.ResolveCity(w.cities, sel.CityName),
		identity:  w.draft.Identity,
		documents: append([]models.Document(nil), w.draft.Documents...),
		card:      card,
	}, nil
}

// rememberUploads переносит адреса загруженных файлов в черновик,
// чтобы повторная отправка не загружала их ещё раз. Содержимое
// загруженного файла больше не нужно и освобождается.
func (w *Workflow) rememberUploads(docs []models.Document) {
	urls := make(map[string]string, len(docs))
	for _, d := range docs {
		if d.URL != "" {
			urls[d.ID] = d.URL
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.draft.Documents {
		if url, ok := urls[w.draft.Documents[i].ID]; ok {
			w.draft.Documents[i].URL = url
			w.draft.Documents[i].Content = nil
		}
	}
}

func computePrice(s snapshot) (models.PriceBreakdown, models.ResolvedOptions) {
	return pricing.Compute(s.catalog, s.selection, s.city), pricing.Resolve(s.catalog, s.selection)
}

// uploadDocuments загружает документы параллельно. Уже загруженные документы
// пропускаются. Ошибка любой загрузки прерывает отправку целиком;
// возвращаемый срез содержит адреса всех успешных загрузок.
func uploadDocuments(ctx context.Context, up Uploader, ownerID string, docs []models.Document) ([]models.Document, error) {
	out := append([]models.Document(nil), docs...)

	g, gctx := errgroup.WithContext(ctx)
	for i := range out {
		if out[i].URL != "" {
			continue
		}
		g.Go(func() error {
			url, err := up.Upload(gctx, ownerID, out[i])
			if err != nil {
				metrics.DocumentUploadsTotal.WithLabelValues("error").Inc()
				return fmt.Errorf("%w: %s: %w", ErrUploadFailed, out[i].Name, err)
			}
			metrics.DocumentUploadsTotal.WithLabelValues("ok").Inc()
			out[i].URL = url
			return nil
		})
	}
	err := g.Wait()
	return out, err
}

func buildRecord(s snapshot, docs []models.Document, price models.PriceBreakdown,
	options models.ResolvedOptions, id string, now time.Time) models.SubscriptionRecord {
	refs := make([]string, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, d.URL)
	}
	return models.SubscriptionRecord{
		ReservationID: id,
		OwnerID:       s.owner.ID,
		VehicleID:     s.catalog.VehicleID,
		Options:       options,
		DriversCount:  s.selection.DriversCount,
		City:          s.city,
		Price:         price,
		Total:         price.Total,
		StartedAt:     now.UTC(),
		Documents:     refs,
		Card:          MaskCard(s.card),
		Client:        s.identity,
		Status:        models.RecordPending,
	}
}

// persist пишет запись в основное хранилище, при ошибке — в резервное.
// Ошибка возвращается, только если не удались обе записи.
func persist(ctx context.Context, primary, fallback RecordStore, rec models.SubscriptionRecord, log *slog.Logger) (models.SubscriptionRecord, error) {
	rec.StoredIn = models.StoragePrimary
	primaryErr := primary.SaveRecord(ctx, rec)
	if primaryErr == nil {
		return rec, nil
	}
	log.Warn("primary store failed, writing to fallback", sl.Err(primaryErr))

	if fallback == nil {
		return models.SubscriptionRecord{}, errors.Join(ErrPersistenceFailed, primaryErr)
	}
	rec.StoredIn = models.StorageFallback
	if err := fallback.SaveRecord(ctx, rec); err != nil {
		return models.SubscriptionRecord{}, errors.Join(ErrPersistenceFailed, primaryErr, err)
	}
	metrics.FallbackWritesTotal.Inc()
	return rec, nil
}

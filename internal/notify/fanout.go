package notify

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// Publisher публикует событие о сохранённой подписке.
type Publisher interface {
	PublishSubmitted(ctx context.Context, rec models.SubscriptionRecord) error
}

// Fanout публикует событие во все каналы. Ошибка одного канала
// не мешает остальным, ошибки объединяются.
type Fanout []Publisher

// PublishSubmitted публикует rec во все каналы по очереди.
func (f Fanout) PublishSubmitted(ctx context.Context, rec models.SubscriptionRecord) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishSubmitted(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

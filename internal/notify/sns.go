// Package notify рассылает события о сохранённых подписках во внешние каналы.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/magabrotheeeer/car-subscription/internal/config"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// SNSAPI — часть клиента SNS, нужная для публикации.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher публикует models.SubmittedEvent в топик SNS.
type SNSPublisher struct {
	client   SNSAPI
	topicARN string
}

// NewSNSPublisher создаёт издателя поверх готового клиента.
func NewSNSPublisher(client SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

// NewSNSFromConfig создаёт клиента SNS из стандартной цепочки учётных данных AWS.
func NewSNSFromConfig(ctx context.Context, cfg config.SNS) (*SNSPublisher, error) {
	const op = "notify.NewSNSFromConfig"

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SNSRegion))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewSNSPublisher(sns.NewFromConfig(awsCfg), cfg.TopicARN), nil
}

// PublishSubmitted отправляет событие с атрибутом event_type для фильтрации подписок.
func (p *SNSPublisher) PublishSubmitted(ctx context.Context, rec models.SubscriptionRecord) error {
	const op = "notify.PublishSubmitted"

	body, err := json.Marshal(models.NewSubmittedEvent(rec))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String("reservation submitted"),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String("reservation.submitted"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

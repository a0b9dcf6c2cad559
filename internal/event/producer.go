// Package event publishes campaign lifecycle events to Kafka.
package event

import (
	"context"
	"log/slog"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/domain"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/kafka"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/logger"
)

const (
	// TopicCampaigns carries campaign lifecycle and redemption events.
	TopicCampaigns = "campaigns"

	sourceName    = "campaign-service"
	aggregateType = "campaign"
)

// Publisher is the subset of the Kafka producer the event layer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Producer publishes campaign domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a campaign event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

type campaignPayload struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Type              string  `json:"type"`
	Code              string  `json:"code,omitempty"`
	DiscountPercent   float64 `json:"discountPercent"`
	DiscountAmount    int64   `json:"discountAmount"`
	MinPurchaseAmount int64   `json:"minPurchaseAmount"`
	IsActive          bool    `json:"isActive"`
}

type codeRedeemedPayload struct {
	CampaignID         string `json:"campaignId"`
	Code               string `json:"code"`
	CartTotal          int64  `json:"cartTotal"`
	CalculatedDiscount int64  `json:"calculatedDiscount"`
}

// PublishCampaignCreated emits a campaign.created event.
func (p *Producer) PublishCampaignCreated(ctx context.Context, c *domain.Campaign) error {
	return p.publish(ctx, "campaign.created", c.ID, campaignToPayload(c))
}

// PublishCampaignUpdated emits a campaign.updated event.
func (p *Producer) PublishCampaignUpdated(ctx context.Context, c *domain.Campaign) error {
	return p.publish(ctx, "campaign.updated", c.ID, campaignToPayload(c))
}

// PublishCampaignDeleted emits a campaign.deleted event.
func (p *Producer) PublishCampaignDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, "campaign.deleted", id, map[string]string{"id": id})
}

// PublishCodeRedeemed emits a campaign.code_redeemed event after a
// successful code validation.
func (p *Producer) PublishCodeRedeemed(ctx context.Context, c *domain.Campaign, cartTotal, discount int64) error {
	return p.publish(ctx, "campaign.code_redeemed", c.ID, codeRedeemedPayload{
		CampaignID:         c.ID,
		Code:               c.Code,
		CartTotal:          cartTotal,
		CalculatedDiscount: discount,
	})
}

func (p *Producer) publish(ctx context.Context, eventType, aggregateID string, payload any) error {
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, sourceName, payload)
	if err != nil {
		return err
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		evt.WithCorrelationID(correlationID)
	}

	return p.publisher.Publish(ctx, TopicCampaigns, evt)
}

func campaignToPayload(c *domain.Campaign) campaignPayload {
	return campaignPayload{
		ID:                c.ID,
		Title:             c.Title,
		Type:              string(c.Type),
		Code:              c.Code,
		DiscountPercent:   c.DiscountPercent,
		DiscountAmount:    c.DiscountAmount,
		MinPurchaseAmount: c.MinPurchaseAmount,
		IsActive:          c.IsActive,
	}
}

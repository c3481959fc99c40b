package config

import (
	"fmt"
	"time"
)

// LINE Messaging API limits.
// https://developers.line.biz/en/reference/messaging-api/#buttons
const (
	LINEMaxMessagesPerReply = 5
	LINEMaxCarouselColumns  = 10
)

// BotConfig holds webhook and reply tuning.
type BotConfig struct {
	WebhookTimeout      time.Duration // Timeout for processing one webhook event
	MaxMessagesPerReply int           // LINE API limit: 5
	MaxEventsPerWebhook int           // Events beyond this are dropped
	MaxCarouselColumns  int           // LINE API limit: 10
	MinRating           float64       // Restaurants must score strictly above this
	MenuLookupWorkers   int           // Concurrent image searches per carousel
}

// Validate checks if the configuration is valid.
func (c *BotConfig) Validate() error {
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("webhook timeout must be positive, got %v", c.WebhookTimeout)
	}
	if c.MaxMessagesPerReply < 1 || c.MaxMessagesPerReply > LINEMaxMessagesPerReply {
		return fmt.Errorf("max messages per reply must be 1-%d (LINE API limit), got %d", LINEMaxMessagesPerReply, c.MaxMessagesPerReply)
	}
	if c.MaxEventsPerWebhook < 1 {
		return fmt.Errorf("max events per webhook must be positive, got %d", c.MaxEventsPerWebhook)
	}
	if c.MaxCarouselColumns < 1 || c.MaxCarouselColumns > LINEMaxCarouselColumns {
		return fmt.Errorf("max carousel columns must be 1-%d (LINE API limit), got %d", LINEMaxCarouselColumns, c.MaxCarouselColumns)
	}
	if c.MinRating < 0 || c.MinRating >= 5 {
		return fmt.Errorf("min rating must be in [0, 5), got %v", c.MinRating)
	}
	if c.MenuLookupWorkers < 1 {
		return fmt.Errorf("menu lookup workers must be positive, got %d", c.MenuLookupWorkers)
	}
	return nil
}

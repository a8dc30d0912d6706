// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/hearth/internal/broadcast"
	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/models"
)

// ChannelDispatcher delivers a job over one channel.
type ChannelDispatcher interface {
	Channel() models.Channel
	Dispatch(ctx context.Context, job *models.NotificationJob) error
}

// AppChannel publishes the realtime payload to each target user's fanout
// channel and, when the job names a family, to the family channel.
type AppChannel struct {
	pub Publisher
	now func() time.Time
}

// NewAppChannel creates the in-app channel dispatcher.
func NewAppChannel(pub Publisher) *AppChannel {
	return &AppChannel{pub: pub, now: time.Now}
}

// Channel implements ChannelDispatcher.
func (a *AppChannel) Channel() models.Channel {
	return models.ChannelApp
}

// Dispatch publishes to every target; it fails if any publish fails.
func (a *AppChannel) Dispatch(ctx context.Context, job *models.NotificationJob) error {
	payload := models.NewRealtimeNotification(job, a.now().UTC())

	channels := make([]string, 0, len(job.Data.Recipients)+2)
	for _, userID := range job.Data.Targets() {
		channels = append(channels, broadcast.UserChannel(userID))
	}
	if job.Data.FamilyID != "" {
		channels = append(channels, broadcast.FamilyChannel(job.Data.FamilyID))
	}

	var errs []error
	for _, ch := range channels {
		if err := a.pub.Publish(ctx, ch, payload); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", ch, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.Ctx(ctx).Debug().
		Strs("channels", channels).
		Msg("App notification published")
	return nil
}

// EmailChannel records the email that would be sent. There is no mail transport.
type EmailChannel struct{}

// NewEmailChannel creates the email channel dispatcher.
func NewEmailChannel() *EmailChannel {
	return &EmailChannel{}
}

// Channel implements ChannelDispatcher.
func (e *EmailChannel) Channel() models.Channel {
	return models.ChannelEmail
}

// Dispatch logs the email for each target user.
func (e *EmailChannel) Dispatch(ctx context.Context, job *models.NotificationJob) error {
	subject := job.Data.TaskTitle
	if subject == "" {
		subject = models.DefaultTitle
	}
	for _, userID := range job.Data.Targets() {
		logging.Ctx(ctx).Info().
			Str("user_id", userID).
			Str("type", string(job.Type)).
			Str("subject", subject).
			Msg("Email notification sent")
	}
	return nil
}

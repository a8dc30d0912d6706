// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/hearth/internal/dispatcher"
	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/validation"
)

// SubmitNotification handles POST /notify/queue.
//
// The body must carry type, channels and data. The job id and creation time
// are always assigned here, whatever the producer sent. The job is enqueued
// durably and published for immediate execution; only a failed enqueue
// fails the request.
//
// Responses:
//   - 200 {success:true, id, priority}
//   - 400 VALIDATION_ERROR
//   - 503 SERVICE_UNAVAILABLE when the queue could not be written
func (h *Handler) SubmitNotification(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return
	}

	job, err := h.deps.Dispatcher.Submit(r.Context(), &req)
	switch {
	case errors.Is(err, dispatcher.ErrInvalidJob):
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	case err != nil:
		respondError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "Failed to queue notification", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("job_id", job.ID).
		Str("type", string(job.Type)).
		Str("priority", string(job.Priority)).
		Msg("Notification queued")

	respondJSON(w, http.StatusOK, &models.SubmitResponse{
		Success:  true,
		ID:       job.ID,
		Priority: job.Priority,
	})
}

// QueueStats handles GET /queue/stats.
//
// queues.notifications is the depth of the bucket the worker drains;
// queues.total sums every bucket. byPriority and dead expose the rest.
func (h *Handler) QueueStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerPriority := h.workerPriority()

	stats := models.QueueStats{
		WorkerPriority: workerPriority,
		ByPriority:     make(map[models.Priority]int64, len(models.AllPriorities)),
	}
	if h.deps.Worker != nil {
		stats.IsProcessing = h.deps.Worker.IsProcessing()
	}

	for _, p := range models.AllPriorities {
		n, err := h.deps.Queue.Length(ctx, h.queueName, p)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		stats.ByPriority[p] = n
		stats.Queues.Total += n
		if p == workerPriority {
			stats.Queues.Notifications = n
		}
	}

	dead, err := h.deps.Queue.DeadLength(ctx, h.queueName)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	stats.Dead = dead

	respondJSON(w, http.StatusOK, &stats)
}

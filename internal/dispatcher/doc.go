// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

/*
Package dispatcher accepts notification submissions and executes them.

Submit writes every job twice: onto the durable queue list
queue:{name}:{priority} and onto the notification:new pub/sub channel. Two
independent triggers then reach Execute:

  - Worker: a supervised loop that pops at most one envelope per tick from
    the bucket it was configured for. Jobs scheduled in the future go back on
    the list. Failures are retried up to the envelope's maxAttempts and then
    moved to queue:{name}:dead.
  - HandleNewNotification: the pub/sub callback, which executes immediately
    and never retries. Attach runs it off the router's receive loop, at most
    FastPathLimit jobs at a time.

Execute is guarded by Guard, an in-process seen-set in front of a store
marker notification:seen:{id} written with SET NX EX, so the second trigger
for the same job is a counted no-op (ErrDuplicate). A scheduled job keeps its
marker until the guard ttl has passed after scheduledFor.

Execution persists the record through the ephemeral store, then runs each
requested channel that the user's settings allow:

  - app: publishes the realtime payload to user:{id}:notifications for each
    distinct target and to family:{familyId}:notifications
  - email: logs the message that would be sent

A channel error or panic is logged and does not stop the other channels.
Execute only fails, and releases its claim, when persisting failed and no
channel succeeded.
*/
package dispatcher

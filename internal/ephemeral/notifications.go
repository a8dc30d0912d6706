// Hearth - Household Notification Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hearth

package ephemeral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/hearth/internal/logging"
	"github.com/tomtom215/hearth/internal/models"
	"github.com/tomtom215/hearth/internal/store"
)

// ErrExpired is returned when a record would be stored with no lifetime left.
var ErrExpired = errors.New("notification already expired")

// maxPruneRounds bounds how often one listing refetches after dropping expired ids.
const maxPruneRounds = 3

// SaveNotification stores rec for ttl and indexes it under its owner.
// The index keys live at least as long as the record.
func (s *Store) SaveNotification(ctx context.Context, rec *models.NotificationRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrExpired
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", rec.NotificationID, err)
	}

	indexKey := UserIndexKey(rec.UserID)
	unreadKey := UserUnreadKey(rec.UserID)

	_, err = s.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, NotificationKey(rec.NotificationID), payload, ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(rec.CreatedAt.UnixMilli()),
			Member: rec.NotificationID,
		})
		if !rec.Read {
			pipe.SAdd(ctx, unreadKey, rec.NotificationID)
		}
		return nil
	})
	if err != nil {
		return store.Unavailable("save notification "+rec.NotificationID, err)
	}

	for _, key := range []string{indexKey, unreadKey} {
		if err := s.extendTTL(ctx, key, ttl); err != nil {
			return err
		}
	}
	return nil
}

// extendTTL raises the expiry of key to at least ttl. Keys without expiry get one.
func (s *Store) extendTTL(ctx context.Context, key string, ttl time.Duration) error {
	current, err := s.cmd.PTTL(ctx, key).Result()
	if err != nil {
		return store.Unavailable("pttl "+key, err)
	}
	// -2: key missing (unread set with nothing unread), nothing to extend.
	if current == -2 {
		return nil
	}
	if current < ttl {
		if err := s.cmd.PExpire(ctx, key, ttl).Err(); err != nil {
			return store.Unavailable("pexpire "+key, err)
		}
	}
	return nil
}

// GetNotification returns the record for id, or nil when it is missing or expired.
func (s *Store) GetNotification(ctx context.Context, id string) (*models.NotificationRecord, error) {
	var rec models.NotificationRecord
	ok, err := s.Get(ctx, NotificationKey(id), &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

// DeleteNotification deletes the record for id when it belongs to ownerUserID.
// A missing record or an owner mismatch returns false and changes nothing.
func (s *Store) DeleteNotification(ctx context.Context, id, ownerUserID string) (bool, error) {
	rec, err := s.GetNotification(ctx, id)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.UserID != ownerUserID {
		return false, nil
	}

	_, err = s.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, NotificationKey(id))
		pipe.ZRem(ctx, UserIndexKey(ownerUserID), id)
		pipe.SRem(ctx, UserUnreadKey(ownerUserID), id)
		return nil
	})
	if err != nil {
		return false, store.Unavailable("delete notification "+id, err)
	}
	return true, nil
}

// GetUserNotifications returns up to limit of userID's records, newest first,
// skipping offset. Index entries whose record has expired are pruned.
func (s *Store) GetUserNotifications(ctx context.Context, userID string, limit, offset int) ([]models.NotificationRecord, error) {
	if limit <= 0 {
		return []models.NotificationRecord{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	indexKey := UserIndexKey(userID)
	for round := 0; ; round++ {
		ids, err := s.cmd.ZRevRange(ctx, indexKey, int64(offset), int64(offset+limit-1)).Result()
		if err != nil {
			return nil, store.Unavailable("zrevrange "+indexKey, err)
		}
		if len(ids) == 0 {
			return []models.NotificationRecord{}, nil
		}

		records, missing, err := s.loadRecords(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(missing) == 0 || round+1 >= maxPruneRounds {
			return records, nil
		}
		if err := s.prune(ctx, userID, missing); err != nil {
			return nil, err
		}
	}
}

// loadRecords fetches ids in order, returning the records found and the ids whose record is gone.
func (s *Store) loadRecords(ctx context.Context, ids []string) ([]models.NotificationRecord, []string, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = NotificationKey(id)
	}

	values, err := s.cmd.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, store.Unavailable("mget notifications", err)
	}

	records := make([]models.NotificationRecord, 0, len(ids))
	var missing []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var rec models.NotificationRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			logging.Warn().Err(err).Str("notification_id", ids[i]).Msg("Skipping undecodable notification record")
			continue
		}
		records = append(records, rec)
	}
	return records, missing, nil
}

// prune drops expired ids from a user's index and unread set.
func (s *Store) prune(ctx context.Context, userID string, ids []string) error {
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	_, err := s.cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, UserIndexKey(userID), members...)
		pipe.SRem(ctx, UserUnreadKey(userID), members...)
		return nil
	})
	if err != nil {
		return store.Unavailable("prune index", err)
	}
	logging.Debug().Str("user_id", userID).Int("pruned", len(ids)).Msg("Pruned expired notifications from index")
	return nil
}

// MarkAsRead flags id as read when it belongs to userID, keeping its remaining TTL.
// It reports false for a missing record or an owner mismatch.
func (s *Store) MarkAsRead(ctx context.Context, id, userID string) (bool, error) {
	rec, err := s.GetNotification(ctx, id)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.UserID != userID {
		return false, nil
	}

	if !rec.Read {
		readAt := s.now().UTC()
		rec.Read = true
		rec.ReadAt = &readAt

		payload, err := json.Marshal(rec)
		if err != nil {
			return false, fmt.Errorf("encode notification %s: %w", id, err)
		}
		// XX: a record that expired since the read above stays gone.
		err = s.cmd.SetArgs(ctx, NotificationKey(id), payload, redis.SetArgs{KeepTTL: true, Mode: "XX"}).Err()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, store.Unavailable("mark read "+id, err)
		}
	}

	if err := s.cmd.SRem(ctx, UserUnreadKey(userID), id).Err(); err != nil {
		return false, store.Unavailable("srem unread", err)
	}
	return true, nil
}

// MarkAllAsRead marks every unread notification of userID as read and returns how many changed.
func (s *Store) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	ids, err := s.cmd.SMembers(ctx, UserUnreadKey(userID)).Result()
	if err != nil {
		return 0, store.Unavailable("smembers unread", err)
	}

	marked := 0
	var gone []string
	for _, id := range ids {
		ok, err := s.MarkAsRead(ctx, id, userID)
		if err != nil {
			return marked, err
		}
		if ok {
			marked++
		} else {
			gone = append(gone, id)
		}
	}
	if len(gone) > 0 {
		if err := s.prune(ctx, userID, gone); err != nil {
			return marked, err
		}
	}
	return marked, nil
}

// GetUnreadCount returns how many live notifications of userID are unread.
func (s *Store) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	unreadKey := UserUnreadKey(userID)
	ids, err := s.cmd.SMembers(ctx, unreadKey).Result()
	if err != nil {
		return 0, store.Unavailable("smembers unread", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.cmd.Pipeline()
	checks := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		checks[i] = pipe.Exists(ctx, NotificationKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, store.Unavailable("exists unread", err)
	}

	var gone []string
	for i, check := range checks {
		if check.Val() == 0 {
			gone = append(gone, ids[i])
		}
	}
	if len(gone) > 0 {
		if err := s.prune(ctx, userID, gone); err != nil {
			return 0, err
		}
	}
	return int64(len(ids) - len(gone)), nil
}

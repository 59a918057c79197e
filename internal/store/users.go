package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aadityarajkumawat/telebot/internal/models"
)

const (
	userPrefix = "user:"
	joinPrefix = "joining:"

	RoomStartKey = "room_start"
	GameStartKey = "game_start"
)

// UserStore keeps signup records and per-day join markers in the key-value
// store. Score mutations go through UpdateScore, which serializes the
// read-modify-write per user so a settlement and a redemption cannot race
// each other into a lost update.
type UserStore struct {
	kv    KV
	locks [64]sync.Mutex
}

func NewUserStore(kv KV) *UserStore {
	return &UserStore{kv: kv}
}

func userKey(id int64) string { return userPrefix + strconv.FormatInt(id, 10) }
func joinKey(id int64) string { return joinPrefix + strconv.FormatInt(id, 10) }

func (s *UserStore) Get(ctx context.Context, id int64) (*models.User, error) {
	raw, err := s.kv.Get(ctx, userKey(id))
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode user %d: %w", id, err)
	}
	return &user, nil
}

func (s *UserStore) Save(ctx context.Context, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, userKey(user.ID), string(raw))
}

func (s *UserStore) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.kv.Get(ctx, userKey(id))
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns every signup record, skipping entries that fail to decode.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	keys, err := s.kv.Keys(ctx, userPrefix+"*")
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(keys))
	for _, key := range keys {
		raw, err := s.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var user models.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// UpdateScore applies delta to the user's score as a single atomic unit,
// clamping the result at zero. Returns ErrNotFound if the user has no
// signup record.
func (s *UserStore) UpdateScore(ctx context.Context, id int64, delta int) (int, error) {
	lock := &s.locks[uint64(id)%uint64(len(s.locks))]
	lock.Lock()
	defer lock.Unlock()

	user, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	user.Score += delta
	if user.Score < 0 {
		user.Score = 0
	}
	if err := s.Save(ctx, user); err != nil {
		return 0, err
	}
	return user.Score, nil
}

func (s *UserStore) MarkJoined(ctx context.Context, id int64) error {
	return s.kv.Set(ctx, joinKey(id), "0")
}

func (s *UserStore) HasJoined(ctx context.Context, id int64) (bool, error) {
	_, err := s.kv.Get(ctx, joinKey(id))
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListJoined returns the ids of every participant holding a join marker.
func (s *UserStore) ListJoined(ctx context.Context) ([]int64, error) {
	keys, err := s.kv.Keys(ctx, joinPrefix+"*")
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(keys))
	for _, key := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(key, joinPrefix), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ClearJoined removes all join markers so the per-day resource does not leak.
func (s *UserStore) ClearJoined(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, joinPrefix+"*")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.kv.Del(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFinder struct {
	check *models.CreditCheck
	err   error
	calls int
}

func (f *countingFinder) FindValid(ctx context.Context, userID string, now time.Time) (*models.CreditCheck, error) {
	f.calls++
	return f.check, f.err
}

func completedCheck(expires time.Time) *models.CreditCheck {
	score := 760
	return &models.CreditCheck{
		ID:           "cc-1",
		UserID:       "user-001",
		Status:       models.CreditCheckCompleted,
		CreditScore:  &score,
		CreditRating: "Good",
		JobID:        "CIBIL_cc-1",
		ExpiresAt:    &expires,
		CreatedAt:    fixedNow.Add(-24 * time.Hour),
	}
}

func TestCachedCreditChecks_ServesSecondLookupFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := &countingFinder{check: completedCheck(fixedNow.Add(48 * time.Hour))}
	cache := NewCachedCreditChecks(next, rdb, time.Hour, logger.NewTestLogger(t))

	first, err := cache.FindValid(context.Background(), "user-001", fixedNow)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := cache.FindValid(context.Background(), "user-001", fixedNow)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 760, *second.CreditScore)
	assert.True(t, mr.Exists("credit:valid:user-001"))
	assert.Equal(t, time.Hour, mr.TTL("credit:valid:user-001"))
}

func TestCachedCreditChecks_TTLCappedAtExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := &countingFinder{check: completedCheck(fixedNow.Add(10 * time.Minute))}
	cache := NewCachedCreditChecks(next, rdb, time.Hour, logger.NewTestLogger(t))

	_, err := cache.FindValid(context.Background(), "user-001", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL("credit:valid:user-001"))
}

func TestCachedCreditChecks_ExpiredEntryFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := &countingFinder{check: completedCheck(fixedNow.Add(time.Hour))}
	cache := NewCachedCreditChecks(next, rdb, time.Hour, logger.NewTestLogger(t))

	_, err := cache.FindValid(context.Background(), "user-001", fixedNow)
	require.NoError(t, err)

	next.check = nil
	later := fixedNow.Add(2 * time.Hour)
	check, err := cache.FindValid(context.Background(), "user-001", later)
	require.NoError(t, err)
	assert.Nil(t, check)
	assert.Equal(t, 2, next.calls)
}

func TestCachedCreditChecks_NoCheckIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := &countingFinder{}
	cache := NewCachedCreditChecks(next, rdb, time.Hour, logger.NewTestLogger(t))

	check, err := cache.FindValid(context.Background(), "user-001", fixedNow)
	require.NoError(t, err)
	assert.Nil(t, check)
	assert.False(t, mr.Exists("credit:valid:user-001"))
}

func TestCachedCreditChecks_RedisErrorFallsBackToStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	next := &countingFinder{check: completedCheck(fixedNow.Add(48 * time.Hour))}
	cached, _ := json.Marshal(next.check)

	mock.ExpectGet("credit:valid:user-001").SetErr(errors.New("connection refused"))
	mock.ExpectSet("credit:valid:user-001", cached, time.Hour).SetErr(errors.New("connection refused"))

	cache := NewCachedCreditChecks(next, rdb, time.Hour, logger.NewTestLogger(t))

	check, err := cache.FindValid(context.Background(), "user-001", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "cc-1", check.ID)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedCreditChecks_StoreErrorPropagates(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := &countingFinder{err: errors.New("db down")}
	cache := NewCachedCreditChecks(next, rdb, time.Hour, logger.NewTestLogger(t))

	_, err := cache.FindValid(context.Background(), "user-001", fixedNow)
	assert.Error(t, err)
}

func TestCachedCreditChecks_Invalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, mr.Set("credit:valid:user-001", "{}"))
	cache := NewCachedCreditChecks(&countingFinder{}, rdb, time.Hour, logger.NewTestLogger(t))

	require.NoError(t, cache.Invalidate(context.Background(), "user-001"))
	assert.False(t, mr.Exists("credit:valid:user-001"))
}

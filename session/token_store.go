package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRecordNotFound is an exported constant or variable used by the session engine.
var ErrRecordNotFound = errors.New("token record not found")

// ErrRecordNotActive is returned when the target record exists but already
// reached a terminal state.
var ErrRecordNotActive = errors.New("token record not active")

// ErrTokenHashMismatch is returned when the presented token digest does not
// match the stored one. The store retires the record before returning this.
var ErrTokenHashMismatch = errors.New("token hash mismatch")

// ErrRecordCorrupt is returned when the stored record blob fails validation.
var ErrRecordCorrupt = errors.New("token record corrupt")

const (
	recordStatusNotFound    int64 = 0
	recordStatusNotActive   int64 = 1
	recordStatusDone        int64 = 2
	recordStatusMismatch    int64 = 3
	recordStatusInvalidBlob int64 = 4
)

const upsertRecordScript = `
local live_key = KEYS[1]
local fresh = ARGV[1]
local next_hash = ARGV[2]
local ttl_ms = tonumber(ARGV[3])

local data = redis.call("GET", live_key)
if not data then
  redis.call("SET", live_key, fresh, "PX", ttl_ms)
  return 0
end

if #data < 76 or string.byte(data, 1) ~= 1 or string.byte(data, 2) ~= 0 then
  redis.call("SET", live_key, fresh, "PX", ttl_ms)
  return 0
end

local updated = string.sub(data, 1, 18) .. next_hash .. string.sub(data, 51)
redis.call("SET", live_key, updated, "PX", ttl_ms)
return 1
`

var upsertRecordLua = redis.NewScript(upsertRecordScript)

const finalizeRecordHelper = `
local function finalize(data, status, used8, inv8)
  local uid_len = string.byte(data, 75)
  return string.sub(data, 1, 1)
    .. string.char(status)
    .. string.sub(data, 3, 58)
    .. used8
    .. inv8
    .. string.sub(data, 75, 75 + uid_len)
    .. string.char(0)
end
`

const consumeRecordScript = finalizeRecordHelper + `
local live_key = KEYS[1]
local archive_key = KEYS[2]
local provided_hash = ARGV[1]
local now8 = ARGV[2]
local archive_ttl_ms = tonumber(ARGV[3])

local data = redis.call("GET", live_key)
if not data then
  return 0
end
if #data < 76 or string.byte(data, 1) ~= 1 then
  return 4
end
if string.byte(data, 2) ~= 0 then
  return 1
end

if string.sub(data, 19, 50) ~= provided_hash then
  local tomb = finalize(data, 3, now8, now8)
  redis.call("SET", archive_key, tomb, "PX", archive_ttl_ms)
  redis.call("DEL", live_key)
  return 3
end

local done = finalize(data, 1, now8, now8)
redis.call("SET", archive_key, done, "PX", archive_ttl_ms)
redis.call("DEL", live_key)
return 2
`

var consumeRecordLua = redis.NewScript(consumeRecordScript)

const invalidateRecordScript = finalizeRecordHelper + `
local live_key = KEYS[1]
local archive_key = KEYS[2]
local status = tonumber(ARGV[1])
local now8 = ARGV[2]
local archive_ttl_ms = tonumber(ARGV[3])
local consumed = tonumber(ARGV[4])

local data = redis.call("GET", live_key)
if not data then
  return 0
end
if #data < 76 or string.byte(data, 1) ~= 1 then
  return 4
end
if string.byte(data, 2) ~= 0 then
  return 1
end

local used8 = string.rep(string.char(0), 8)
if consumed == 1 then
  used8 = now8
end

local tomb = finalize(data, status, used8, now8)
redis.call("SET", archive_key, tomb, "PX", archive_ttl_ms)
redis.call("DEL", live_key)
return 2
`

var invalidateRecordLua = redis.NewScript(invalidateRecordScript)

// TokenStore is the Redis-backed store for [TokenRecord] rows. Every state
// transition runs as a single Lua script, so the compare-and-retire on
// refresh is atomic: under concurrent refresh exactly one caller consumes
// the record and everyone else observes a terminal state.
//
// A record lives under a session-ID key while Active. A terminal transition
// moves the blob to an archive key and deletes the live key in the same
// script, which keeps the lifecycle history queryable without blocking the
// session slot.
//
//	Docs: docs/token_store.md
type TokenStore struct {
	redis      redis.UniversalClient
	prefix     string
	archiveTTL time.Duration
}

// NewTokenStore creates a [TokenStore] backed by the given Redis client.
// prefix sets the Redis key namespace; archiveTTL controls how long retired
// records remain readable.
func NewTokenStore(redis redis.UniversalClient, prefix string, archiveTTL time.Duration) *TokenStore {
	return &TokenStore{
		redis:      redis,
		prefix:     prefix,
		archiveTTL: archiveTTL,
	}
}

func (s *TokenStore) liveKey(sessionID string) string {
	return s.prefix + ":tr:" + sessionID
}

func (s *TokenStore) archiveKey(sessionID string) string {
	return s.prefix + ":arc:" + sessionID
}

func nowArg(now int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(now))
	return b[:]
}

// Upsert installs rec as the live record for its session. If an Active
// record already exists, only its token hash is replaced and identity and
// created_at are preserved. Returns true when a fresh record was created.
//
//	Performance: 1 Lua round trip.
func (s *TokenStore) Upsert(ctx context.Context, rec *TokenRecord, ttl time.Duration) (bool, error) {
	blob, err := EncodeRecord(rec)
	if err != nil {
		return false, err
	}

	status, err := upsertRecordLua.Run(ctx, s.redis,
		[]string{s.liveKey(rec.SessionID)},
		blob, rec.TokenHash[:], ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return status == 0, nil
}

// Find returns the live record for sessionID or [ErrRecordNotFound].
//
//	Performance: 1 Redis GET.
func (s *TokenStore) Find(ctx context.Context, sessionID string) (*TokenRecord, error) {
	data, err := s.redis.Get(ctx, s.liveKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	return rec, nil
}

// Archived returns the retired record for sessionID, if its archive entry
// has not expired yet.
func (s *TokenStore) Archived(ctx context.Context, sessionID string) (*TokenRecord, error) {
	data, err := s.redis.Get(ctx, s.archiveKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	return rec, nil
}

// Consume atomically compares providedHash against the live record and
// retires it. On a match the record moves to Refreshed with used_at set and
// nil is returned; the caller may then issue a replacement. On a mismatch
// the record moves to Expired and [ErrTokenHashMismatch] is returned, which
// is how token reuse surfaces. The loser of a concurrent refresh race sees
// [ErrRecordNotFound] because the winner already cleared the live key.
//
//	Performance: 1 Lua round trip.
func (s *TokenStore) Consume(ctx context.Context, sessionID string, providedHash [32]byte) error {
	status, err := consumeRecordLua.Run(ctx, s.redis,
		[]string{s.liveKey(sessionID), s.archiveKey(sessionID)},
		providedHash[:], nowArg(time.Now().Unix()), s.archiveTTL.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return statusToError(status)
}

// Invalidate retires the live record for sessionID into the given terminal
// status, stamping invalidated_at. used_at is stamped only when consume is
// true: a plain logout never used the token, so its record keeps used_at
// unset. Invalidating an absent record returns [ErrRecordNotFound].
//
//	Performance: 1 Lua round trip.
func (s *TokenStore) Invalidate(ctx context.Context, sessionID string, status Status, consume bool) error {
	if status == StatusActive {
		return errors.New("invalidate requires a terminal status")
	}

	consumed := int64(0)
	if consume {
		consumed = 1
	}

	result, err := invalidateRecordLua.Run(ctx, s.redis,
		[]string{s.liveKey(sessionID), s.archiveKey(sessionID)},
		int64(status), nowArg(time.Now().Unix()), s.archiveTTL.Milliseconds(), consumed,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return statusToError(result)
}

func statusToError(status int64) error {
	switch status {
	case recordStatusDone:
		return nil
	case recordStatusNotFound:
		return ErrRecordNotFound
	case recordStatusNotActive:
		return ErrRecordNotActive
	case recordStatusMismatch:
		return ErrTokenHashMismatch
	case recordStatusInvalidBlob:
		return ErrRecordCorrupt
	}
	return fmt.Errorf("unexpected script status %d", status)
}

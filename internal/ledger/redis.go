package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// applyScript checks and applies a balance change in one server-side step, so
// concurrent debits for a tenant cannot both observe the same balance.
// ARGV[2] is the entry JSON up to the balance_after value; the script closes
// it with the new balance printed as an integer, since Lua's default number
// formatting switches to exponent form past 14 digits.
var applyScript = redis.NewScript(`
local balance = tonumber(redis.call('GET', KEYS[1]) or '0')
local delta = tonumber(ARGV[1])
if balance + delta < 0 then
  return {0, balance}
end
balance = redis.call('INCRBY', KEYS[1], ARGV[1])
redis.call('LPUSH', KEYS[2], ARGV[2] .. string.format('%d', balance) .. '}')
return {1, balance}
`)

// entryHead is a LedgerEntry without its balance, which only the script knows.
type entryHead struct {
	ID        string              `json:"id"`
	TenantID  string              `json:"tenant_id"`
	Delta     int64               `json:"delta"`
	Reason    domain.LedgerReason `json:"reason"`
	CreatedAt time.Time           `json:"created_at"`
}

func (h entryHead) prefix() (string, error) {
	raw, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return string(raw[:len(raw)-1]) + `,"balance_after":`, nil
}

// RedisStore keeps balances and entries in Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore builds a store whose keys start with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ledger"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// keys share a hash tag so the script's keys land on one cluster slot.
func (s *RedisStore) balanceKey(tenantID string) string {
	return fmt.Sprintf("%s:{%s}:balance", s.prefix, tenantID)
}

func (s *RedisStore) entriesKey(tenantID string) string {
	return fmt.Sprintf("%s:{%s}:entries", s.prefix, tenantID)
}

func (s *RedisStore) Apply(ctx context.Context, tenantID string, delta int64, reason domain.LedgerReason) (domain.LedgerEntry, error) {
	id := uuid.NewString()
	createdAt := s.now().UTC()
	head, err := entryHead{ID: id, TenantID: tenantID, Delta: delta, Reason: reason, CreatedAt: createdAt}.prefix()
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("ledger: encode entry: %w", err)
	}
	keys := []string{s.balanceKey(tenantID), s.entriesKey(tenantID)}
	raw, err := applyScript.Run(ctx, s.client, keys, delta, head).Slice()
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("ledger: redis apply: %w", err)
	}
	if len(raw) != 2 {
		return domain.LedgerEntry{}, fmt.Errorf("ledger: unexpected script reply %v", raw)
	}
	ok, _ := raw[0].(int64)
	balance, _ := raw[1].(int64)
	if ok != 1 {
		return domain.LedgerEntry{}, domain.ErrCreditExhausted
	}
	return domain.LedgerEntry{
		ID:           id,
		TenantID:     tenantID,
		Delta:        delta,
		Reason:       reason,
		BalanceAfter: balance,
		CreatedAt:    createdAt,
	}, nil
}

func (s *RedisStore) Balance(ctx context.Context, tenantID string) (int64, error) {
	balance, err := s.client.Get(ctx, s.balanceKey(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: redis balance: %w", err)
	}
	return balance, nil
}

func (s *RedisStore) Entries(ctx context.Context, tenantID string, limit int) ([]domain.LedgerEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := s.client.LRange(ctx, s.entriesKey(tenantID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger: redis entries: %w", err)
	}
	out := make([]domain.LedgerEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.LedgerEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("ledger: decode entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

var _ domain.LedgerStore = (*RedisStore)(nil)

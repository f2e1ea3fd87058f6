package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrIdempotencyConflict   = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyKeyInvalid = errors.New("idempotency key must be 1-128 printable characters")
)

const maxIdempotencyKeyLength = 128

// IdempotencyScope identifies one replayable write.
type IdempotencyScope struct {
	TenantID string
	UserID   string
	Endpoint string
	Key      string
	Hash     string
}

type IdempotencyStore struct {
	db *pgxpool.Pool
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// IdempotencyKey reads the Idempotency-Key header. An absent header returns
// "" and no error.
func IdempotencyKey(r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		return "", nil
	}
	if len(key) > maxIdempotencyKeyLength {
		return "", ErrIdempotencyKeyInvalid
	}
	for _, c := range key {
		if c < 0x21 || c > 0x7e {
			return "", ErrIdempotencyKeyInvalid
		}
	}
	return key, nil
}

func (s *IdempotencyStore) Check(ctx context.Context, scope IdempotencyScope) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil || scope.Key == "" {
		return nil, false, nil
	}
	var storedHash string
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
  `, scope.TenantID, scope.UserID, scope.Key, scope.Endpoint).Scan(&storedHash, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != scope.Hash {
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, scope IdempotencyScope, response json.RawMessage) error {
	if s == nil || s.db == nil || scope.Key == "" {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (tenant_id, user_id, key, endpoint)
    DO UPDATE SET response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, scope.TenantID, scope.UserID, scope.Key, scope.Endpoint, scope.Hash, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

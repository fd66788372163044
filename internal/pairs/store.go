package pairs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/catalog"
)

const (
	indexKey    = "pairs:index"
	valuePrefix = "pairs:"
)

type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

// ValidateMint checks that the string is a well-formed Solana public key
func ValidateMint(mint string) error {
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return fmt.Errorf("invalid mint address %q", mint)
	}
	return nil
}

// Upsert registers or updates a watched pair. An empty label is derived from
// the token symbols.
func (s *Store) Upsert(ctx context.Context, inputMint, outputMint, label string, enabled bool) (*Pair, error) {
	if err := ValidateMint(inputMint); err != nil {
		return nil, err
	}
	if err := ValidateMint(outputMint); err != nil {
		return nil, err
	}
	if inputMint == outputMint {
		return nil, fmt.Errorf("input and output mints must differ")
	}
	if label == "" {
		label = catalog.Symbol(inputMint) + "/" + catalog.Symbol(outputMint)
	}

	pair := &Pair{
		InputMint:  inputMint,
		OutputMint: outputMint,
		Label:      label,
		Enabled:    enabled,
		UpdatedAt:  time.Now().UTC(),
	}
	b, err := json.Marshal(pair)
	if err != nil {
		return nil, fmt.Errorf("marshal pair: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, pairKey(pair.ID()), b, 0)
	pipe.SAdd(ctx, indexKey, pair.ID())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert pair: %w", err)
	}

	return pair, nil
}

func (s *Store) Get(ctx context.Context, inputMint, outputMint string) (*Pair, error) {
	if err := ValidateMint(inputMint); err != nil {
		return nil, err
	}
	if err := ValidateMint(outputMint); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, pairKey(inputMint+":"+outputMint)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pair: %w", err)
	}

	var p Pair
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("unmarshal pair: %w", err)
	}
	return &p, nil
}

func (s *Store) List(ctx context.Context) ([]*Pair, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list pairs index: %w", err)
	}
	if len(ids) == 0 {
		return []*Pair{}, nil
	}

	redisKeys := make([]string, 0, len(ids))
	for _, id := range ids {
		redisKeys = append(redisKeys, pairKey(id))
	}

	vals, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget pairs: %w", err)
	}

	out := make([]*Pair, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		var p Pair
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			continue
		}
		out = append(out, &p)
	}

	return out, nil
}

// ListEnabled filters the registry down to the pairs the monitor should probe
func (s *Store) ListEnabled(ctx context.Context) ([]*Pair, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Pair, 0, len(all))
	for _, p := range all {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, inputMint, outputMint string) error {
	if err := ValidateMint(inputMint); err != nil {
		return err
	}
	if err := ValidateMint(outputMint); err != nil {
		return err
	}

	id := inputMint + ":" + outputMint
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, pairKey(id))
	pipe.SRem(ctx, indexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete pair: %w", err)
	}

	return nil
}

func pairKey(id string) string {
	return valuePrefix + id
}

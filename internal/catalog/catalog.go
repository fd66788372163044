package catalog

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/rpc"
)

const (
	decimalsKeyPrefix = "token:decimals:"
	decimalsCacheTTL  = 24 * time.Hour

	// mintAccountMinLen and mintDecimalsOffset come from the SPL token mint
	// account layout: 4 (COption tag) + 32 (mint authority) + 8 (supply),
	// decimals is the next byte.
	mintAccountMinLen  = 82
	mintDecimalsOffset = 44

	// DefaultDecimals is the fallback when a mint cannot be resolved. Six is
	// the most common choice for SPL tokens.
	DefaultDecimals uint8 = 6
)

// AccountFetcher is the slice of the RPC client the catalog needs
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, address string) (*rpc.AccountInfoResponse, error)
}

// Catalog resolves token decimals with a three-tier lookup: the well-known
// table, the redis cache, then the mint account on chain. Failures degrade to
// DefaultDecimals rather than erroring, so a flaky RPC node cannot block a
// depth calculation.
type Catalog struct {
	fetcher AccountFetcher
	cache   redis.Cmdable
	logger  *logrus.Logger
}

// Config holds catalog dependencies. Cache and Fetcher are both optional;
// with neither, only well-known mints resolve beyond the default.
type Config struct {
	Fetcher AccountFetcher
	Cache   redis.Cmdable
	Logger  *logrus.Logger
}

func New(cfg Config) *Catalog {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Catalog{
		fetcher: cfg.Fetcher,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

// Decimals resolves the decimal count for a mint
func (c *Catalog) Decimals(ctx context.Context, mint string) uint8 {
	if info, ok := WellKnownTokens[mint]; ok {
		return info.Decimals
	}

	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		c.logger.WithField("mint", mint).Warn("invalid mint address, using default decimals")
		return DefaultDecimals
	}

	if d, ok := c.cachedDecimals(ctx, mint); ok {
		return d
	}

	d, err := c.fetchDecimals(ctx, mint)
	if err != nil {
		c.logger.WithError(err).WithField("mint", mint).Warn("mint lookup failed, using default decimals")
		return DefaultDecimals
	}

	c.storeDecimals(ctx, mint, d)
	return d
}

func (c *Catalog) cachedDecimals(ctx context.Context, mint string) (uint8, bool) {
	if c.cache == nil {
		return 0, false
	}

	val, err := c.cache.Get(ctx, decimalsKeyPrefix+mint).Result()
	if err != nil {
		return 0, false
	}

	d, err := strconv.ParseUint(val, 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(d), true
}

func (c *Catalog) storeDecimals(ctx context.Context, mint string, d uint8) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, decimalsKeyPrefix+mint, strconv.Itoa(int(d)), decimalsCacheTTL).Err(); err != nil {
		c.logger.WithError(err).Debug("failed to cache mint decimals")
	}
}

// fetchDecimals reads the mint account and extracts the decimals byte from
// the SPL token layout.
func (c *Catalog) fetchDecimals(ctx context.Context, mint string) (uint8, error) {
	if c.fetcher == nil {
		return 0, fmt.Errorf("no RPC client configured")
	}

	res, err := c.fetcher.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, err
	}
	if res.Result == nil || res.Result.Value == nil {
		return 0, fmt.Errorf("mint account not found")
	}
	if len(res.Result.Value.Data) == 0 {
		return 0, fmt.Errorf("mint account carried no data")
	}

	raw, err := base64.StdEncoding.DecodeString(res.Result.Value.Data[0])
	if err != nil {
		return 0, fmt.Errorf("decode mint account data: %w", err)
	}
	if len(raw) < mintAccountMinLen {
		return 0, fmt.Errorf("mint account data too short: %d bytes", len(raw))
	}

	return raw[mintDecimalsOffset], nil
}

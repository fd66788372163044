package ai

// depthSchemaDescription describes the ClickHouse schema used for NL→SQL
// prompting. Keep it in sync with scripts/init.sql.
const depthSchemaDescription = `
Database: liquidity

Table: depth_points (one row per probed trade size)
Columns:
  - pair                        String    -- Trading pair label, e.g. "SOL/USDC"
  - input_mint                  String    -- Mint address of the pair's input token
  - output_mint                 String    -- Mint address of the pair's output token
  - direction                   String    -- "buy" or "sell"
  - timestamp                   DateTime  -- When the depth calculation ran (UTC)
  - trade_usd_value             Float64   -- Target trade size in USD
  - input_amount                Float64   -- Tokens spent at this size
  - output_amount               Float64   -- Tokens received at this size
  - execution_price             Float64   -- output_amount / input_amount
  - price_impact_pct            Float64   -- Percent deviation from the baseline price
  - cumulative_input_liquidity  Float64   -- Running sum of input_amount up to this size
  - cumulative_output_liquidity Float64   -- Running sum of output_amount up to this size

Table: depth_snapshots (one row per completed calculation)
Columns:
  - pair            String
  - input_mint      String
  - output_mint     String
  - direction       String
  - timestamp       DateTime
  - baseline_price  Float64   -- Small-trade reference price
  - max_depth_usd   Float64   -- Largest USD size that routed
  - point_count     UInt32
  - error_count     UInt32
  - truncated       Bool      -- True when the time budget cut the run short
  - elapsed_ms      Int64

Notes:
  - A pair's depth at a given impact threshold is the largest trade_usd_value
    whose price_impact_pct stays below the threshold.
  - Compare max_depth_usd across timestamps to see liquidity trends.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
`

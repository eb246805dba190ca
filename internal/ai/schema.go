package ai

// poolEventsSchemaDescription describes the ClickHouse schema used for
// NL→SQL prompting.
//
// Keep in sync with the table created by cache.HistoryStore.EnsureSchema.
const poolEventsSchemaDescription = `
Table: pool_events

Columns:
  - event_kind String        -- "pool_created", "deposit", "withdraw" or "swap"
  - pool       String        -- Pool address (base58)
  - pool_kind  String        -- "seed" (3-asset) or "growth" (2-asset)
  - actor      String        -- Address of the creator/depositor/trader (base58)
  - timestamp  DateTime64    -- When the operation committed (UTC)
  - token_in   String        -- Swap only: mint sold by the trader
  - token_out  String        -- Swap only: mint bought by the trader
  - amount_in  UInt64        -- Swap only: input amount in base units
  - amount_out UInt64        -- Swap only: output amount in base units
  - fee        UInt64        -- Swap only: fee rate in parts per 1000 (1 = 0.1%)
  - fee_paid   UInt64        -- Swap only: fee charged on the input, base units
  - lp_amount  UInt64        -- Deposits/withdrawals: LP tokens minted or burned
  - amounts    Array(UInt64) -- Deposits/withdrawals: per-asset amounts moved
  - reserves   Array(UInt64) -- Pool reserves after the operation

Notes:
  - For swap volume, SUM(amount_in) or SUM(amount_out) filtered on event_kind = 'swap'.
  - For fee revenue, SUM(fee_paid) filtered on event_kind = 'swap'.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
  - All amounts are integer base units; there is no decimal scaling in this table.
`

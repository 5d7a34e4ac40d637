// Package model defines the storage-facing types recorded from the exchange.
//
// Conventions:
//   - Prices: integer hundredths of decimal odds (2.50 -> 250)
//   - Money: integer pence (12.34 -> 1234)
//   - Timestamps: int64 microseconds since Unix epoch
//   - IDs: exchange strings for markets, uuid.UUID for snapshot rows
package model

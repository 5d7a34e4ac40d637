// Package market implements the Market Registry component.
//
// The Market Registry:
//   - Discovers markets via listMarketCatalogue on startup
//   - Reconciles the set on an interval, adding new markets and dropping
//     ones the catalogue no longer lists (closed or settled)
//   - Maintains an in-memory registry of the markets to record
//   - Notifies subscribers of market additions/removals
//
// A Registry is a poller.MarketSource: the recorder polls whatever the
// registry currently holds.
package market

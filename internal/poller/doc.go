// Package poller implements the market book recorder input.
//
// The Poller:
//   - Polls listMarketBook on a fixed interval, starting immediately
//   - Splits market IDs into batches of at most 40 per request
//   - Bounds concurrent requests with an errgroup limit
//   - Converts each book to model.MarketSnapshot for a SnapshotHandler
package poller

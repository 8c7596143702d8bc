// Package tindak is a client-side execution engine for REST API calls that
// enforce token expiry, per-endpoint rate limiting and response caching:
//
//   - Action[T] — lazy, reusable unit of work, completable synchronously,
//     asynchronously with callbacks, or as a future
//   - TTL response cache keyed by request fingerprint (in-memory or Redis)
//   - Single-flight token refresh: N concurrent callers, one refresh
//   - Retry-After aware rate-limit retries with pluggable backoff
//   - Optional client-side throttle and in-flight request deduplication
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - The engine never depends on endpoint logic; producers hand back a
//     typed result or a classified failure
//   - Safe concurrent use of a single *Client instance; independent
//     clients share nothing
//
// Typical usage:
//
//	client := tindak.New(
//	    tindak.WithCache(2*time.Minute),
//	    tindak.WithRefresher(refresher),
//	    tindak.WithMaxRetryAttempts(5),
//	)
//
//	desc := tindak.RequestDescriptor{Method: "GET", URL: "https://api.example.com/v1/items/42"}
//	action := tindak.NewAction(client, desc, func(ctx context.Context) (Item, error) {
//	    resp, err := transport.Do(ctx, desc, nil)
//	    if err != nil {
//	        return Item{}, err
//	    }
//	    if err := tindak.Classify(resp); err != nil {
//	        return Item{}, err
//	    }
//	    var item Item
//	    return item, json.Unmarshal(resp.Body, &item)
//	})
//
//	item, err := action.Do(ctx)
//
// A second completion of the same action within the cache TTL is served from
// the cache without invoking the producer. Rate-limited attempts (429) are
// retried per the configured policy; every other failure propagates
// verbatim.
package tindak

// Package fetch performs single HTTP GET requests with bounded retries.
//
// It is the only place in skinhistory where transient faults are recovered.
// A response is classified as follows:
//
//   - network error or 5xx status: transient, retried after a delay
//   - 4xx status: a successful fetch; the body is returned to the caller
//     (the wiki answers unknown pages with a rendered "page does not exist"
//     body, which must not abort a crawl)
//   - 2xx/3xx status: a successful fetch
//
// After the configured number of attempts the Fetcher returns a *FetchError
// carrying the URL and the attempt count.
//
// # Usage
//
//	f := fetch.New(fetch.WithRetries(3), fetch.WithRetryDelay(time.Second))
//	doc, err := f.Fetch(ctx, "https://example.com/page")
package fetch

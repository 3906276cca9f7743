package workload

// Demo scenario defaults: two small pages downloaded 80 times each, and
// twenty sums of squares over ranges starting at three million.
const (
	DefaultSiteRepeat  = 80
	DefaultNumberBase  = 3_000_000
	DefaultNumberCount = 20
)

// DefaultSites are the demo download targets.
func DefaultSites() []string {
	return []string{
		"https://www.jython.org",
		"http://olympus.realpython.org/dice",
	}
}

// FetchBatch expands a site list into fetch requests, repeating the whole
// list repeat times. Item order is the full list, then the full list again.
func FetchBatch(sites []string, repeat int) []Request {
	if repeat < 1 {
		repeat = 1
	}
	items := make([]Request, 0, len(sites)*repeat)
	for range repeat {
		for _, url := range sites {
			items = append(items, Request{Kind: KindFetch, URL: url})
		}
	}
	return items
}

// ComputeBatch builds count sum-of-squares requests over base, base+1, ...
func ComputeBatch(base int64, count int) []Request {
	items := make([]Request, 0, count)
	for i := range count {
		items = append(items, Request{Kind: KindSumSquares, Number: base + int64(i)})
	}
	return items
}

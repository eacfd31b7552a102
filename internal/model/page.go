package model

// Page is the outcome of fetching and parsing a single address.
// A fetcher returns a Page only on success; failures are reported as errors.
type Page struct {
	// Address is the address the page was fetched from, exactly as requested.
	Address string `json:"address"`

	// Title is the content of the <title> element, empty for non-HTML pages.
	Title string `json:"title,omitempty"`

	// WordCounts maps every counted word on the page to its occurrences.
	WordCounts map[string]int `json:"wordCounts"`

	// Links are the outgoing addresses discovered on the page, in document order.
	Links []string `json:"links"`
}

// NewPage returns an empty page for the given address.
func NewPage(address string) *Page {
	return &Page{
		Address:    address,
		WordCounts: make(map[string]int),
		Links:      make([]string, 0),
	}
}

// TotalWords returns the number of counted word occurrences on the page.
func (p *Page) TotalWords() int {
	total := 0
	for _, n := range p.WordCounts {
		total += n
	}
	return total
}

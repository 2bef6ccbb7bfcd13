package resource

import "fmt"

// URLStream is the explicit iterator replacing the Python generator-send
// sentinel protocol: instead of a coroutine that receives an "end of
// resource" signal through the same channel it yields URLs on, a collector
// asks Next() for the next URL and calls AdvanceAxis() itself once its EOR
// resolver says the current query+page axis is exhausted.
type URLStream interface {
	// Next returns the next URL and true, or ("", false) once every query
	// and page combination has been exhausted.
	Next() (string, bool)

	// AdvanceAxis abandons the remaining pages for the current query tuple
	// and moves on to the next one. Called by the collector in response to
	// an EOR resolver verdict, never inferred by the stream itself.
	AdvanceAxis()
}

// Resource is a named HTTP collection target: a base URL plus the request
// variants (CollectQuery) that enumerate the pages/tuples to request
// against it.
type Resource struct {
	Name     string
	BaseURL  string
	MaxPages int
	queries  []*CollectQuery
}

// NewResource creates a Resource with the given base URL. maxPages bounds
// the page axis; 0 means "no page axis" (single request per query tuple).
func NewResource(name, baseURL string, maxPages int) *Resource {
	return &Resource{Name: name, BaseURL: baseURL, MaxPages: maxPages}
}

// AddQuery registers a request variant against this resource.
func (r *Resource) AddQuery(q *CollectQuery) {
	r.queries = append(r.queries, q)
}

// Stream returns a URLStream over every query tuple × page for every
// registered query on this resource, or only the named one if requestName
// is non-empty.
func (r *Resource) Stream(requestName string) URLStream {
	var queries []*CollectQuery
	if requestName != "" {
		for _, q := range r.queries {
			if q.Name == requestName {
				queries = append(queries, q)
			}
		}
	} else {
		queries = r.queries
	}
	return &urlStream{resource: r, queries: queries}
}

type urlStream struct {
	resource *Resource
	queries  []*CollectQuery

	queryIdx int
	tuples   []queryTuple
	tupleIdx int
	page     int
	started  bool
}

func (s *urlStream) loadQuery() bool {
	for s.queryIdx < len(s.queries) {
		q := s.queries[s.queryIdx]
		s.tuples = q.combinations()
		s.tupleIdx = 0
		s.page = 0
		if len(s.tuples) > 0 {
			return true
		}
		s.queryIdx++
	}
	return false
}

func (s *urlStream) Next() (string, bool) {
	if !s.started {
		s.started = true
		if !s.loadQuery() {
			return "", false
		}
	}

	for {
		if s.queryIdx >= len(s.queries) {
			return "", false
		}
		if s.tupleIdx >= len(s.tuples) {
			s.queryIdx++
			if !s.loadQuery() {
				return "", false
			}
			continue
		}

		q := s.queries[s.queryIdx]
		tuple := s.tuples[s.tupleIdx]
		qs := q.buildQueryString(tuple)

		maxPages := s.resource.MaxPages
		if maxPages <= 0 {
			maxPages = 1
		}
		if s.page >= maxPages {
			s.tupleIdx++
			s.page = 0
			continue
		}

		url := fmt.Sprintf("%s%s", s.resource.BaseURL, qs)
		if maxPages > 1 {
			sep := "&"
			if qs == "" {
				sep = "?"
			}
			url = fmt.Sprintf("%s%spage=%d", url, sep, s.page)
		}
		s.page++
		return url, true
	}
}

func (s *urlStream) AdvanceAxis() {
	s.tupleIdx++
	s.page = 0
}

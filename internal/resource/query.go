// Package resource builds the request URLs a Collector walks through: a
// fixed base URL, a set of persistent query fields, one or more mutable
// query fields whose cartesian product enumerates request variations, and
// an optional page axis. Grounded on ApiRequest/ApiResource in the original
// collection engine's resources module.
package resource

import (
	"fmt"
	"sort"
	"strings"
)

// CollectQuery holds the query-string shape for one named request variant
// of a Resource: persistent fields sent on every request, and mutable
// fields whose values are combined via cartesian product into distinct
// query strings.
type CollectQuery struct {
	Name          string
	PersistFields map[string]string
	MutableFields map[string][]string
}

// NewCollectQuery creates an empty, named CollectQuery.
func NewCollectQuery(name string) *CollectQuery {
	return &CollectQuery{
		Name:          name,
		PersistFields: make(map[string]string),
		MutableFields: make(map[string][]string),
	}
}

// SetPersistField sets a query field sent unchanged on every request.
func (q *CollectQuery) SetPersistField(key, value string) {
	q.PersistFields[key] = value
}

// SetMutableField registers a query field whose values are enumerated
// across requests.
func (q *CollectQuery) SetMutableField(key string, values []string) {
	q.MutableFields[key] = values
}

// queryTuple is one fully-resolved combination of mutable field values.
type queryTuple map[string]string

// combinations returns the cartesian product of all mutable fields, in a
// stable order (fields sorted by name, values in registration order).
func (q *CollectQuery) combinations() []queryTuple {
	if len(q.MutableFields) == 0 {
		return []queryTuple{{}}
	}

	keys := make([]string, 0, len(q.MutableFields))
	for k := range q.MutableFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []queryTuple{{}}
	for _, k := range keys {
		values := q.MutableFields[k]
		next := make([]queryTuple, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				t := make(queryTuple, len(combo)+1)
				for ck, cv := range combo {
					t[ck] = cv
				}
				t[k] = v
				next = append(next, t)
			}
		}
		combos = next
	}
	return combos
}

// buildQueryString renders the persistent fields followed by one mutable
// tuple, in "?key=value&key=value" form.
func (q *CollectQuery) buildQueryString(tuple queryTuple) string {
	var parts []string

	persistKeys := make([]string, 0, len(q.PersistFields))
	for k := range q.PersistFields {
		persistKeys = append(persistKeys, k)
	}
	sort.Strings(persistKeys)
	for _, k := range persistKeys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, q.PersistFields[k]))
	}

	tupleKeys := make([]string, 0, len(tuple))
	for k := range tuple {
		tupleKeys = append(tupleKeys, k)
	}
	sort.Strings(tupleKeys)
	for _, k := range tupleKeys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, tuple[k]))
	}

	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

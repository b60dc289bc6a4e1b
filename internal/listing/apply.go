package listing

import (
	"cmp"
	"fmt"
	"hash/fnv"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"retail-dashboard-api/internal/models"
)

// Range is an inclusive numeric bound; a nil end is unconstrained
type Range struct {
	Min *float64
	Max *float64
}

func (r Range) empty() bool {
	return r.Min == nil && r.Max == nil
}

func (r Range) contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Criteria maps field names to predicates. Blank entries are ignored.
type Criteria struct {
	Contains map[string]string
	Ranges   map[string]Range
	Equals   map[string]string
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders by a single key. An empty key keeps source order.
type Sort struct {
	Key       string
	Direction Direction
}

// Query is a complete view request
type Query struct {
	Criteria Criteria
	Sort     Sort
	Page     int
	// PrevFilterKey is the FilterKey of the page the client is looking at.
	// When it differs from the current criteria the page resets to 1.
	PrevFilterKey string
	// Language selects the collation for string sort keys
	Language language.Tag
}

// Result holds the whole filtered sequence and the requested page of it
type Result[T any] struct {
	All        []T
	Items      []T
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	FilterKey  string
}

// Pagination converts the result bounds into the API representation
func (r Result[T]) Pagination() models.Pagination {
	p := models.Pagination{
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalItems: r.TotalItems,
		TotalPages: r.TotalPages,
		FilterKey:  r.FilterKey,
	}
	if r.Page < r.TotalPages {
		p.NextPage = r.Page + 1
	}
	if r.Page > 1 {
		p.PrevPage = r.Page - 1
	}
	return p
}

type predicate[T any] func(T) bool

// Apply filters, sorts and pages source according to q
func Apply[T any](schema *Schema[T], source []T, q Query) (Result[T], error) {
	preds, err := compile(schema, q.Criteria)
	if err != nil {
		return Result[T]{}, err
	}

	filtered := make([]T, 0, len(source))
	for _, rec := range source {
		if matchAll(preds, rec) {
			filtered = append(filtered, rec)
		}
	}

	if err := sortRecords(schema, filtered, q.Sort, q.Language); err != nil {
		return Result[T]{}, err
	}

	key := FilterKey(q.Criteria)
	page := q.Page
	if q.PrevFilterKey != "" && q.PrevFilterKey != key {
		page = 1
	}

	size := schema.pageSize
	totalPages := (len(filtered) + size - 1) / size
	page = clampPage(page, totalPages)

	start := min((page-1)*size, len(filtered))
	end := min(start+size, len(filtered))

	return Result[T]{
		All:        filtered,
		Items:      filtered[start:end:end],
		Page:       page,
		PageSize:   size,
		TotalItems: len(filtered),
		TotalPages: totalPages,
		FilterKey:  key,
	}, nil
}

func clampPage(page, totalPages int) int {
	if page < 1 {
		page = 1
	}
	if totalPages == 0 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func compile[T any](schema *Schema[T], c Criteria) ([]predicate[T], error) {
	var preds []predicate[T]
	fold := cases.Fold()

	for name, needle := range c.Contains {
		needle = strings.TrimSpace(needle)
		if needle == "" {
			continue
		}
		f, err := schema.lookup(name, kindString)
		if err != nil {
			return nil, err
		}
		folded := fold.String(needle)
		get, recFold := f.text, cases.Fold()
		preds = append(preds, func(rec T) bool {
			return strings.Contains(recFold.String(get(rec)), folded)
		})
	}

	for name, r := range c.Ranges {
		if r.empty() {
			continue
		}
		f, err := schema.lookup(name, kindNumber)
		if err != nil {
			return nil, err
		}
		get, bounds := f.num, r
		preds = append(preds, func(rec T) bool {
			return bounds.contains(get(rec))
		})
	}

	for name, want := range c.Equals {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		f, err := schema.lookup(name, kindEnum, kindEnumSet)
		if err != nil {
			return nil, err
		}
		if f.kind == kindEnum {
			get := f.text
			preds = append(preds, func(rec T) bool { return get(rec) == want })
			continue
		}
		get := f.set
		preds = append(preds, func(rec T) bool { return slices.Contains(get(rec), want) })
	}

	return preds, nil
}

func matchAll[T any](preds []predicate[T], rec T) bool {
	for _, p := range preds {
		if !p(rec) {
			return false
		}
	}
	return true
}

func sortRecords[T any](schema *Schema[T], records []T, s Sort, lang language.Tag) error {
	if s.Key == "" {
		return nil
	}
	f, err := schema.lookup(s.Key, kindString, kindEnum, kindNumber)
	if err != nil {
		return err
	}

	var compare func(a, b T) int
	if f.kind == kindNumber {
		compare = func(a, b T) int { return cmp.Compare(f.num(a), f.num(b)) }
	} else {
		collator := collate.New(lang)
		compare = func(a, b T) int { return collator.CompareString(f.text(a), f.text(b)) }
	}
	if s.Direction == Desc {
		asc := compare
		compare = func(a, b T) int { return asc(b, a) }
	}

	slices.SortStableFunc(records, compare)
	return nil
}

// FilterKey fingerprints the effective criteria. Blank entries and letter
// case in substring filters do not change the key.
func FilterKey(c Criteria) string {
	fold := cases.Fold()
	var parts []string

	for name, v := range c.Contains {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, "c:"+name+"="+fold.String(v))
		}
	}
	for name, r := range c.Ranges {
		if r.empty() {
			continue
		}
		parts = append(parts, "r:"+name+"="+formatBound(r.Min)+".."+formatBound(r.Max))
	}
	for name, v := range c.Equals {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, "e:"+name+"="+v)
		}
	}
	slices.Sort(parts)

	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

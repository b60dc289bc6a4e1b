package listing

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"retail-dashboard-api/internal/validation"
)

// ParseQuery maps request parameters onto a query for schema.
// String and enum fields are read by name, number fields as <name>Min and
// <name>Max. Parameters that name no field are ignored.
func ParseQuery[T any](schema *Schema[T], values url.Values) (Query, error) {
	q := Query{
		Criteria: Criteria{
			Contains: map[string]string{},
			Ranges:   map[string]Range{},
			Equals:   map[string]string{},
		},
		Page:          parsePage(values.Get("page")),
		PrevFilterKey: strings.TrimSpace(values.Get("filterKey")),
	}

	verr := &validation.Error{}
	for _, name := range schema.order {
		f := schema.fields[name]
		switch f.kind {
		case kindString:
			if v := strings.TrimSpace(values.Get(name)); v != "" {
				q.Criteria.Contains[name] = v
			}
		case kindEnum, kindEnumSet:
			if v := strings.TrimSpace(values.Get(name)); v != "" {
				q.Criteria.Equals[name] = v
			}
		case kindNumber:
			lo := parseBound(values, name+"Min", verr)
			hi := parseBound(values, name+"Max", verr)
			if lo != nil || hi != nil {
				q.Criteria.Ranges[name] = Range{Min: lo, Max: hi}
			}
		}
	}
	if err := verr.OrNil(); err != nil {
		return Query{}, err
	}

	if key := strings.TrimSpace(values.Get("sort")); key != "" {
		if _, err := schema.lookup(key, kindString, kindEnum, kindNumber); err != nil {
			return Query{}, err
		}
		q.Sort.Key = key
		q.Sort.Direction = Asc
		if strings.EqualFold(values.Get("order"), string(Desc)) {
			q.Sort.Direction = Desc
		}
	}

	return q, nil
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseBound(values url.Values, param string, verr *validation.Error) *float64 {
	raw := strings.TrimSpace(values.Get(param))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		verr.Add(param, "validation.number")
		return nil
	}
	return &v
}

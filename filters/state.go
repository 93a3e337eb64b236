// Package filters keeps the product filter selection and the listing URL in
// sync. A State is parsed from the URL, changed by returning a new State,
// and encoded back, so the URL is the only place the selection lives.
package filters

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go-phonestore/services"
)

// URL parameter names
const (
	ParamCategories    = "categories"
	ParamBrands        = "brands"
	ParamConditions    = "conditions"
	ParamStorage       = "storage"
	ParamCarriers      = "carriers"
	ParamColors        = "colors"
	ParamMinPrice      = "minPrice"
	ParamMaxPrice      = "maxPrice"
	ParamSearch        = "search"
	ParamSortBy        = "sortBy"
	ParamSortDirection = "sortDirection"
)

// Dimensions are the multi-select parameters
var Dimensions = []string{ParamCategories, ParamBrands, ParamConditions, ParamStorage, ParamCarriers, ParamColors}

// State is the filter selection of the product listing
type State struct {
	Categories    []string `json:"categories"`
	Brands        []string `json:"brands"`
	Conditions    []string `json:"conditions"`
	Storage       []string `json:"storage"`
	Carriers      []string `json:"carriers"`
	Colors        []string `json:"colors"`
	MinPrice      *float64 `json:"minPrice,omitempty"`
	MaxPrice      *float64 `json:"maxPrice,omitempty"`
	Search        string   `json:"search,omitempty"`
	SortBy        string   `json:"sortBy,omitempty"`
	SortDirection string   `json:"sortDirection,omitempty"`
}

// Bounds is the price range offered by the slider
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Parse reads a State from URL parameters. List parameters are comma
// separated; blanks and duplicates are dropped. A comma inside a value is
// written as %2C (and a percent sign as %25) before the URL escaping.
// Unparseable and non-finite prices are ignored.
func Parse(v url.Values) State {
	s := State{
		Categories:    splitList(v[ParamCategories]),
		Brands:        splitList(v[ParamBrands]),
		Conditions:    splitList(v[ParamConditions]),
		Storage:       splitList(v[ParamStorage]),
		Carriers:      splitList(v[ParamCarriers]),
		Colors:        splitList(v[ParamColors]),
		Search:        strings.TrimSpace(v.Get(ParamSearch)),
		SortBy:        strings.TrimSpace(v.Get(ParamSortBy)),
		SortDirection: strings.ToLower(strings.TrimSpace(v.Get(ParamSortDirection))),
	}
	s.MinPrice = parsePrice(v.Get(ParamMinPrice))
	s.MaxPrice = parsePrice(v.Get(ParamMaxPrice))
	if s.SortDirection != "asc" && s.SortDirection != "desc" {
		s.SortDirection = ""
	}
	return s
}

func splitList(raw []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range raw {
		for _, p := range strings.Split(r, ",") {
			p = strings.TrimSpace(itemUnescaper.Replace(p))
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

var (
	itemEscaper   = strings.NewReplacer("%", "%25", ",", "%2C")
	itemUnescaper = strings.NewReplacer("%25", "%", "%2C", ",", "%2c", ",")
)

func joinList(list []string) string {
	escaped := make([]string, len(list))
	for i, v := range list {
		escaped[i] = itemEscaper.Replace(v)
	}
	return strings.Join(escaped, ",")
}

// ValidPrice reports whether f can be used as a price bound
func ValidPrice(f float64) bool {
	return f >= 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func parsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !ValidPrice(f) {
		return nil
	}
	return &f
}

func formatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Values returns the parameters of s. Empty dimensions are omitted.
func (s State) Values() url.Values {
	v := url.Values{}
	for _, d := range Dimensions {
		if list := s.list(d); len(list) > 0 {
			v.Set(d, joinList(list))
		}
	}
	if s.MinPrice != nil {
		v.Set(ParamMinPrice, formatPrice(*s.MinPrice))
	}
	if s.MaxPrice != nil {
		v.Set(ParamMaxPrice, formatPrice(*s.MaxPrice))
	}
	if s.Search != "" {
		v.Set(ParamSearch, s.Search)
	}
	if s.SortBy != "" {
		v.Set(ParamSortBy, s.SortBy)
	}
	if s.SortDirection != "" {
		v.Set(ParamSortDirection, s.SortDirection)
	}
	return v
}

// Encode returns the canonical query string: keys sorted, list values
// joined with literal commas.
func (s State) Encode() string {
	v := s.Values()
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := strings.Split(v.Get(k), ",")
		if !isList(k) {
			vals = []string{v.Get(k)}
		}
		for i := range vals {
			vals[i] = url.QueryEscape(vals[i])
		}
		parts = append(parts, k+"="+strings.Join(vals, ","))
	}
	return strings.Join(parts, "&")
}

// URL returns path with the encoded state as its query
func (s State) URL(path string) string {
	q := s.Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

func isList(param string) bool {
	for _, d := range Dimensions {
		if d == param {
			return true
		}
	}
	return false
}

func (s *State) listPtr(dimension string) *[]string {
	switch dimension {
	case ParamCategories:
		return &s.Categories
	case ParamBrands:
		return &s.Brands
	case ParamConditions:
		return &s.Conditions
	case ParamStorage:
		return &s.Storage
	case ParamCarriers:
		return &s.Carriers
	case ParamColors:
		return &s.Colors
	}
	return nil
}

func (s State) list(dimension string) []string {
	if p := s.listPtr(dimension); p != nil {
		return *p
	}
	return nil
}

// Has reports whether value is selected in dimension
func (s State) Has(dimension, value string) bool {
	for _, v := range s.list(dimension) {
		if v == value {
			return true
		}
	}
	return false
}

// Toggle returns a copy of s with value added to or removed from dimension
func (s State) Toggle(dimension, value string) (State, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return s, fmt.Errorf("empty filter value")
	}
	next := s.clone()
	p := next.listPtr(dimension)
	if p == nil {
		return s, fmt.Errorf("unknown filter %q", dimension)
	}
	out := make([]string, 0, len(*p)+1)
	removed := false
	for _, v := range *p {
		if v == value {
			removed = true
			continue
		}
		out = append(out, v)
	}
	if !removed {
		out = append(out, value)
	}
	if len(out) == 0 {
		out = nil
	}
	*p = out
	return next, nil
}

// WithPriceRange returns a copy of s with the committed slider range. The
// range is clamped to b, inverted bounds are swapped and a bound sitting on
// the edge of b is dropped, since it does not constrain anything.
func (s State) WithPriceRange(min, max float64, b Bounds) State {
	next := s.clone()
	if min > max {
		min, max = max, min
	}
	min = clamp(min, b.Min, b.Max)
	max = clamp(max, b.Min, b.Max)
	next.MinPrice, next.MaxPrice = nil, nil
	if min > b.Min {
		next.MinPrice = &min
	}
	if max < b.Max {
		next.MaxPrice = &max
	}
	return next
}

// Clear returns a State keeping only search and sort
func (s State) Clear() State {
	return State{Search: s.Search, SortBy: s.SortBy, SortDirection: s.SortDirection}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s State) clone() State {
	c := s
	for _, d := range Dimensions {
		if p := c.listPtr(d); *p != nil {
			*p = append([]string(nil), *p...)
		}
	}
	if s.MinPrice != nil {
		v := *s.MinPrice
		c.MinPrice = &v
	}
	if s.MaxPrice != nil {
		v := *s.MaxPrice
		c.MaxPrice = &v
	}
	return c
}

// Query converts the selection into product listing options
func (s State) Query() services.ProductQuery {
	return services.ProductQuery{
		Search:        s.Search,
		CategoryIDs:   s.Categories,
		BrandIDs:      s.Brands,
		MinPrice:      s.MinPrice,
		MaxPrice:      s.MaxPrice,
		Conditions:    s.Conditions,
		Storage:       s.Storage,
		Carriers:      s.Carriers,
		Colors:        s.Colors,
		SortBy:        s.SortBy,
		SortDirection: s.SortDirection,
	}
}

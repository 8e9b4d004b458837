// Package query extracts filter parameters from request query strings.
package query

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/conduit-lang/drest/internal/filter"
)

// filterPattern matches query parameters like filter{key}
var filterPattern = regexp.MustCompile(`^filter\{([^{}]+)\}$`)

// FilterKey returns the inner key of a filter{key} parameter name
func FilterKey(name string) (string, bool) {
	matches := filterPattern.FindStringSubmatch(name)
	if len(matches) != 2 {
		return "", false
	}
	return matches[1], true
}

// ParseFilters extracts filter{...} parameters from a raw query string.
// Keys keep the order of their first appearance; repeated keys accumulate
// their values in order. Parameters that are not filters are ignored.
func ParseFilters(rawQuery string) (*filter.Params, error) {
	params := filter.NewParams()

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		rawName, value, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, fmt.Errorf("invalid query parameter name %q: %w", rawName, err)
		}

		key, ok := FilterKey(name)
		if !ok {
			continue
		}

		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for filter{%s}: %w", key, err)
		}
		params.Add(key, value)
	}

	return params, nil
}

// ParseFilterRequest extracts filter parameters from the request URL
func ParseFilterRequest(r *http.Request) (*filter.Params, error) {
	return ParseFilters(r.URL.RawQuery)
}

// ParseArgs collects filter parameters from command line arguments. Each
// argument is a bare key=value pair, a filter{key}=value pair, or a
// query string joining several pairs with "&".
func ParseArgs(args []string) (*filter.Params, error) {
	params := filter.NewParams()

	for _, arg := range args {
		for _, pair := range strings.Split(arg, "&") {
			if pair == "" {
				continue
			}

			name, value, found := strings.Cut(pair, "=")
			if !found {
				return nil, fmt.Errorf("invalid filter argument %q: expected key=value", pair)
			}
			name = strings.TrimSpace(name)
			if key, ok := FilterKey(name); ok {
				name = key
			}
			if name == "" {
				return nil, fmt.Errorf("invalid filter argument %q: empty key", pair)
			}
			params.Add(name, value)
		}
	}

	return params, nil
}

package catalog

import "strings"

// Filter derives the working subset of products for a category filter and a
// text query. Both predicates compose by conjunction and the input order is
// preserved.
//
// A category of CategoryAll (or empty) keeps every category. The query is
// trimmed and lowercased, then matched as a plain substring of the product
// name; an empty query after trimming keeps every product. The function is
// pure: re-applying the same arguments yields the same result, and an empty
// slice is a valid outcome distinct from "no filter applied".
func Filter(products []Product, category Category, query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	byCategory := category != "" && category != CategoryAll

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if byCategory && p.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

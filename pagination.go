package accounts

import "fmt"

// BuildPaginationLinks computes the navigation links for one result page.
// The returned map always carries "self"; "first" and "last" appear whenever
// the collection is non-empty, "next" only when a further page exists, and
// "prev" only when skip is positive. An empty collection yields exactly
// self, first and last, all pointing at offset zero.
func BuildPaginationLinks(basePath string, total, skip, limit int) map[string]string {
	href := func(s int) string {
		return fmt.Sprintf("%s?skip=%d&limit=%d", basePath, s, limit)
	}

	links := map[string]string{
		"self": href(skip),
	}

	if total == 0 {
		links["first"] = href(0)
		links["last"] = href(0)
		return links
	}

	links["first"] = href(0)
	links["last"] = href(((total - 1) / limit) * limit)

	if skip+limit < total {
		links["next"] = href(skip + limit)
	}

	if skip > 0 {
		prev := skip - limit
		if prev < 0 {
			prev = 0
		}
		links["prev"] = href(prev)
	}

	return links
}

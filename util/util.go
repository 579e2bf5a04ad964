package util

import (
	"sort"
)

// Pages returns non-consecutive page numbers from 1 to numPages.
func Pages(currentPage int, numPages int) []int {

	if currentPage < 1 || numPages < 1 {
		return nil
	}

	pages := map[int]struct{}{}
	pages[1] = struct{}{}
	pages[currentPage] = struct{}{}
	pages[numPages] = struct{}{}

	delta := 1
	watchdog := 1

	for (currentPage-delta > 1 || currentPage+delta < numPages) && watchdog < 20 {
		if currentPage-delta > 0 {
			pages[currentPage-delta] = struct{}{}
		}
		if currentPage+delta < numPages {
			pages[currentPage+delta] = struct{}{}
		}
		delta *= 2
		watchdog++
	}

	pageslice := make([]int, 0, len(pages))
	for page := range pages {
		pageslice = append(pageslice, page)
	}
	sort.Ints(pageslice)
	return pageslice
}

// Paginate returns the bounds of the given page in a list of n items, and the number of pages.
// Pages start at 1. An out-of-range page is clamped.
func Paginate(n, perPage, page int) (from, to, pages int) {
	if perPage < 1 {
		perPage = n
	}
	if n == 0 || perPage == 0 {
		return 0, 0, 1
	}
	pages = (n + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	from = (page - 1) * perPage
	to = from + perPage
	if to > n {
		to = n
	}
	return from, to, pages
}

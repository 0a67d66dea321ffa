package util

const DefaultPageSize = 20

// Paginate computes the skip offset for one page of a collection holding
// count documents. A limit of zero disables pagination: skip is 0 and a
// single page holds everything. The requested page is clamped into
// [1, totalPages], so asking for a page past the end returns the last page.
func Paginate(page, limit int, count int64) (skip int64, totalPages int64, currentPage int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return 0, 1, 1
	}

	totalPages = (count + int64(limit) - 1) / int64(limit)
	if totalPages < 1 {
		totalPages = 1
	}
	if int64(page) > totalPages {
		page = int(totalPages)
	}

	skip = int64(page-1) * int64(limit)
	return skip, totalPages, page
}

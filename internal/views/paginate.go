package views

// Paginate returns rows[page*size : page*size+size], clipped to the slice.
// A page past the end is empty, never an error.
func Paginate[T any](rows []T, page, size int) []T {
	if size <= 0 {
		size = DefaultRowsPerPage
	}
	if page < 0 {
		page = 0
	}
	if page >= PageCount(len(rows), size) {
		return []T{}
	}
	start := page * size
	end := len(rows)
	if size < end-start {
		end = start + size
	}
	return rows[start:end:end]
}

// PageCount returns how many pages of size hold total rows.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultRowsPerPage
	}
	if total <= 0 {
		return 0
	}
	return (total-1)/size + 1
}

package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		limit      int
		count      int64
		skip       int64
		totalPages int64
		current    int
	}{
		{"first page", 1, 10, 95, 0, 10, 1},
		{"middle page", 4, 10, 95, 30, 10, 4},
		{"last partial page", 10, 10, 95, 90, 10, 10},
		{"page past the end clamps", 50, 10, 95, 90, 10, 10},
		{"exact multiple", 2, 5, 10, 5, 2, 2},
		{"zero limit returns all", 3, 0, 95, 0, 1, 1},
		{"zero count", 1, 10, 0, 0, 1, 1},
		{"page below one", 0, 10, 95, 0, 10, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			skip, totalPages, current := Paginate(tc.page, tc.limit, tc.count)
			require.Equal(t, tc.skip, skip)
			require.Equal(t, tc.totalPages, totalPages)
			require.Equal(t, tc.current, current)
		})
	}
}

func TestPaginateSkipInvariant(t *testing.T) {
	// skip = (min(page, totalPages)-1) * limit for every positive limit.
	for _, page := range []int{1, 2, 7, 100} {
		for _, limit := range []int{1, 3, 25} {
			for _, count := range []int64{0, 1, 24, 25, 26, 1000} {
				skip, totalPages, current := Paginate(page, limit, count)
				require.Equal(t, int64(current-1)*int64(limit), skip)
				require.LessOrEqual(t, int64(current), totalPages)
			}
		}
	}
}

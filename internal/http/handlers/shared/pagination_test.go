package shared

import "testing"

func TestNormalizePagination(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, defaultPageSize},
		{3, 50, 3, 50},
		{-1, 500, 1, maxPageSize},
	}
	for _, tc := range cases {
		page, size := NormalizePagination(tc.page, tc.size)
		if page != tc.wantPage || size != tc.wantSize {
			t.Fatalf("NormalizePagination(%d,%d) = %d,%d", tc.page, tc.size, page, size)
		}
	}
}

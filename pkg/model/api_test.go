package model

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		page        PageSpec
		wantPage    int
		wantPerPage int
		wantMore    bool
	}{
		{"defaults", 25, PageSpec{}, 1, 10, true},
		{"last page", 25, PageSpec{Page: 3, PerPage: 10}, 3, 10, false},
		{"exact fit", 20, PageSpec{Page: 2, PerPage: 10}, 2, 10, false},
		{"empty", 0, PageSpec{Page: 1, PerPage: 5}, 1, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg := NewPagination(tt.total, tt.page)
			if pg.Total != tt.total {
				t.Errorf("Total = %d, want %d", pg.Total, tt.total)
			}
			if pg.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", pg.Page, tt.wantPage)
			}
			if pg.PerPage != tt.wantPerPage {
				t.Errorf("PerPage = %d, want %d", pg.PerPage, tt.wantPerPage)
			}
			if pg.HasMore != tt.wantMore {
				t.Errorf("HasMore = %v, want %v", pg.HasMore, tt.wantMore)
			}
		})
	}
}

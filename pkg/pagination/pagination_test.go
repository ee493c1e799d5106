package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/agent-chat/pkg/pagination"
)

func defaults(t *testing.T) pagination.Config {
	t.Helper()
	cfg := pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return cfg
}

func TestFromQuery(t *testing.T) {
	cfg := defaults(t)

	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
	}{
		{"empty", "", 1, 20},
		{"explicit", "page=3&page_size=5", 3, 5},
		{"clamped", "page_size=1000", 1, 100},
		{"malformed", "page=x&page_size=-2", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.FromQuery(values, cfg)
			if req.Page != tt.page || req.PageSize != tt.pageSize {
				t.Errorf("FromQuery(%q) = %+v, want page %d size %d", tt.query, req, tt.page, tt.pageSize)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name       string
		req        pagination.PageRequest
		want       []int
		totalPages int
	}{
		{"first", pagination.PageRequest{Page: 1, PageSize: 2}, []int{1, 2}, 3},
		{"last partial", pagination.PageRequest{Page: 3, PageSize: 2}, []int{5}, 3},
		{"past end", pagination.PageRequest{Page: 9, PageSize: 2}, []int{}, 3},
		{"single page", pagination.PageRequest{Page: 1, PageSize: 10}, []int{1, 2, 3, 4, 5}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pagination.Slice(items, tt.req)
			if len(got.Data) != len(tt.want) {
				t.Fatalf("Data = %v, want %v", got.Data, tt.want)
			}
			for i := range tt.want {
				if got.Data[i] != tt.want[i] {
					t.Errorf("Data = %v, want %v", got.Data, tt.want)
				}
			}
			if got.Total != len(items) || got.TotalPages != tt.totalPages {
				t.Errorf("Total = %d, TotalPages = %d; want %d, %d", got.Total, got.TotalPages, len(items), tt.totalPages)
			}
		})
	}
}

func TestConfig_Invalid(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("Finalize() succeeded with default above max, want error")
	}
}

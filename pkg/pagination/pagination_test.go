package pagination

import (
	"net/http/httptest"
	"testing"
)

func TestFromRequestDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/articles", nil)
	p := FromRequest(r)
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Fatalf("expected defaults, got %+v", p)
	}
}

func TestFromRequestClampsLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/articles?limit=5000&offset=40", nil)
	p := FromRequest(r)
	if p.Limit != MaxLimit {
		t.Fatalf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
	if p.Offset != 40 {
		t.Fatalf("expected offset 40, got %d", p.Offset)
	}
}

func TestFromRequestIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/articles?limit=abc&offset=-3", nil)
	p := FromRequest(r)
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Fatalf("expected garbage ignored, got %+v", p)
	}
}

func TestNewResponseNormalizesNil(t *testing.T) {
	resp := NewResponse[string](nil, 0, Page{Limit: 10})
	if resp.Items == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

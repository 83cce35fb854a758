package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CapsLimit(t *testing.T) {
	p := paramsFor(t, "limit=5000")
	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := paramsFor(t, "limit=30&offset=60")
	if p.Limit != 30 || p.Offset != 60 {
		t.Errorf("expected 30/60, got %d/%d", p.Limit, p.Offset)
	}
}

func TestResponse_HasMore(t *testing.T) {
	r := NewResponse(nil, 50, 20, 20)
	if !r.HasMore {
		t.Error("expected has_more for offset 20 of 50")
	}
	r = NewResponse(nil, 50, 20, 40)
	if r.HasMore {
		t.Error("expected no more results past the final page")
	}
}

func TestParams_Offsets(t *testing.T) {
	p := Params{Limit: 20, Offset: 10}
	if p.NextOffset() != 30 {
		t.Errorf("expected next offset 30, got %d", p.NextOffset())
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("expected previous offset clamped to 0, got %d", p.PreviousOffset())
	}
	if !p.HasPrevious() {
		t.Error("expected HasPrevious at offset 10")
	}
	if p.SQL() != "LIMIT 20 OFFSET 10" {
		t.Errorf("unexpected SQL clause: %s", p.SQL())
	}
}

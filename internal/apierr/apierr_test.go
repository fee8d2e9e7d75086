package apierr

import (
  "errors"
  "fmt"
  "net/http"
  "testing"
)

func TestKindOf_DefaultsToInternal(t *testing.T) {
  if got := KindOf(fmt.Errorf("plain")); got != KindInternal {
    t.Fatalf("want internal got %q", got)
  }
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
  err := fmt.Errorf("handler: %w", NotFound("roadmap_not_found", "Roadmap not found"))
  if !IsKind(err, KindNotFound) {
    t.Fatalf("kind lost through wrap: %v", err)
  }
  if CodeOf(err) != "roadmap_not_found" {
    t.Fatalf("code lost through wrap: %q", CodeOf(err))
  }
}

func TestHTTPStatus_Mapping(t *testing.T) {
  cases := []struct {
    err  error
    want int
  }{
    {NotFound("x", "x"), http.StatusNotFound},
    {Conflict("x", "x"), http.StatusConflict},
    {InvalidArgument("x", "x"), http.StatusBadRequest},
    {Internal("x", "x"), http.StatusInternalServerError},
    {errors.New("plain"), http.StatusInternalServerError},
  }
  for _, c := range cases {
    if got := HTTPStatus(c.err); got != c.want {
      t.Fatalf("HTTPStatus(%v)=%d want %d", c.err, got, c.want)
    }
  }
}

func TestError_MessageFallbacks(t *testing.T) {
  if got := (&Error{Kind: KindConflict, Code: "code_only"}).Error(); got != "code_only" {
    t.Fatalf("want code fallback got %q", got)
  }
  if got := (&Error{Kind: KindConflict}).Error(); got != "conflict" {
    t.Fatalf("want kind fallback got %q", got)
  }
}

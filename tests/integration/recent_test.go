//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestRecent_EmptyByDefault(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/api/recent", newSession(), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	recent := decodeJSON[recentResponse](t, resp)
	if len(recent.Items) != 0 {
		t.Fatalf("expected empty list, got %+v", recent.Items)
	}
}

func TestRecent_MostRecentFirstAndBounded(t *testing.T) {
	sid := newSession()

	// View 8 products; only the 6 most recent survive.
	for id := 1; id <= 8; id++ {
		resp := doRequest(t, http.MethodPost, fmt.Sprintf("/api/product/%d/view", id), sid, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("view %d: expected 204, got %d", id, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doRequest(t, http.MethodGet, "/api/recent", sid, nil)
	defer resp.Body.Close()

	recent := decodeJSON[recentResponse](t, resp)
	if len(recent.Items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(recent.Items))
	}
	want := []int{8, 7, 6, 5, 4, 3}
	for i, p := range recent.Items {
		if p.ID != want[i] {
			t.Errorf("position %d: got product %d, want %d", i, p.ID, want[i])
		}
	}
}

func TestRecent_ReviewMovesToFront(t *testing.T) {
	sid := newSession()

	for _, id := range []int{1, 2, 3, 2} {
		resp := doRequest(t, http.MethodPost, fmt.Sprintf("/api/product/%d/view", id), sid, nil)
		resp.Body.Close()
	}

	resp := doRequest(t, http.MethodGet, "/api/recent", sid, nil)
	defer resp.Body.Close()

	recent := decodeJSON[recentResponse](t, resp)
	want := []int{2, 3, 1}
	if len(recent.Items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(recent.Items))
	}
	for i, p := range recent.Items {
		if p.ID != want[i] {
			t.Errorf("position %d: got product %d, want %d", i, p.ID, want[i])
		}
	}
}

func TestRecent_UnknownProduct(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/product/999/view", newSession(), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

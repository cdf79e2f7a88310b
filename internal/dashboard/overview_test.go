package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/besofuls/EVTrade/internal/models"
)

func TestMemberCountExcludesStaff(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{
			"mixed roles",
			`[{"userID":1,"roles":["ADMIN"]},{"userID":2,"roles":["MEMBER"]},{"userID":3,"role":{"roleName":"MODERATOR"}},{"userID":4}]`,
			2,
		},
		{
			"content envelope",
			`{"content":[{"userID":1},{"userID":2,"roles":["ROLE_ADMIN"]}],"totalElements":2}`,
			1,
		},
		{"unparseable entries still count", `[42,"weird"]`, 2},
		{"empty", `[]`, 0},
		{"nil", ``, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MemberCount(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("MemberCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoadStatsJoinsFourQueries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"userID":1,"roles":["ADMIN"]},{"userID":2},{"userID":3}]`))
	})
	mux.HandleFunc("/listings", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"id":1}],"totalElements":12}`))
	})
	mux.HandleFunc("/admin/transactions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":5}`))
	})
	mux.HandleFunc("/complaints", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"complaintID":1},{"complaintID":2}]`))
	})

	overview := NewOverview(newTestClient(t, mux))
	stats, err := overview.LoadStats(context.Background())
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.MemberCount != 2 {
		t.Errorf("MemberCount = %d, want 2", stats.MemberCount)
	}
	if stats.ListingCount != 12 {
		t.Errorf("ListingCount = %d, want 12", stats.ListingCount)
	}
	if stats.TransactionCount != 5 {
		t.Errorf("TransactionCount = %d, want 5", stats.TransactionCount)
	}
	if stats.ComplaintCount != 2 {
		t.Errorf("ComplaintCount = %d, want 2", stats.ComplaintCount)
	}
}

func TestLoadStatsFailsWhenAnyQueryFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	overview := NewOverview(newTestClient(t, mux))
	if _, err := overview.LoadStats(context.Background()); err == nil {
		t.Fatal("LoadStats succeeded with a failing query, want error")
	}
}

func TestBuildPieSegments(t *testing.T) {
	stats := []models.CategoryStat{
		{CategoryName: "Sedan", ListingCount: 2},
		{CategoryName: "SUV", ListingCount: 1},
		{CategoryName: "Scooter", ListingCount: 1},
	}
	segments := BuildPieSegments(stats)
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(segments))
	}

	if segments[0].StartAngle != 0 || segments[0].EndAngle != 180 {
		t.Errorf("first segment = [%v, %v], want [0, 180]", segments[0].StartAngle, segments[0].EndAngle)
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].StartAngle != segments[i-1].EndAngle {
			t.Errorf("segment %d starts at %v, want %v", i, segments[i].StartAngle, segments[i-1].EndAngle)
		}
	}
	if last := segments[len(segments)-1]; last.EndAngle != 360 {
		t.Errorf("last segment ends at %v, want exactly 360", last.EndAngle)
	}
	if segments[0].Color == segments[1].Color {
		t.Error("adjacent segments share a color")
	}
}

func TestBuildPieSegmentsZeroTotal(t *testing.T) {
	for _, stats := range [][]models.CategoryStat{
		nil,
		{{CategoryName: "Sedan", ListingCount: 0}},
	} {
		segments := BuildPieSegments(stats)
		if len(segments) != 1 {
			t.Fatalf("got %d segments for zero total, want 1", len(segments))
		}
		if segments[0].StartAngle != 0 || segments[0].EndAngle != 360 {
			t.Errorf("neutral segment = [%v, %v], want full circle", segments[0].StartAngle, segments[0].EndAngle)
		}
		if segments[0].Color != neutralColor {
			t.Errorf("neutral segment color = %q, want %q", segments[0].Color, neutralColor)
		}
	}
}

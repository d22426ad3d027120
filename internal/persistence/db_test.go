package persistence

import (
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/kalstrom/citypulse/internal/session"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEditJournalRoundTrip(t *testing.T) {
	db := openTestDB(t)

	records := []EditRecord{
		{Iteration: 1, Mode: "add-tree", Kind: "tree", Lat: 52.52, Lon: 13.405, EntityID: "u-1-aaaa"},
		{Iteration: 2, Mode: "remove", Kind: "building", Lat: 52.521, Lon: 13.406, EntityID: "osm-way/9"},
	}
	for _, rec := range records {
		if err := db.SaveEdit(rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.RecentEdits(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	// Most recent first.
	if got[0].EntityID != "osm-way/9" || got[1].EntityID != "u-1-aaaa" {
		t.Errorf("wrong order: %v, %v", got[0].EntityID, got[1].EntityID)
	}
	if got[0].CreatedAt == 0 {
		t.Error("created_at not defaulted")
	}
}

func TestRecentEditsLimit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		if err := db.SaveEdit(EditRecord{Mode: "add-tree", Kind: "tree"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.RecentEdits(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("limit not applied: %d records", len(got))
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveMeta("location", "52.52000,13.40500"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("location", "48.85000,2.35000"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetMeta("location")
	if err != nil {
		t.Fatal(err)
	}
	if got != "48.85000,2.35000" {
		t.Errorf("meta not replaced: %q", got)
	}

	if _, err := db.GetMeta("missing"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSaveSession(t *testing.T) {
	db := openTestDB(t)

	state := session.State{
		Location: orb.Point{13.405, 52.52},
		Events: []session.Event{
			{Iteration: 3, Description: "satellite pass completed", Category: "orbit"},
		},
	}
	state.Clock.Iteration = 3

	if err := db.SaveSession(state); err != nil {
		t.Fatal(err)
	}

	loc, err := db.GetMeta("location")
	if err != nil {
		t.Fatal(err)
	}
	if loc != "52.52000,13.40500" {
		t.Errorf("location meta = %q", loc)
	}
	iter, err := db.GetMeta("iteration")
	if err != nil {
		t.Fatal(err)
	}
	if iter != "3" {
		t.Errorf("iteration meta = %q", iter)
	}
	if _, err := db.GetMeta("base_weather"); err != nil {
		t.Errorf("base weather meta missing: %v", err)
	}
}

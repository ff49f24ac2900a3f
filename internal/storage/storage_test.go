package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createTestPalette(t *testing.T, s *SQLiteStorage, slug string, owner Owner) *Palette {
	t.Helper()
	now := time.Now().UTC()
	p := &Palette{
		Slug:      slug,
		Name:      "Palette " + slug,
		Colors:    []Color{{Value: "#ff8800"}, {Value: "#002244", Label: "navy"}},
		Status:    StatusPublished,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreatePalette(context.Background(), p); err != nil {
		t.Fatalf("CreatePalette(%s) failed: %v", slug, err)
	}
	return p
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sess := &Session{Token: "tok-1", IPHash: "abcd", CreatedAt: created, LastSeenAt: created}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := s.CreateSession(ctx, sess); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for same token, got %v", err)
	}

	later := created.Add(time.Hour)
	found, err := s.TouchSession(ctx, "tok-1", later)
	if err != nil {
		t.Fatalf("TouchSession failed: %v", err)
	}
	if !found {
		t.Errorf("expected TouchSession to find the session")
	}

	got, err := s.GetSession(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !got.LastSeenAt.Equal(later) {
		t.Errorf("expected last seen %v, got %v", later, got.LastSeenAt)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("expected created %v, got %v", created, got.CreatedAt)
	}

	found, err = s.TouchSession(ctx, "unknown", later)
	if err != nil {
		t.Fatalf("TouchSession on unknown token returned error: %v", err)
	}
	if found {
		t.Errorf("expected unknown token to be reported as not found")
	}

	if _, err := s.GetSession(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSessionsIdleSince(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for token, lastSeen := range map[string]time.Time{
		"old":      cutoff.Add(-time.Second),
		"boundary": cutoff,
		"fresh":    cutoff.Add(time.Hour),
	} {
		if err := s.CreateSession(ctx, &Session{Token: token, IPHash: "h", CreatedAt: lastSeen, LastSeenAt: lastSeen}); err != nil {
			t.Fatalf("CreateSession(%s) failed: %v", token, err)
		}
	}

	removed, err := s.DeleteSessionsIdleSince(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteSessionsIdleSince failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 session removed, got %d", removed)
	}
	if _, err := s.GetSession(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected old session to be gone, got %v", err)
	}
	for _, token := range []string{"boundary", "fresh"} {
		if _, err := s.GetSession(ctx, token); err != nil {
			t.Errorf("expected %s session to remain: %v", token, err)
		}
	}
}

func TestPaletteCRUD(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()

	owned := createTestPalette(t, s, "sunset-glow", SessionOwner{Token: "tok-a"})
	createTestPalette(t, s, "legacy-one", AnonymousOwner{})

	dup := *owned
	if err := s.CreatePalette(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for existing slug, got %v", err)
	}

	got, err := s.GetPalette(ctx, "sunset-glow")
	if err != nil {
		t.Fatalf("GetPalette failed: %v", err)
	}
	if got.Name != owned.Name || len(got.Colors) != 2 || got.Colors[1].Label != "navy" {
		t.Errorf("unexpected palette: %+v", got)
	}
	if so, ok := got.Owner.(SessionOwner); !ok || so.Token != "tok-a" {
		t.Errorf("expected SessionOwner tok-a, got %#v", got.Owner)
	}
	if got.VoteCount != 0 || got.Status != StatusPublished {
		t.Errorf("unexpected counters/status: %d %s", got.VoteCount, got.Status)
	}

	legacy, err := s.GetPalette(ctx, "legacy-one")
	if err != nil {
		t.Fatalf("GetPalette failed: %v", err)
	}
	if _, ok := legacy.Owner.(AnonymousOwner); !ok {
		t.Errorf("expected AnonymousOwner, got %#v", legacy.Owner)
	}

	updated, err := s.UpdatePaletteDetails(ctx, "sunset-glow", "Sunset Glow II", nil, time.Now())
	if err != nil {
		t.Fatalf("UpdatePaletteDetails failed: %v", err)
	}
	if updated.Name != "Sunset Glow II" || len(updated.Colors) != 2 {
		t.Errorf("rename should keep colors: %+v", updated)
	}

	updated, err = s.UpdatePaletteDetails(ctx, "sunset-glow", "Sunset Glow III", []Color{{Value: "red"}}, time.Now())
	if err != nil {
		t.Fatalf("UpdatePaletteDetails failed: %v", err)
	}
	if len(updated.Colors) != 1 || updated.Colors[0].Value != "red" {
		t.Errorf("expected colors replaced, got %+v", updated.Colors)
	}

	if _, err := s.UpdatePaletteDetails(ctx, "missing", "x", nil, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	status, err := s.TogglePaletteStatus(ctx, "sunset-glow", time.Now())
	if err != nil {
		t.Fatalf("TogglePaletteStatus failed: %v", err)
	}
	if status != StatusFeatured {
		t.Errorf("expected featured, got %s", status)
	}
	got, _ = s.GetPalette(ctx, "sunset-glow")
	if got.Status != StatusFeatured {
		t.Errorf("expected stored status featured, got %s", got.Status)
	}
	if status, _ = s.TogglePaletteStatus(ctx, "sunset-glow", time.Now()); status != StatusPublished {
		t.Errorf("expected published after second toggle, got %s", status)
	}
	if _, err := s.TogglePaletteStatus(ctx, "missing", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := s.ListPalettes(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListPalettes failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 palettes, got %d", len(list))
	}

	if err := s.DeletePalette(ctx, "legacy-one"); err != nil {
		t.Fatalf("DeletePalette failed: %v", err)
	}
	if err := s.DeletePalette(ctx, "legacy-one"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListPalettesEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	list, err := s.ListPalettes(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListPalettes failed: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", list)
	}
}

func TestVoteUniqueness(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()
	createTestPalette(t, s, "p1", AnonymousOwner{})

	if err := s.InsertVote(ctx, "tok", "p1", time.Now()); err != nil {
		t.Fatalf("InsertVote failed: %v", err)
	}
	if err := s.InsertVote(ctx, "tok", "p1", time.Now()); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	deleted, err := s.DeleteVote(ctx, "tok", "p1")
	if err != nil || !deleted {
		t.Fatalf("expected vote deleted, got %v %v", deleted, err)
	}
	deleted, err = s.DeleteVote(ctx, "tok", "p1")
	if err != nil || deleted {
		t.Fatalf("expected nothing to delete, got %v %v", deleted, err)
	}
}

// TestConcurrentVoteInserts verifies the primary key admits exactly one of
// many simultaneous inserts for the same pair.
func TestConcurrentVoteInserts(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()
	createTestPalette(t, s, "p1", AnonymousOwner{})

	const attempts = 20
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertVote(ctx, "tok", "p1", time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicate):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || duplicates != attempts-1 {
		t.Errorf("expected 1 success and %d duplicates, got %d and %d", attempts-1, successes, duplicates)
	}
}

func TestSyncVoteCount(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()
	createTestPalette(t, s, "p1", AnonymousOwner{})

	for i := 0; i < 3; i++ {
		if err := s.InsertVote(ctx, fmt.Sprintf("tok-%d", i), "p1", time.Now()); err != nil {
			t.Fatalf("InsertVote failed: %v", err)
		}
	}

	count, err := s.SyncVoteCount(ctx, "p1", time.Now())
	if err != nil {
		t.Fatalf("SyncVoteCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}

	cached, err := s.GetVoteCount(ctx, "p1")
	if err != nil {
		t.Fatalf("GetVoteCount failed: %v", err)
	}
	if cached != 3 {
		t.Errorf("expected cached 3, got %d", cached)
	}

	if _, err := s.SyncVoteCount(ctx, "missing", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetVoteCount(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteOrphanVotes(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()
	createTestPalette(t, s, "live", AnonymousOwner{})

	sweepStart := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	votes := []struct {
		token, slug string
		at          time.Time
	}{
		{"a", "live", sweepStart.Add(-time.Hour)},
		{"a", "gone", sweepStart.Add(-time.Hour)},
		{"b", "gone", sweepStart.Add(-time.Minute)},
		// created after the sweep began: must survive
		{"c", "new-palette", sweepStart.Add(time.Second)},
	}
	for _, v := range votes {
		if err := s.InsertVote(ctx, v.token, v.slug, v.at); err != nil {
			t.Fatalf("InsertVote failed: %v", err)
		}
	}

	removed, err := s.DeleteOrphanVotes(ctx, sweepStart)
	if err != nil {
		t.Fatalf("DeleteOrphanVotes failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 orphan votes removed, got %d", removed)
	}

	if n, _ := s.CountVotes(ctx, "live"); n != 1 {
		t.Errorf("expected live vote retained, got %d", n)
	}
	if n, _ := s.CountVotes(ctx, "new-palette"); n != 1 {
		t.Errorf("expected vote newer than sweep start retained, got %d", n)
	}
}

func TestReconcileVoteCounts(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()
	createTestPalette(t, s, "drifted", AnonymousOwner{})
	createTestPalette(t, s, "correct", AnonymousOwner{})

	if err := s.InsertVote(ctx, "a", "drifted", time.Now()); err != nil {
		t.Fatalf("InsertVote failed: %v", err)
	}

	fixed, err := s.ReconcileVoteCounts(ctx, time.Now())
	if err != nil {
		t.Fatalf("ReconcileVoteCounts failed: %v", err)
	}
	if fixed != 1 {
		t.Errorf("expected 1 palette reconciled, got %d", fixed)
	}
	if n, _ := s.GetVoteCount(ctx, "drifted"); n != 1 {
		t.Errorf("expected reconciled count 1, got %d", n)
	}

	fixed, err = s.ReconcileVoteCounts(ctx, time.Now())
	if err != nil {
		t.Fatalf("ReconcileVoteCounts failed: %v", err)
	}
	if fixed != 0 {
		t.Errorf("expected second reconcile to be a no-op, got %d", fixed)
	}
}

func TestProposedNameTransitions(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()

	n := &ProposedName{Name: "burnt-sienna", CSS: "#8a3324", CreatedAt: time.Now()}
	if err := s.CreateProposedName(ctx, n); err != nil {
		t.Fatalf("CreateProposedName failed: %v", err)
	}
	if n.ID <= 0 || n.Status != NameProposed {
		t.Fatalf("unexpected created name: %+v", n)
	}

	dup := &ProposedName{Name: "burnt-sienna", CSS: "#000", CreatedAt: time.Now()}
	if err := s.CreateProposedName(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	approvedAt := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := s.TransitionProposedName(ctx, n.ID, NameApproved, approvedAt); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := s.TransitionProposedName(ctx, n.ID, NameRejected, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on resolved name, got %v", err)
	}
	if err := s.TransitionProposedName(ctx, 9999, NameApproved, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on unknown id, got %v", err)
	}

	got, err := s.GetProposedName(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetProposedName failed: %v", err)
	}
	if got.Status != NameApproved || got.ApprovedAt == nil || !got.ApprovedAt.Equal(approvedAt) {
		t.Errorf("unexpected approved name: %+v", got)
	}
	if got.Contributor != "" {
		t.Errorf("expected empty contributor, got %q", got.Contributor)
	}

	rejected := &ProposedName{Name: "mud", CSS: "#443322", Contributor: "ana", CreatedAt: time.Now()}
	if err := s.CreateProposedName(ctx, rejected); err != nil {
		t.Fatalf("CreateProposedName failed: %v", err)
	}
	if err := s.TransitionProposedName(ctx, rejected.ID, NameRejected, time.Now()); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	got, _ = s.GetProposedName(ctx, rejected.ID)
	if got.ApprovedAt != nil {
		t.Errorf("rejected name must not carry an approval time")
	}
	if got.Contributor != "ana" {
		t.Errorf("expected contributor ana, got %q", got.Contributor)
	}

	approved, err := s.ListProposedNames(ctx, NameApproved)
	if err != nil {
		t.Fatalf("ListProposedNames failed: %v", err)
	}
	if len(approved) != 1 || approved[0].Name != "burnt-sienna" {
		t.Errorf("unexpected approved list: %+v", approved)
	}
}

func TestListProposedNamesSorted(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	ctx := context.Background()
	for _, name := range []string{"teal", "amber", "mauve"} {
		if err := s.CreateProposedName(ctx, &ProposedName{Name: name, CSS: name, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("CreateProposedName failed: %v", err)
		}
	}

	names, err := s.ListProposedNames(ctx, NameProposed)
	if err != nil {
		t.Fatalf("ListProposedNames failed: %v", err)
	}
	want := []string{"amber", "mauve", "teal"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i, n := range names {
		if n.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], n.Name)
		}
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	s := newTestStorage(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	_ = s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Errorf("expected Ping to fail on closed database")
	}
}

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/familyvault/familyvault/internal/share"
)

func newGrant(doc, owner, recipient string, perm share.Permission, created time.Time) *share.ShareGrant {
	return &share.ShareGrant{
		DocumentID:   doc,
		OwnerID:      owner,
		RecipientID:  recipient,
		Permission:   perm,
		Relationship: share.RelationshipOther,
		CreatedAt:    created,
		ExpiresAt:    created.Add(30 * 24 * time.Hour),
	}
}

func TestMemoryStore_InsertAndFind(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	id, err := m.Insert(ctx, newGrant("doc-1", "alice", "bob", share.PermissionView, now))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}

	g, err := m.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if g.DocumentID != "doc-1" || g.RecipientID != "bob" {
		t.Fatalf("unexpected grant: %+v", g)
	}

	if _, err := m.FindByID(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_InsertSupersedesActivePair(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	firstID, err := m.Insert(ctx, newGrant("doc-1", "alice", "bob", share.PermissionView, now))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	secondID, err := m.Insert(ctx, newGrant("doc-1", "alice", "bob", share.PermissionDownload, now.Add(time.Minute)))
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}

	first, _ := m.FindByID(ctx, firstID)
	if !first.Revoked || first.RevokedAt == nil {
		t.Fatalf("expected first grant revoked, got %+v", first)
	}
	second, _ := m.FindByID(ctx, secondID)
	if second.Revoked {
		t.Fatalf("new grant must be active")
	}

	// only the new grant is active for the pair
	active, err := m.FindActiveByRecipient(ctx, "bob", now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("active lookup: %v", err)
	}
	if len(active) != 1 || active[0].ID != secondID {
		t.Fatalf("expected one active grant %s, got %+v", secondID, active)
	}
}

func TestMemoryStore_SupersedeLeavesOtherPairsAlone(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	otherDoc, _ := m.Insert(ctx, newGrant("doc-2", "alice", "bob", share.PermissionView, now))
	otherRecipient, _ := m.Insert(ctx, newGrant("doc-1", "alice", "carol", share.PermissionView, now))
	if _, err := m.Insert(ctx, newGrant("doc-1", "alice", "bob", share.PermissionView, now.Add(time.Second))); err != nil {
		t.Fatalf("insert: %v", err)
	}

	for _, id := range []string{otherDoc, otherRecipient} {
		g, _ := m.FindByID(ctx, id)
		if g.Revoked {
			t.Fatalf("grant %s should be untouched", id)
		}
	}
}

func TestMemoryStore_FindLatestByDocumentRecipient(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if g, err := m.FindLatestByDocumentRecipient(ctx, "doc-1", "bob"); err != nil || g != nil {
		t.Fatalf("expected nil, nil for missing pair, got %v, %v", g, err)
	}

	m.Insert(ctx, newGrant("doc-1", "alice", "bob", share.PermissionView, now))
	latestID, _ := m.Insert(ctx, newGrant("doc-1", "alice", "bob", share.PermissionDownload, now.Add(time.Hour)))

	g, err := m.FindLatestByDocumentRecipient(ctx, "doc-1", "bob")
	if err != nil {
		t.Fatalf("latest lookup: %v", err)
	}
	if g == nil || g.ID != latestID {
		t.Fatalf("expected latest grant %s, got %+v", latestID, g)
	}
}

func TestMemoryStore_ListsNewestFirst(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		doc := fmt.Sprintf("doc-%d", i)
		if _, err := m.Insert(ctx, newGrant(doc, "alice", "bob", share.PermissionView, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	received, err := m.FindByRecipient(ctx, "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(received) != 3 {
		t.Fatalf("expected 3 grants, got %d", len(received))
	}
	for i := 1; i < len(received); i++ {
		if received[i].CreatedAt.After(received[i-1].CreatedAt) {
			t.Fatalf("grants not sorted newest first")
		}
	}

	sent, _ := m.FindByOwner(ctx, "alice")
	if len(sent) != 3 {
		t.Fatalf("expected 3 sent grants, got %d", len(sent))
	}
}

func TestMemoryStore_MarkRevoked(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	id, _ := m.Insert(ctx, newGrant("doc-1", "alice", "bob", share.PermissionView, now))

	if err := m.MarkRevoked(ctx, id, now.Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	g, _ := m.FindByID(ctx, id)
	if !g.Revoked || g.RevokedAt == nil {
		t.Fatalf("expected revoked grant, got %+v", g)
	}
	firstRevokedAt := *g.RevokedAt

	// idempotent: a second revoke succeeds and keeps the original timestamp
	if err := m.MarkRevoked(ctx, id, now.Add(time.Hour)); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	g, _ = m.FindByID(ctx, id)
	if !g.RevokedAt.Equal(firstRevokedAt) {
		t.Fatalf("revokedAt changed on repeat revoke")
	}

	if err := m.MarkRevoked(ctx, "missing", now); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_HasActiveByDocument(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	ok, _ := m.HasActiveByDocument(ctx, "doc-1", now)
	if ok {
		t.Fatalf("no grants yet")
	}

	id, _ := m.Insert(ctx, newGrant("doc-1", "alice", "bob", share.PermissionView, now))
	if ok, _ = m.HasActiveByDocument(ctx, "doc-1", now.Add(time.Minute)); !ok {
		t.Fatalf("expected active grant")
	}

	// past expiry
	if ok, _ = m.HasActiveByDocument(ctx, "doc-1", now.Add(31*24*time.Hour)); ok {
		t.Fatalf("expired grant must not count")
	}

	m.MarkRevoked(ctx, id, now.Add(time.Minute))
	if ok, _ = m.HasActiveByDocument(ctx, "doc-1", now.Add(2*time.Minute)); ok {
		t.Fatalf("revoked grant must not count")
	}
}

func TestMemoryStore_ConcurrentInsertKeepsOneActive(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g := newGrant("doc-1", "alice", "bob", share.PermissionView, base.Add(time.Duration(i)*time.Millisecond))
			if _, err := m.Insert(ctx, g); err != nil {
				t.Errorf("insert: %v", err)
			}
		}(i)
	}
	wg.Wait()

	active, err := m.FindActiveByRecipient(ctx, "bob", base.Add(time.Second))
	if err != nil {
		t.Fatalf("active lookup: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected exactly one active grant, got %d", len(active))
	}
}

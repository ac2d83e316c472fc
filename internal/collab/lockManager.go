package collab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/rfeModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

// Broadcaster publishes lock and presence events.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, message any) error
}

// LockManager is the advisory edit lock over drafts. It only decides who may
// submit edits through the editing surface; it does not change the atomicity
// of any underlying write. Lock state lives on the draft row itself as a
// read-modify-write, bounded by the staleness window rather than
// linearizability.
type LockManager struct {
	drafts     rfeModel.DraftStore
	events     Broadcaster
	staleAfter time.Duration
	logger     *logger_i.Logger

	mu   sync.Mutex
	held map[string]map[string]bool // user -> set of tenant/draft keys
}

func NewLockManager(drafts rfeModel.DraftStore, events Broadcaster) *LockManager {
	return &LockManager{
		drafts:     drafts,
		events:     events,
		staleAfter: config.DraftLockStaleAfter,
		logger:     logger_i.NewLogger("Lock Manager"),
		held:       make(map[string]map[string]bool),
	}
}

func lockKey(tenantId string, draftId string) string {
	return tenantId + "/" + draftId
}

// Acquire grants the lock when the draft is unlocked, already held by the
// requesting user, or the existing lock is stale. Otherwise it fails with a
// conflict naming the current holder.
func (m *LockManager) Acquire(ctx context.Context, tenantId string, draftId string, userId string) error {
	draft, ok := m.drafts.GetDraft(ctx, tenantId, draftId)
	if !ok {
		return fmt.Errorf("draft %s: %w", draftId, errs.ErrNotFound)
	}

	if draft.LockedBy != "" && draft.LockedBy != userId && time.Since(draft.LockedAt) <= m.staleAfter {
		return &errs.LockConflict{HeldBy: draft.LockedBy, LockedAt: draft.LockedAt}
	}

	previousHolder := draft.LockedBy
	draft.LockedBy = userId
	draft.LockedAt = time.Now()
	if err := m.drafts.SaveDraft(ctx, draft); err != nil {
		return err
	}

	m.mu.Lock()
	if previousHolder != "" && previousHolder != userId {
		delete(m.held[previousHolder], lockKey(tenantId, draftId))
	}
	if m.held[userId] == nil {
		m.held[userId] = make(map[string]bool)
	}
	m.held[userId][lockKey(tenantId, draftId)] = true
	m.mu.Unlock()

	m.broadcast(ctx, "draft.locked", map[string]any{
		"draft_id":  draftId,
		"locked_by": userId,
	})
	return nil
}

// Release clears the lock if userId is the holder or has admin privilege.
// Anyone else's release is a silent no-op, not an error: losing a race to
// release is harmless.
// CanEdit reports whether userId may submit edits to the draft right now.
// An unexpired lock held by anyone else blocks the edit; the conflict error
// names the holder. Holding the lock is not required to edit an unlocked or
// stale-locked draft.
func (m *LockManager) CanEdit(ctx context.Context, tenantId string, draftId string, userId string) error {
	draft, ok := m.drafts.GetDraft(ctx, tenantId, draftId)
	if !ok {
		return fmt.Errorf("draft %s: %w", draftId, errs.ErrNotFound)
	}
	if draft.LockedBy != "" && draft.LockedBy != userId && time.Since(draft.LockedAt) <= m.staleAfter {
		return &errs.LockConflict{HeldBy: draft.LockedBy, LockedAt: draft.LockedAt}
	}
	return nil
}

func (m *LockManager) Release(ctx context.Context, tenantId string, draftId string, userId string, isAdmin bool) error {
	draft, ok := m.drafts.GetDraft(ctx, tenantId, draftId)
	if !ok {
		return fmt.Errorf("draft %s: %w", draftId, errs.ErrNotFound)
	}
	if draft.LockedBy == "" {
		return nil
	}
	if draft.LockedBy != userId && !isAdmin {
		return nil
	}

	holder := draft.LockedBy
	draft.LockedBy = ""
	draft.LockedAt = time.Time{}
	if err := m.drafts.SaveDraft(ctx, draft); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.held[holder], lockKey(tenantId, draftId))
	m.mu.Unlock()

	m.broadcast(ctx, "draft.unlocked", map[string]any{
		"draft_id":    draftId,
		"released_by": userId,
	})
	return nil
}

// Unsubscribe ends a user's collaborative session, releasing every lock they
// still hold.
func (m *LockManager) Unsubscribe(ctx context.Context, tenantId string, userId string) {
	m.mu.Lock()
	var keys []string
	for key := range m.held[userId] {
		keys = append(keys, key)
	}
	m.mu.Unlock()

	prefix := tenantId + "/"
	for _, key := range keys {
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		draftId := key[len(prefix):]
		if err := m.Release(ctx, tenantId, draftId, userId, false); err != nil {
			m.logger.Warn("lock release on unsubscribe failed",
				"draftId", draftId, "userId", userId, "error", err.Error())
		}
	}

	m.broadcast(ctx, "presence.left", map[string]any{
		"user_id": userId,
	})
}

func (m *LockManager) broadcast(ctx context.Context, topic string, message any) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(ctx, topic, message); err != nil {
		m.logger.Warn("broadcast failed", "topic", topic, "error", err.Error())
	}
}

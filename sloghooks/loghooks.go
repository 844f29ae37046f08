// Package sloghooks reports squirrel.Hooks events to a *slog.Logger, with
// optional sampling of the noisy ones.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/LeoNavel/Squirrel"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery    uint64
	SetRejectedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr    atomic.Uint64
	setRejectedCtr atomic.Uint64
}

var _ squirrel.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

// redact hides session ids; storage keys embed them.
func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("squirrel.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil || !sample(h.opts.SetRejectedEvery, &h.setRejectedCtr) {
		return
	}
	h.l.Warn("squirrel.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) GenSnapshotError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("squirrel.gen_snapshot_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("squirrel.gen_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) DeleteOutage(id string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("squirrel.delete_outage",
		"id", h.redact(id),
		"bump_err", bumpErr,
		"del_err", delErr)
}

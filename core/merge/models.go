package merge

import (
	"time"

	"github.com/Kopptechy/student-pickup-live-2025/core"
)

// ClassMerge is a redirection rule: pickup events for the Source class are
// additionally delivered to the Host class's topic while the merge is active.
//
// Invariant: at most one active ClassMerge per Source at any time. A Host may
// receive merges from any number of distinct sources. Resolution is single
// hop: the host of a host is never followed.
type ClassMerge struct {
	ID        string        `json:"id"`
	Source    core.ClassKey `json:"source"`
	Host      core.ClassKey `json:"host"`
	CreatedAt time.Time     `json:"created_at"` // UTC
}

type NewMerge struct {
	Source core.ClassKey `json:"source"`
	Host   core.ClassKey `json:"host"`
}

package merge

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
)

var (
	// errors
	ErrNotFound = errors.New("merge not found")
	// ErrSourceMerged reports a merge-uniqueness conflict: the source class
	// already has an active merge. The existing merge is left untouched.
	ErrSourceMerged = errors.New("class is already merged into another class")
	// ErrSelfMerge is the degenerate conflict of a class merged into itself.
	ErrSelfMerge = errors.New("a class cannot be merged into itself")
)

type (
	Repository interface {
		// CreateMerge stores the merge. The uniqueness check and the insert
		// are a single atomic unit with respect to concurrent calls; no
		// partial state is observable. Returns ErrSourceMerged if the
		// source already has an active merge.
		CreateMerge(m ClassMerge) (ClassMerge, error)
		DeleteMerge(id string) (ClassMerge, error)
		GetMergeBySource(source core.ClassKey) (ClassMerge, error)
		MergesByHost(host core.ClassKey) ([]ClassMerge, error)
		QueryAllMerges() ([]ClassMerge, error)
		// ClearMerges atomically removes every active merge and returns
		// the removed set.
		ClearMerges() ([]ClassMerge, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create activates a merge of source into host. It fails with ErrSourceMerged
// if source already has an active merge (regardless of destination), and with
// ErrSelfMerge if source == host. On success the stored merge is returned;
// callers publish `merge_activated` to the host topic.
func (svc *Service) Create(nm NewMerge) (ClassMerge, error) {
	if nm.Source == nm.Host {
		return ClassMerge{}, ErrSelfMerge
	}
	m := ClassMerge{
		ID:        uuid.New().String(),
		Source:    nm.Source,
		Host:      nm.Host,
		CreatedAt: time.Now().UTC(),
	}
	m, err := svc.repo.CreateMerge(m)
	if err != nil {
		if err == ErrSourceMerged {
			return ClassMerge{}, err
		}
		return ClassMerge{}, errors.Wrap(err, "creating merge")
	}
	return m, nil
}

// Delete deactivates a merge. An unknown id reports ErrNotFound; per the
// contract this is a no-op for the caller, not a failure.
func (svc *Service) Delete(id string) (ClassMerge, error) {
	return svc.repo.DeleteMerge(id)
}

// HostFor returns the active host for a source class, if any.
func (svc *Service) HostFor(source core.ClassKey) (core.ClassKey, bool, error) {
	m, err := svc.repo.GetMergeBySource(source)
	if err != nil {
		if err == ErrNotFound {
			return core.ClassKey{}, false, nil
		}
		return core.ClassKey{}, false, errors.Wrap(err, "resolving merge host")
	}
	return m.Host, true, nil
}

// SourcesFor returns all classes currently merged into a host (possibly empty).
func (svc *Service) SourcesFor(host core.ClassKey) ([]ClassMerge, error) {
	return svc.repo.MergesByHost(host)
}

func (svc *Service) All() ([]ClassMerge, error) {
	return svc.repo.QueryAllMerges()
}

// ClearAll removes every active merge and returns the removed set so the
// caller can publish `merge_deactivated` for each.
func (svc *Service) ClearAll() ([]ClassMerge, error) {
	return svc.repo.ClearMerges()
}

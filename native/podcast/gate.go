package podcast

import "fmt"

// Stateless access predicates consulted before any mutation. Each raises the
// corresponding precondition failure instead of letting the mutation proceed.

// requireOwner rejects callers other than the configured platform owner.
func (e *Engine) requireOwner(caller [20]byte) error {
	if isZeroAddress(e.owner) || caller != e.owner {
		return fmt.Errorf("%w: owner only", ErrUnauthorized)
	}
	return nil
}

// requirePodcast resolves an assigned podcast id or fails with ErrNotFound.
func (e *Engine) requirePodcast(id uint64) (*Podcast, error) {
	pod, ok, err := e.state.PodcastGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || pod == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return pod, nil
}

// requireCreator rejects callers other than the podcast's creator.
func requireCreator(caller [20]byte, pod *Podcast) error {
	if pod == nil || caller != pod.Creator {
		return fmt.Errorf("%w: creator only", ErrUnauthorized)
	}
	return nil
}

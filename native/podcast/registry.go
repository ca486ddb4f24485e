package podcast

import (
	"fmt"
	"math/big"
	"strings"
)

// CreatePodcast registers a new premium content entry and emits the
// corresponding event. IDs are assigned densely starting at zero and are
// never reused. A zero price registers the podcast as free and not
// subscribable.
func (e *Engine) CreatePodcast(creator [20]byte, title, description, mediaURI string, pricePerDay *big.Int) (*Podcast, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	trimmedURI := strings.TrimSpace(mediaURI)
	if trimmedURI == "" {
		return nil, fmt.Errorf("%w: media uri required", ErrInvalidInput)
	}
	if pricePerDay != nil && pricePerDay.Sign() < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	price := big.NewInt(0)
	if pricePerDay != nil {
		price = new(big.Int).Set(pricePerDay)
	}
	next, err := e.state.PodcastCounter()
	if err != nil {
		return nil, err
	}
	pod := &Podcast{
		ID:          next,
		Creator:     creator,
		Title:       trimmedTitle,
		Description: strings.TrimSpace(description),
		MediaURI:    trimmedURI,
		PricePerDay: price,
		CreatedAt:   e.now(),
		Active:      true,
		TotalSales:  big.NewInt(0),
	}
	if err := e.state.PodcastPut(pod); err != nil {
		return nil, err
	}
	if err := e.state.PodcastSetCounter(next + 1); err != nil {
		return nil, err
	}
	ids, err := e.state.PodcastsByCreatorGet(creator)
	if err != nil {
		return nil, err
	}
	if err := e.state.PodcastsByCreatorPut(creator, append(ids, next)); err != nil {
		return nil, err
	}
	e.emit(PodcastCreatedEvent(pod.ID, hexAddr(pod.Creator), pod.Title, pod.PricePerDay))
	return pod.Clone(), nil
}

// DeactivatePodcast flips a podcast inactive. Only the creator may do so, the
// flip is irreversible, and repeating it is a silent no-op. Existing
// subscriptions keep their access until expiry; only new purchases stop.
func (e *Engine) DeactivatePodcast(caller [20]byte, id uint64) (*Podcast, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pod, err := e.requirePodcast(id)
	if err != nil {
		return nil, err
	}
	if err := requireCreator(caller, pod); err != nil {
		return nil, err
	}
	if !pod.Active {
		return pod.Clone(), nil
	}
	pod.Active = false
	if err := e.state.PodcastPut(pod); err != nil {
		return nil, err
	}
	e.emit(PodcastDeactivatedEvent(pod.ID, hexAddr(pod.Creator)))
	return pod.Clone(), nil
}

// Podcast returns the record for an assigned id without mutating state.
func (e *Engine) Podcast(id uint64) (*Podcast, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pod, err := e.requirePodcast(id)
	if err != nil {
		return nil, err
	}
	return pod.Clone(), nil
}

// PodcastsByCreator lists the ids registered by a creator, oldest first.
func (e *Engine) PodcastsByCreator(creator [20]byte) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	ids, err := e.state.PodcastsByCreatorGet(creator)
	if err != nil {
		return nil, err
	}
	return append([]uint64{}, ids...), nil
}

package moderation

import (
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/PancyStudios/ChannelGuardGo/pkg/models"
)

type linkKey struct {
	messageID string
	url       string
}

// LinkRegistry holds the authorized links posted to the watched channels.
// An entry is identified by its message and URL; adding the same pair again
// replaces the previous entry but keeps its post time and last status.
//
// Entries older than maxAge are invisible to every read even before they
// are purged, so a link is never observed past its lifetime.
type LinkRegistry struct {
	links  map[linkKey]models.TrackedLink
	now    func() time.Time
	maxAge time.Duration
	mu     sync.RWMutex
}

// NewLinkRegistry creates an empty registry using clock for ages.
// A nil clock means time.Now; a zero maxAge never hides entries.
func NewLinkRegistry(clock func() time.Time, maxAge time.Duration) *LinkRegistry {
	if clock == nil {
		clock = time.Now
	}
	return &LinkRegistry{
		links:  make(map[linkKey]models.TrackedLink),
		now:    clock,
		maxAge: maxAge,
	}
}

func (r *LinkRegistry) live(link models.TrackedLink, now time.Time) bool {
	return r.maxAge <= 0 || link.Age(now) <= r.maxAge
}

func keyOf(link models.TrackedLink) linkKey {
	return linkKey{messageID: link.MessageID, url: link.URL}
}

// Add stores the link and reports whether an entry was replaced
func (r *LinkRegistry) Add(link models.TrackedLink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := keyOf(link)
	prev, replaced := r.links[k]
	if replaced {
		link.PostedAt = prev.PostedAt
		link.LastStatus = prev.LastStatus
		link.LastCheckedAt = prev.LastCheckedAt
	}
	r.links[k] = link
	return replaced
}

// Contains reports whether the exact entry is still tracked
func (r *LinkRegistry) Contains(link models.TrackedLink) bool {
	now := r.now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.links[keyOf(link)]
	return ok && r.live(stored, now)
}

// Remove deletes one entry
func (r *LinkRegistry) Remove(link models.TrackedLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links, keyOf(link))
}

// RemoveMessage deletes every entry posted in the given message
func (r *LinkRegistry) RemoveMessage(messageID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for k := range r.links {
		if k.messageID == messageID {
			delete(r.links, k)
			removed++
		}
	}
	return removed
}

// RemoveURL deletes every entry pointing at url
func (r *LinkRegistry) RemoveURL(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for k := range r.links {
		if k.url == url {
			delete(r.links, k)
			removed++
		}
	}
	return removed
}

// UpdateStatus sets the status of every entry pointing at url and returns
// how many were updated
func (r *LinkRegistry) UpdateStatus(url string, status models.LinkStatus, checkedAt time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for k, link := range r.links {
		if k.url != url {
			continue
		}
		link.LastStatus = status
		link.LastCheckedAt = checkedAt
		r.links[k] = link
		updated++
	}
	return updated
}

// OlderThan yields the entries whose age is strictly greater than age.
// Every range over the returned sequence takes a fresh snapshot, so the
// caller may mutate the registry while iterating.
func (r *LinkRegistry) OlderThan(age time.Duration) iter.Seq[models.TrackedLink] {
	return func(yield func(models.TrackedLink) bool) {
		now := r.now()

		r.mu.RLock()
		snapshot := make([]models.TrackedLink, 0)
		for _, link := range r.links {
			if link.Age(now) > age {
				snapshot = append(snapshot, link)
			}
		}
		r.mu.RUnlock()

		sortLinks(snapshot)
		for _, link := range snapshot {
			if !yield(link) {
				return
			}
		}
	}
}

// All returns every entry ordered by post time
func (r *LinkRegistry) All() []models.TrackedLink {
	return r.ByChat("")
}

// ByChat returns the entries of a chat ordered by post time.
// An empty chatID returns all entries.
func (r *LinkRegistry) ByChat(chatID string) []models.TrackedLink {
	now := r.now()
	r.mu.RLock()
	out := make([]models.TrackedLink, 0, len(r.links))
	for _, link := range r.links {
		if chatID != "" && link.ChatID != chatID {
			continue
		}
		if !r.live(link, now) {
			continue
		}
		out = append(out, link)
	}
	r.mu.RUnlock()

	sortLinks(out)
	return out
}

// Len returns the number of tracked entries
func (r *LinkRegistry) Len() int {
	now := r.now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, link := range r.links {
		if r.live(link, now) {
			n++
		}
	}
	return n
}

func sortLinks(links []models.TrackedLink) {
	sort.Slice(links, func(i, j int) bool {
		if !links[i].PostedAt.Equal(links[j].PostedAt) {
			return links[i].PostedAt.Before(links[j].PostedAt)
		}
		if links[i].MessageID != links[j].MessageID {
			return links[i].MessageID < links[j].MessageID
		}
		return links[i].URL < links[j].URL
	})
}

package reader

import "github.com/lexread/lexread/internal/protocol"

// Lookups owns the session-scoped result caches and the in-flight set that
// suppresses duplicate concurrent requests. It is an owned component with
// the lifetime of the document session, constructed once and handed to the
// controller; all mutation happens on the UI thread.
//
// The protocol for each lookup kind: a result-cache hit is served without a
// call; a key already in flight must not trigger a second call; otherwise
// the key is marked in flight and the marker is released when the call
// completes, on success and failure alike. A key whose marker leaked would
// become permanently un-retriable, so completion always goes through End.
type Lookups struct {
	glosses      map[string]protocol.ExplainResponse
	translations map[string]string
	inflight     map[string]struct{}
}

func NewLookups() *Lookups {
	return &Lookups{
		glosses:      make(map[string]protocol.ExplainResponse),
		translations: make(map[string]string),
		inflight:     make(map[string]struct{}),
	}
}

// Gloss returns the cached gloss for key.
func (l *Lookups) Gloss(key string) (protocol.ExplainResponse, bool) {
	res, ok := l.glosses[key]
	return res, ok
}

// Translation returns the cached translation for key.
func (l *Lookups) Translation(key string) (string, bool) {
	res, ok := l.translations[key]
	return res, ok
}

// Begin marks key as in flight. It returns false when the key is already in
// flight, in which case the caller must not issue a duplicate call.
func (l *Lookups) Begin(key string) bool {
	if _, busy := l.inflight[key]; busy {
		return false
	}
	l.inflight[key] = struct{}{}
	return true
}

// End releases the in-flight marker for key regardless of outcome.
func (l *Lookups) End(key string) {
	delete(l.inflight, key)
}

// InFlight reports whether key has an outstanding request.
func (l *Lookups) InFlight(key string) bool {
	_, busy := l.inflight[key]
	return busy
}

func (l *Lookups) StoreGloss(key string, res protocol.ExplainResponse) {
	l.glosses[key] = res
}

func (l *Lookups) StoreTranslation(key, translation string) {
	l.translations[key] = translation
}

package champions

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
	"github.com/ramonehamilton/LoL-Companion/internal/storage"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

const championJSON = `{
  "type": "champion",
  "version": "%[1]s",
  "data": {
    "Ahri": {"version": "%[1]s", "id": "Ahri", "key": "103", "name": "Ahri", "title": "the Nine-Tailed Fox", "tags": ["Mage", "Assassin"]},
    "Annie": {"version": "%[1]s", "id": "Annie", "key": "1", "name": "Annie", "title": "the Dark Child", "tags": ["Mage"]},
    "LeeSin": {"version": "%[1]s", "id": "LeeSin", "key": "64", "name": "Lee Sin", "title": "the Blind Monk", "tags": ["Fighter", "Assassin"]}
  }
}`

type ddragonServer struct {
	*httptest.Server

	mu            sync.Mutex
	version       string
	championCalls int
}

func newDDragonServer(t *testing.T) *ddragonServer {
	t.Helper()

	s := &ddragonServer{version: "14.1.1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/versions.json", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, _ = fmt.Fprintf(w, `[%q, "13.24.1"]`, s.version)
	})
	mux.HandleFunc("/cdn/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		want := fmt.Sprintf("/cdn/%s/data/en_US/champion.json", s.version)
		if r.URL.Path != want {
			http.NotFound(w, r)
			return
		}
		s.championCalls++
		_, _ = fmt.Fprintf(w, championJSON, s.version)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *ddragonServer) setVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

func (s *ddragonServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.championCalls
}

func newTestCatalog(t *testing.T, server *ddragonServer) (*Catalog, fakeClock) {
	t.Helper()

	db, err := storage.Open(storage.DefaultConfig(storage.MemoryPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	source := NewDataDragon(DataDragonOptions{BaseURL: server.URL, RateLimit: rate.Inf})
	clock := clockwork.NewFakeClock()
	return NewCatalog(db, source, clock, time.Hour), clock
}

func TestCatalog_RefreshAndLookup(t *testing.T) {
	server := newDDragonServer(t)
	catalog, _ := newTestCatalog(t, server)
	ctx := context.Background()

	fetched, err := catalog.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, "14.1.1", catalog.Version(ctx))

	ahri, err := catalog.Get(ctx, 103)
	require.NoError(t, err)
	assert.Equal(t, "Ahri", ahri.Alias)
	assert.Equal(t, "the Nine-Tailed Fox", ahri.Title)
	assert.Equal(t, []string{"Mage", "Assassin"}, ahri.Tags)
	assert.Equal(t, "14.1.1", ahri.Version)

	list, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Ahri", "Annie", "Lee Sin"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, draft.ChampionID(64), list[2].ID)

	_, err = catalog.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_RefreshOnlyWhenStaleOrPatched(t *testing.T) {
	server := newDDragonServer(t)
	catalog, clock := newTestCatalog(t, server)
	ctx := context.Background()

	_, err := catalog.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, server.calls())

	fetched, err := catalog.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, fetched, "same patch within the interval is served from cache")
	assert.Equal(t, 1, server.calls())

	server.setVersion("14.2.1")
	fetched, err = catalog.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, fetched, "a new patch triggers a reload")
	assert.Equal(t, "14.2.1", catalog.Version(ctx))

	clock.Advance(2 * time.Hour)
	fetched, err = catalog.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, fetched, "an old cache is reloaded")
	assert.Equal(t, 3, server.calls())
}

func TestCatalog_KeepsCacheWhenSourceFails(t *testing.T) {
	server := newDDragonServer(t)
	catalog, clock := newTestCatalog(t, server)
	ctx := context.Background()

	_, err := catalog.Refresh(ctx)
	require.NoError(t, err)

	server.setVersion("99.1.1")
	server.Close()
	clock.Advance(2 * time.Hour)

	_, err = catalog.Refresh(ctx)
	assert.Error(t, err)

	list, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestDataDragon_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/versions.json":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	dd := NewDataDragon(DataDragonOptions{BaseURL: server.URL, RateLimit: rate.Inf})

	_, err := dd.LatestVersion(context.Background())
	assert.Error(t, err)

	_, err = dd.Champions(context.Background(), "14.1.1")
	assert.ErrorContains(t, err, "500")
}

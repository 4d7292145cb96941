// Package flow drives one operator's import session against the backend:
// fetch a preview, adjust the field mapping, then commit exactly once.
//
// A Flow owns a single session. Preview requests carry a monotonically
// increasing token so that a response arriving after a newer request has
// been issued is discarded instead of clobbering the newer state.
package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
)

var (
	// ErrPreviewSuperseded marks a preview response that lost the race
	// to a newer request. The session keeps the newer state.
	ErrPreviewSuperseded = errors.New("preview superseded by a newer request")

	// ErrCommitInFlight marks a commit attempted while another commit
	// is already running.
	ErrCommitInFlight = errors.New("commit already in flight")

	// ErrCommitDeclined marks a commit the operator backed out of.
	ErrCommitDeclined = errors.New("commit declined")
)

// Backend is the server side of the workflow.
type Backend interface {
	Preview(ctx context.Context, module string, req api.PreviewRequest) (*api.PreviewResponse, error)
	Import(ctx context.Context, module string, req api.ImportRequest) (*api.ImportResponse, error)
}

// Options configures a Flow.
type Options struct {
	Module  importer.ImportModule
	Backend Backend

	// Confirm is asked before committing, with the row count about to
	// be written. Nil confirms unconditionally.
	Confirm func(rows int) bool
}

// PreviewParams is the operator input for one preview request.
type PreviewParams struct {
	SourceURL  string
	DataPath   string
	Credential string
	Platform   string
	ShopName   string
	UseCache   bool
}

// State is a snapshot of the current session, safe to render.
type State struct {
	Mapping      importer.Mapping
	Preview      []importer.MappedRow
	SourceFields []string
	TotalRows    int
	FromCache    bool
	CacheExpires time.Time
}

// CommitResult reports a successful commit.
type CommitResult struct {
	Imported   int
	ImportDate string
}

type session struct {
	rows     []importer.RawRow
	mapping  importer.Mapping
	platform string
	shopName string

	fromCache    bool
	cacheExpires time.Time
}

// Flow is safe for concurrent use by the UI goroutines driving it.
type Flow struct {
	opts Options

	mu      sync.Mutex
	session *session

	fetchSeq   atomic.Uint64
	committing atomic.Bool
}

func New(opts Options) *Flow {
	return &Flow{opts: opts}
}

// Module returns the module this flow imports into.
func (f *Flow) Module() importer.ImportModule { return f.opts.Module }

// RequestPreview fetches a dataset and replaces the session with it.
// Concurrent requests race safely: only the newest request's response
// is applied, older ones return ErrPreviewSuperseded. A failed fetch
// leaves the existing session untouched.
func (f *Flow) RequestPreview(ctx context.Context, p PreviewParams) (*State, error) {
	if strings.TrimSpace(p.SourceURL) == "" {
		return nil, importer.Validationf("source URL is required")
	}

	token := f.fetchSeq.Add(1)

	resp, err := f.opts.Backend.Preview(ctx, f.opts.Module.Key, api.PreviewRequest{
		SourceURL:  p.SourceURL,
		DataPath:   p.DataPath,
		Credential: p.Credential,
		Platform:   p.Platform,
		ShopName:   p.ShopName,
		UseCache:   p.UseCache,
	})

	f.mu.Lock()
	defer f.mu.Unlock()

	if token != f.fetchSeq.Load() {
		return nil, ErrPreviewSuperseded
	}
	if err != nil {
		return nil, err
	}

	sess := &session{
		rows:     resp.Data,
		mapping:  importer.NormalizeDomain(f.opts.Module, resp.Mapping),
		platform: p.Platform,
		shopName: p.ShopName,
	}
	sess.fromCache = resp.FromCache
	if resp.CacheExpires != "" {
		if t, err := time.Parse(time.RFC3339, resp.CacheExpires); err == nil {
			sess.cacheExpires = t
		}
	}
	f.session = sess

	return f.stateLocked(), nil
}

// SetMapping replaces the session mapping and recomputes the preview
// locally, without refetching. Keys outside the module's canonical set
// are dropped.
func (f *Flow) SetMapping(mapping importer.Mapping) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session == nil {
		return nil, &importer.NoDataError{}
	}

	f.session.mapping = importer.NormalizeDomain(f.opts.Module, mapping)
	return f.stateLocked(), nil
}

// SetField updates a single canonical field's source assignment.
func (f *Flow) SetField(key, sourceField string) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session == nil {
		return nil, &importer.NoDataError{}
	}
	if !f.opts.Module.HasField(key) {
		return nil, importer.Validationf("unknown field %q for module %s", key, f.opts.Module.Key)
	}

	f.session.mapping[key] = sourceField
	return f.stateLocked(), nil
}

// State returns the current session snapshot, or nil before the first
// successful preview.
func (f *Flow) State() *State {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session == nil {
		return nil
	}
	return f.stateLocked()
}

// Commit writes the full session dataset under the current mapping.
// Only one commit runs at a time; a second call while one is in flight
// returns ErrCommitInFlight. A successful commit clears the session.
func (f *Flow) Commit(ctx context.Context) (*CommitResult, error) {
	if !f.committing.CompareAndSwap(false, true) {
		return nil, ErrCommitInFlight
	}
	defer f.committing.Store(false)

	f.mu.Lock()
	sess := f.session
	f.mu.Unlock()

	if sess == nil || len(sess.rows) == 0 {
		return nil, &importer.NoDataError{}
	}

	if f.opts.Confirm != nil && !f.opts.Confirm(len(sess.rows)) {
		return nil, ErrCommitDeclined
	}

	resp, err := f.opts.Backend.Import(ctx, f.opts.Module.Key, api.ImportRequest{
		Platform: sess.platform,
		ShopName: sess.shopName,
		Data:     sess.rows,
		Mapping:  sess.mapping,
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.session == sess {
		f.session = nil
	}
	f.mu.Unlock()

	return &CommitResult{Imported: resp.Imported, ImportDate: resp.ImportDate}, nil
}

// Reset drops the session and invalidates any in-flight preview.
func (f *Flow) Reset() {
	f.fetchSeq.Add(1)
	f.mu.Lock()
	f.session = nil
	f.mu.Unlock()
}

// RedirectURL is where the UI should land after a successful commit.
func (f *Flow) RedirectURL(fallback string) string {
	if f.opts.Module.RedirectPath != "" {
		return f.opts.Module.RedirectPath
	}
	return fallback
}

func (f *Flow) stateLocked() *State {
	sess := f.session
	mapping := make(importer.Mapping, len(sess.mapping))
	for k, v := range sess.mapping {
		mapping[k] = v
	}
	return &State{
		Mapping:      mapping,
		Preview:      importer.PreviewSlice(sess.rows, sess.mapping),
		SourceFields: importer.SourceFields(sess.rows),
		TotalRows:    len(sess.rows),
		FromCache:    sess.fromCache,
		CacheExpires: sess.cacheExpires,
	}
}

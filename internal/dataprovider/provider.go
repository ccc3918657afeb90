// Package dataprovider maps generic list/filter/sort/paginate/CRUD calls
// onto a PocketBase backend.
package dataprovider

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/me/pbadmin/internal/filter"
	"github.com/me/pbadmin/internal/metrics"
	"github.com/me/pbadmin/internal/record"
	"github.com/me/pbadmin/pkg/model"
)

// Backend is the record API the provider drives. *pocketbase.Client
// implements it.
type Backend interface {
	List(ctx context.Context, collection string, q model.ListQuery) (model.RecordPage, error)
	GetOne(ctx context.Context, collection, id string) (model.Record, error)
	Create(ctx context.Context, collection string, data model.Record) (model.Record, error)
	Update(ctx context.Context, collection, id string, data model.Record) (model.Record, error)
	Delete(ctx context.Context, collection, id string) error
}

// ListParams are the generic list query parameters. Zero fields take their
// defaults: page 1 of 10, sort by id ascending, no filter.
type ListParams struct {
	Pagination model.PageSpec
	Sort       model.SortSpec
	Filter     model.FilterSpec
}

// ReferenceParams lists records whose Target field equals ID.
type ReferenceParams struct {
	ListParams
	Target string
	ID     string
}

// ListResult is one page of normalized records and the backend's total.
type ListResult struct {
	Data  []model.Record `json:"data"`
	Total int            `json:"total"`
}

// Provider implements the data provider operations.
type Provider struct {
	backend    Backend
	normalizer record.Normalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithMetrics records every operation in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

// WithIdentityField names the backend field copied into "id".
func WithIdentityField(field string) Option {
	return func(p *Provider) { p.normalizer = record.Normalizer{IdentityField: field} }
}

// New creates a Provider over backend.
func New(backend Backend, opts ...Option) *Provider {
	p := &Provider{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.With("component", "dataprovider")
	return p
}

// fail logs err and wraps it in *Error.
func (p *Provider) fail(op, resource, id string, err error) error {
	p.logger.Error("operation failed", "op", op, "resource", resource, "id", id, "error", err)
	return &Error{Op: op, Resource: resource, ID: id, Err: err}
}

func (p *Provider) list(ctx context.Context, op, resource string, params ListParams, filterExpr string) (ListResult, error) {
	page := params.Pagination.WithDefaults()
	q := model.ListQuery{
		Page:    page.Page,
		PerPage: page.PerPage,
		Sort:    params.Sort.String(),
		Filter:  filterExpr,
	}
	p.logger.Debug("list", "op", op, "resource", resource, "page", q.Page, "per_page", q.PerPage, "sort", q.Sort, "filter", q.Filter)

	res, err := p.backend.List(ctx, resource, q)
	if err != nil {
		return ListResult{}, p.fail(op, resource, "", err)
	}
	return ListResult{Data: p.normalizer.NormalizeAll(res.Items), Total: res.Total}, nil
}

// GetList returns one page of resource matching params.
func (p *Provider) GetList(ctx context.Context, resource string, params ListParams) (result ListResult, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpGetList, start, err) }(time.Now())
	return p.list(ctx, OpGetList, resource, params, filter.Build(params.Filter))
}

// GetOne fetches a single record.
func (p *Provider) GetOne(ctx context.Context, resource, id string) (rec model.Record, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpGetOne, start, err) }(time.Now())

	raw, err := p.backend.GetOne(ctx, resource, id)
	if err != nil {
		return nil, p.fail(OpGetOne, resource, id, err)
	}
	return p.normalizer.Normalize(raw), nil
}

// GetMany fetches the records with the given ids in one list call. An empty
// id list returns an empty result without calling the backend.
func (p *Provider) GetMany(ctx context.Context, resource string, ids []string) (recs []model.Record, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpGetMany, start, err) }(time.Now())

	if len(ids) == 0 {
		return []model.Record{}, nil
	}
	anyIDs := make([]any, len(ids))
	for i, id := range ids {
		anyIDs[i] = id
	}

	res, err := p.backend.List(ctx, resource, model.ListQuery{
		Page:    1,
		PerPage: len(ids),
		Filter:  filter.AnyID(anyIDs),
	})
	if err != nil {
		return nil, p.fail(OpGetMany, resource, "", err)
	}
	return p.normalizer.NormalizeAll(res.Items), nil
}

// GetManyReference lists records of resource whose params.Target field
// points at params.ID, further narrowed by params.Filter.
func (p *Provider) GetManyReference(ctx context.Context, resource string, params ReferenceParams) (result ListResult, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpGetManyReference, start, err) }(time.Now())
	expr := filter.Reference(params.Target, params.ID, params.Filter)
	return p.list(ctx, OpGetManyReference, resource, params.ListParams, expr)
}

// Create inserts data and returns the stored record.
func (p *Provider) Create(ctx context.Context, resource string, data model.Record) (rec model.Record, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpCreate, start, err) }(time.Now())

	raw, err := p.backend.Create(ctx, resource, data)
	if err != nil {
		return nil, p.fail(OpCreate, resource, "", err)
	}
	return p.normalizer.Normalize(raw), nil
}

// Update applies a partial update and returns the updated record.
func (p *Provider) Update(ctx context.Context, resource, id string, data model.Record) (rec model.Record, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpUpdate, start, err) }(time.Now())

	raw, err := p.backend.Update(ctx, resource, id, data)
	if err != nil {
		return nil, p.fail(OpUpdate, resource, id, err)
	}
	return p.normalizer.Normalize(raw), nil
}

// UpdateMany applies data to every id concurrently. It succeeds only when
// every update succeeds and then returns ids unchanged. On failure some
// updates may already have been applied.
func (p *Provider) UpdateMany(ctx context.Context, resource string, ids []string, data model.Record) (out []string, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpUpdateMany, start, err) }(time.Now())

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := p.backend.Update(ctx, resource, id, data)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, p.fail(OpUpdateMany, resource, "", err)
	}
	return ids, nil
}

// Delete removes one record and returns a record holding only its id.
func (p *Provider) Delete(ctx context.Context, resource, id string) (rec model.Record, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpDelete, start, err) }(time.Now())

	if err := p.backend.Delete(ctx, resource, id); err != nil {
		return nil, p.fail(OpDelete, resource, id, err)
	}
	return model.Record{"id": id}, nil
}

// DeleteMany deletes every id concurrently with the same all-or-nothing
// reporting as UpdateMany.
func (p *Provider) DeleteMany(ctx context.Context, resource string, ids []string) (out []string, err error) {
	defer func(start time.Time) { p.metrics.Observe(OpDeleteMany, start, err) }(time.Now())

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			return p.backend.Delete(ctx, resource, id)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, p.fail(OpDeleteMany, resource, "", err)
	}
	return ids, nil
}

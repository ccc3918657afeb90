package pocketbase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/me/pbadmin/pkg/model"
)

// listResponse is the paginated envelope of the records list endpoint.
type listResponse struct {
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	TotalItems int            `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
	Items      []model.Record `json:"items"`
}

// authResponse is the body of a successful auth-with-password call.
type authResponse struct {
	Token  string       `json:"token"`
	Record model.Record `json:"record"`
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

func recordPath(collection, id string) string {
	return recordsPath(collection) + "/" + url.PathEscape(id)
}

// List fetches one page of a collection's records.
func (c *Client) List(ctx context.Context, collection string, q model.ListQuery) (model.RecordPage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		params.Set("perPage", strconv.Itoa(q.PerPage))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Filter != "" {
		params.Set("filter", q.Filter)
	}

	var resp listResponse
	if err := c.do(ctx, "list "+collection, http.MethodGet, recordsPath(collection), params, nil, &resp); err != nil {
		return model.RecordPage{}, err
	}
	return model.RecordPage{Items: resp.Items, Total: resp.TotalItems}, nil
}

// GetOne fetches a single record by id.
func (c *Client) GetOne(ctx context.Context, collection, id string) (model.Record, error) {
	var rec model.Record
	if err := c.do(ctx, "view "+collection, http.MethodGet, recordPath(collection, id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts a record and returns it as stored.
func (c *Client) Create(ctx context.Context, collection string, data model.Record) (model.Record, error) {
	var rec model.Record
	if err := c.do(ctx, "create "+collection, http.MethodPost, recordsPath(collection), nil, data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update applies a partial update and returns the updated record.
func (c *Client) Update(ctx context.Context, collection, id string, data model.Record) (model.Record, error) {
	var rec model.Record
	if err := c.do(ctx, "update "+collection, http.MethodPatch, recordPath(collection, id), nil, data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, "delete "+collection, http.MethodDelete, recordPath(collection, id), nil, nil, nil)
}

// AuthWithPassword authenticates an auth-collection record by identity
// (email or username) and password.
func (c *Client) AuthWithPassword(ctx context.Context, collection, identity, password string) (*model.Session, error) {
	op := "auth " + collection
	body := map[string]string{"identity": identity, "password": password}

	var resp authResponse
	path := "/api/collections/" + url.PathEscape(collection) + "/auth-with-password"
	if err := c.do(ctx, op, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, WrapError(op, ErrEmptyToken)
	}
	return &model.Session{Token: resp.Token, Record: resp.Record}, nil
}

// FileURL returns the download URL of a file field value of record, or ""
// when the record has no id or filename is empty.
func (c *Client) FileURL(record model.Record, filename string) string {
	id := fmt.Sprint(record.ID())
	if record.ID() == nil || id == "" || filename == "" {
		return ""
	}
	collection := record.String("collectionId")
	if collection == "" {
		collection = record.String("collectionName")
	}
	return fmt.Sprintf("%s/api/files/%s/%s/%s",
		c.config.BaseURL, url.PathEscape(collection), url.PathEscape(id), url.PathEscape(filename))
}

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
)

const defaultPageSize = 20

// listEnvelope covers the paginated shapes the backend answers with:
// {data, total, page, pageSize} and {data, meta: {total, page, limit}}.
type listEnvelope[T any] struct {
	Data     []T  `json:"data"`
	Total    *int `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	Meta     *struct {
		Total int `json:"total"`
		Page  int `json:"page"`
		Limit int `json:"limit"`
	} `json:"meta"`
}

// decodeList accepts a bare JSON array or a paginated envelope.
func decodeList[T any](body []byte, params domain.ListParams) (*domain.ListResponse[T], error) {
	page, size := normalizePaging(params)
	resp := &domain.ListResponse[T]{Data: []T{}, Page: page, PageSize: size}
	if isEmptyBody(body) {
		return resp, nil
	}

	if trimmed := bytes.TrimSpace(body); trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		if items != nil {
			resp.Data = items
		}
		resp.Total = len(items)
		return resp, nil
	}

	var env listEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Data != nil {
		resp.Data = env.Data
	}
	resp.Total = len(resp.Data)
	switch {
	case env.Meta != nil:
		resp.Total = env.Meta.Total
		if env.Meta.Page > 0 {
			resp.Page = env.Meta.Page
		}
		if env.Meta.Limit > 0 {
			resp.PageSize = env.Meta.Limit
		}
	case env.Total != nil:
		resp.Total = *env.Total
		if env.Page > 0 {
			resp.Page = env.Page
		}
		if env.PageSize > 0 {
			resp.PageSize = env.PageSize
		}
	}
	resp.HasMore = resp.Page*resp.PageSize < resp.Total
	return resp, nil
}

func normalizePaging(params domain.ListParams) (int, int) {
	page, size := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	return page, size
}

func listQuery(params domain.ListParams) url.Values {
	page, size := normalizePaging(params)
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(size))
	if params.Search != "" {
		q.Set("search", params.Search)
	}
	return q
}

// getList fetches a collection endpoint and decodes it tolerantly.
func getList[T any](ctx context.Context, c *Client, resource, path string, query url.Values, params domain.ListParams) (*domain.ListResponse[T], error) {
	var raw json.RawMessage
	if _, err := c.get(ctx, resource, path, query, &raw); err != nil {
		return nil, err
	}
	list, err := decodeList[T](raw, params)
	if err != nil {
		return nil, &domain.ErrExternalService{
			Service: serviceName + "/" + resource,
			Err:     fmt.Errorf("decode list: %w", err),
		}
	}
	return list, nil
}

func resourcePath(collection, id string) string {
	return "/" + collection + "/" + url.PathEscape(id)
}

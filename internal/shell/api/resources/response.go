// Package resources provides the JSON:API view of books and students.
package resources

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/manyminds/api2go"

	"github.com/weenix1/strive-m5-d9-aug21/internal/core/validation"
	"github.com/weenix1/strive-m5-d9-aug21/internal/shell/store"
)

// =============================================================================
// Response Helper
// =============================================================================

// Response implements api2go.Responder for custom responses.
type Response struct {
	Code int
	Res  interface{}
	Meta map[string]interface{}
}

// Metadata returns additional metadata for the response.
func (r *Response) Metadata() map[string]interface{} {
	return r.Meta
}

// Result returns the response data.
func (r *Response) Result() interface{} {
	return r.Res
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.Code
}

// =============================================================================
// Helper Functions
// =============================================================================

// listOptions reads page[size] and page[offset], or page[number] together
// with page[size].
func listOptions(req api2go.Request) store.ListOptions {
	var opts store.ListOptions
	if size := queryParam(req, "page[size]"); size != "" {
		if l, err := strconv.Atoi(size); err == nil {
			opts.Limit = l
		}
	}
	if offset := queryParam(req, "page[offset]"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	if number := queryParam(req, "page[number]"); number != "" {
		if n, err := strconv.Atoi(number); err == nil && n > 0 {
			opts.Offset = (n - 1) * opts.Limit
		}
	}
	return opts.Normalize()
}

func queryParam(req api2go.Request, key string) string {
	if values, ok := req.QueryParams[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

func listMeta(n int, opts store.ListOptions) map[string]interface{} {
	return map[string]interface{}{
		"total":  n,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	}
}

func notFound(entity, id string) (api2go.Responder, error) {
	msg := fmt.Sprintf("%s with id %s not found!", entity, id)
	return &Response{Code: http.StatusNotFound}, api2go.NewHTTPError(errors.New(msg), msg, http.StatusNotFound)
}

func invalid(errs validation.Errors) (api2go.Responder, error) {
	return &Response{Code: http.StatusBadRequest}, api2go.NewHTTPError(errs, errs.Error(), http.StatusBadRequest)
}

func badBody() (api2go.Responder, error) {
	return &Response{Code: http.StatusBadRequest}, api2go.NewHTTPError(
		fmt.Errorf("invalid request body"),
		"Invalid request body",
		http.StatusBadRequest,
	)
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return errors.Is(err, store.ErrNotFound)
}

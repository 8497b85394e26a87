package api

import (
	"net/url"
	"strconv"

	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// pageParams reads page-number pagination. Bad values fall back to the
// first page and the default size.
func pageParams(c *gin.Context, defaultLimit int) (page, limit int) {
	page = queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = queryInt(c, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// offsetParams reads limit/offset pagination.
func offsetParams(c *gin.Context, defaultLimit int) (limit, offset int) {
	limit = queryInt(c, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// pageLinks builds the next/previous links for a page-number list.
func pageLinks(c *gin.Context, page, limit int, total int64) (next, prev *string) {
	if pages := (total + int64(limit) - 1) / int64(limit); int64(page) < pages {
		next = pageURL(c, map[string]int{"page": page + 1})
	}
	if page > 1 {
		prev = pageURL(c, map[string]int{"page": page - 1})
	}
	return next, prev
}

// offsetLinks builds the next/previous links for a limit/offset list.
func offsetLinks(c *gin.Context, limit, offset int, total int64) (next, prev *string) {
	if int64(offset) < total-int64(limit) {
		next = pageURL(c, map[string]int{"limit": limit, "offset": offset + limit})
	}
	if offset > 0 {
		p := offset - limit
		if p < 0 {
			p = 0
		}
		prev = pageURL(c, map[string]int{"limit": limit, "offset": p})
	}
	return next, prev
}

// pageURL returns the current request URL with the given query values replaced.
func pageURL(c *gin.Context, set map[string]int) *string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := c.Request.URL.Query()
	for k, v := range set {
		q.Set(k, strconv.Itoa(v))
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: q.Encode(),
	}
	s := u.String()
	return &s
}

func newPage[T any](results []T, total int64, next, prev *string) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	return types.Page[T]{
		Count:    total,
		Next:     next,
		Previous: prev,
		Results:  results,
	}
}

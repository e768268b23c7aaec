package routes

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventsapi/models"
)

var errInvalidPage = errors.New("Invalid page.")

// pageParams is the page window requested by one call. It is derived per
// request from the configured default and never shared.
type pageParams struct {
	Number int
	Size   int
}

func (p pageParams) window() models.Page {
	return models.Page{Limit: p.Size, Offset: (p.Number - 1) * p.Size}
}

type pageResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// parsePage reads ?page= and ?page_size=. A bad page number is an error; a
// bad page size falls back to the default and an oversized one is capped.
func (d *deps) parsePage(c *gin.Context) (pageParams, error) {
	p := pageParams{Number: 1, Size: d.pageSize}

	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Size = min(n, d.maxPageSize)
		}
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		// the offset (n-1)*size has to fit in an int
		if err != nil || n < 1 || n-1 > math.MaxInt/p.Size {
			return p, errInvalidPage
		}
		p.Number = n
	}
	return p, nil
}

// beyond reports whether the page starts past the last of total items.
// The first page always exists, even when empty.
func (p pageParams) beyond(total int) bool {
	return p.Number > 1 && (p.Number-1)*p.Size >= total
}

// pageOf validates the window against total and builds the envelope.
func pageOf(c *gin.Context, p pageParams, total int, results any) (pageResponse, error) {
	if p.beyond(total) {
		return pageResponse{}, errInvalidPage
	}

	resp := pageResponse{Count: total, Results: results}
	if p.Number*p.Size < total {
		next := pageURL(c, p.Number+1)
		resp.Next = &next
	}
	if p.Number > 1 {
		prev := pageURL(c, p.Number-1)
		resp.Previous = &prev
	}
	return resp, nil
}

// slicePage cuts one page out of an already ordered in-memory list.
func slicePage[T any](items []T, p pageParams) []T {
	w := p.window()
	if w.Offset < 0 || w.Offset >= len(items) {
		return []T{}
	}
	return items[w.Offset:min(w.Offset+w.Limit, len(items))]
}

func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := c.Request.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

func respondInvalidPage(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": errInvalidPage.Error()})
}

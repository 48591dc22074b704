package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/services"
)

// Envelope is the paginated list response.
type Envelope struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

type pager struct {
	size int
}

// page reads the 1-based ?page= query parameter.
func (p pager) page(c *gin.Context) services.Page {
	n, err := strconv.Atoi(c.Query("page"))
	if err != nil || n < 1 {
		n = 1
	}
	return services.Page{Number: n, Size: p.size}
}

func (p pager) respond(c *gin.Context, page services.Page, total int64, results any) {
	env := Envelope{Count: total, Results: results}

	// Pages past the end link back to the last page.
	last := (total + int64(p.size) - 1) / int64(p.size)
	if last < 1 {
		last = 1
	}
	number := int64(page.Number)
	if number > last+1 {
		number = last + 1
	}

	if number < last {
		next := pageURL(c, number+1)
		env.Next = &next
	}
	if number > 1 {
		prev := pageURL(c, number-1)
		env.Previous = &prev
	}
	c.JSON(http.StatusOK, env)
}

func pageURL(c *gin.Context, n int64) string {
	u := *c.Request.URL
	q := u.Query()
	q.Set("page", strconv.FormatInt(n, 10))
	u.RawQuery = q.Encode()
	return u.RequestURI()
}

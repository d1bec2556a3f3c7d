package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	cartservice "storefront/internal/service/cart"
)

const forbiddenMessage = "you shall not pass"

func createCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Execute(c.Request.Context(), cartservice.OpCreate, cartservice.Request{})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func cartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		op, ok := cartservice.ParseOperation(c.Param("op"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": cartservice.ErrUnknownOperation.Error()})
			return
		}

		var req cartservice.Request
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
			return
		}

		out, err := svc.Execute(c.Request.Context(), op, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func discountHandler(minter DiscountMinter) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := lastSegment(c.Request.URL)
		if err != nil {
			c.JSON(http.StatusForbidden, forbiddenMessage)
			return
		}
		code, err := minter.Mint(c.Request.Context(), token)
		if errors.Is(err, domain.ErrForbidden) {
			c.JSON(http.StatusForbidden, forbiddenMessage)
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": code})
	}
}

// lastSegment decodes the final path segment from the escaped path. gin
// decodes raw path values as query strings, which turns "+" into a space.
func lastSegment(u *url.URL) (string, error) {
	p := u.EscapedPath()
	return url.PathUnescape(p[strings.LastIndex(p, "/")+1:])
}

func listProductsHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			products []domain.Product
			err      error
		)
		if id := c.Query("id"); id != "" {
			var p domain.Product
			if p, err = svc.GetByID(c.Request.Context(), id); err == nil {
				products = []domain.Product{p}
			}
		} else if collection := c.Query("collection"); collection != "" {
			products, err = svc.Collection(c.Request.Context(), collection)
		} else {
			products, err = svc.List(c.Request.Context(), c.Query("q"))
		}
		if err != nil {
			writeError(c, err)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		c.JSON(http.StatusOK, products)
	}
}

func productHandler(svc CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := svc.GetByHandle(c.Request.Context(), c.Param("handle"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// writeError maps domain errors to statuses. Anything unrecognised is a 500
// carrying the error message.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

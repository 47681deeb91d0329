// Package httpapi exposes the read-only status API: configured sources and
// the decisions recorded by recent capture cycles.
package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/snowstake/stakecam/internal/capture"
	"github.com/snowstake/stakecam/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, decisions *store.MemoryStore, sources []capture.Source) {
	v1 := app.Group("/api/v1")

	v1.Get("/sources", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sources": sources,
		})
	})

	v1.Get("/decisions/latest", func(c *fiber.Ctx) error {
		req, err := parseSourceQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		decision, err := decisions.GetLatest(req.Source)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no decisions for requested source")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch decision")
		}

		return c.JSON(decision)
	})

	v1.Get("/decisions/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		history, err := decisions.GetRange(req.Source.Source, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no decisions for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch decision history")
		}

		return c.JSON(fiber.Map{
			"source":    req.Source.Source,
			"from":      req.From,
			"to":        req.To,
			"decisions": history,
		})
	})
}

// sourceQuery holds query parameters identifying a source.
type sourceQuery struct {
	Source string `validate:"required"`
}

func parseSourceQuery(c *fiber.Ctx) (sourceQuery, error) {
	var q sourceQuery

	q.Source = c.Query("source")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Source sourceQuery
	From   time.Time `validate:"required"`
	To     time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	src, err := parseSourceQuery(c)
	if err != nil {
		return err
	}
	h.Source = src

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

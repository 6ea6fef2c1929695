package httpapi

import (
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/covid-stats-bot/internal/stats"
	"github.com/i474232898/covid-stats-bot/internal/store"
)

var validate = validator.New()

// ProbeReader exposes recorded source probe results.
type ProbeReader interface {
	LatestAll() []store.ProbeResult
	Range(source string, from, to time.Time) ([]store.ProbeResult, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *stats.Service, probes ProbeReader) {
	v1 := app.Group("/api/v1")

	v1.Get("/stats", func(c *fiber.Ctx) error {
		q := placeQuery{Place: c.Query("place")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reply := service.Handle(c.UserContext(), q.Place)
		return c.Status(replyStatus(reply.Outcome)).JSON(reply)
	})

	v1.Get("/places", func(c *fiber.Ctx) error {
		regions := service.Directory().Places()
		sort.Slice(regions, func(i, j int) bool { return regions[i].Code < regions[j].Code })

		return c.JSON(fiber.Map{
			"quickReplies": stats.QuickReplies,
			"regions":      regions,
		})
	})

	v1.Get("/sources", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sources": probes.LatestAll(),
		})
	})

	v1.Get("/sources/:name/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		results, err := probes.Range(req.Source, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no probe results for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read probe history")
		}

		return c.JSON(fiber.Map{
			"source":  req.Source,
			"from":    req.From,
			"to":      req.To,
			"results": results,
		})
	})
}

func replyStatus(o stats.Outcome) int {
	switch o {
	case stats.OutcomeNotFound:
		return fiber.StatusNotFound
	case stats.OutcomeUnavailable:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusOK
	}
}

// placeQuery holds query parameters of the stats endpoint.
type placeQuery struct {
	Place string `validate:"required"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Source string    `validate:"required"`
	From   time.Time `validate:"required"`
	To     time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Source = c.Params("name")

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

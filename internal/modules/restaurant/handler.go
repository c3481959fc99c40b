// Package restaurant answers a shared location with nearby, well rated
// restaurants: a carousel when some qualify, otherwise one random pick.
package restaurant

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"golang.org/x/sync/errgroup"

	"github.com/garyellow/whattoeat-linebot/internal/config"
	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
	"github.com/garyellow/whattoeat-linebot/internal/imagesearch"
	"github.com/garyellow/whattoeat-linebot/internal/lineutil"
	"github.com/garyellow/whattoeat-linebot/internal/logger"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
	"github.com/garyellow/whattoeat-linebot/internal/places"
)

// Module constants
const (
	ModuleName = "restaurant"

	NoNearbyText     = "附近找不到餐廳"
	NoHighRatedText  = "附近沒有評分大於四的餐廳"
	CarouselAltText  = "評分四以上餐廳"
	MapActionLabel   = "查看地圖"
	MenuActionLabel  = "查看菜單"
	MenuQuerySuffix  = "菜單"
	NoRatingText     = "無"
	NoDataText       = "沒有資料"
	OpenText         = "營業中"
	ClosedText       = "休息中"
	PlaceholderImage = "https://cdn.shopify.com/s/files/1/1285/0147/products/sign2-032a.png?v=1527227219"
)

// Search outcomes recorded in metrics.
const (
	OutcomeNoResults  = "no_results"
	OutcomeRandomPick = "random_pick"
	OutcomeCarousel   = "carousel"
	OutcomeError      = "error"
)

// NearbySearcher finds restaurants and builds their photo URLs.
// *places.Client implements it.
type NearbySearcher interface {
	SearchNearby(ctx context.Context, lat, lng float64) ([]places.Restaurant, error)
	PhotoURL(ref string) string
}

// ImageSearcher returns the first image link for a query.
// *imagesearch.Client implements it.
type ImageSearcher interface {
	SearchImage(ctx context.Context, query string) (string, error)
}

// Handler handles location messages.
type Handler struct {
	places     NearbySearcher
	images     ImageSearcher
	metrics    *metrics.Metrics
	logger     *logger.Logger
	minRating  float64
	maxColumns int
	workers    int
	intn       func(n int) int // Random index in [0, n)
}

// NewHandler creates a restaurant handler. m may be nil.
func NewHandler(
	nearby NearbySearcher,
	images ImageSearcher,
	m *metrics.Metrics,
	log *logger.Logger,
	botCfg config.BotConfig,
) *Handler {
	maxColumns := botCfg.MaxCarouselColumns
	if maxColumns <= 0 || maxColumns > lineutil.MaxCarouselColumnCount {
		maxColumns = lineutil.MaxCarouselColumnCount
	}
	return &Handler{
		places:     nearby,
		images:     images,
		metrics:    m,
		logger:     log.WithModule(ModuleName),
		minRating:  botCfg.MinRating,
		maxColumns: maxColumns,
		workers:    max(botCfg.MenuLookupWorkers, 1),
		intn:       rand.IntN,
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// FilterByRating returns the indices of restaurants whose rating is present
// and strictly greater than minRating, in their original order.
func FilterByRating(list []places.Restaurant, minRating float64) []int {
	var indices []int
	for i, r := range list {
		if r.Rating != nil && *r.Rating > minRating {
			indices = append(indices, i)
		}
	}
	return indices
}

// HandleLocation searches near (lat, lng) and builds the reply. Errors
// come only from the nearby search; menu lookups degrade to a search page.
func (h *Handler) HandleLocation(ctx context.Context, lat, lng float64) ([]messaging_api.MessageInterface, error) {
	start := time.Now()

	list, err := h.places.SearchNearby(ctx, lat, lng)
	if err != nil {
		h.record(OutcomeError, -1)
		return nil, domerrors.NewWrapper(ModuleName, "search_nearby").Wrap(err, "")
	}

	if len(list) == 0 {
		h.record(OutcomeNoResults, 0)
		return []messaging_api.MessageInterface{lineutil.NewTextMessage(NoNearbyText)}, nil
	}

	indices := FilterByRating(list, h.minRating)
	if len(indices) == 0 {
		pick := list[h.intn(len(list))]
		col := h.buildColumns(ctx, []places.Restaurant{pick})[0]
		altText := pick.Name
		if altText == "" {
			altText = NoHighRatedText
		}
		h.record(OutcomeRandomPick, len(list))
		h.logger.WithField("candidates", len(list)).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Debug("No high rated restaurant, sent random pick")
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessage(NoHighRatedText),
			lineutil.NewButtonsTemplateWithImage(altText, col.Title, col.Text, col.ThumbnailImageURL, col.Actions),
		}, nil
	}

	if len(indices) > h.maxColumns {
		indices = indices[:h.maxColumns]
	}
	selected := make([]places.Restaurant, len(indices))
	for i, idx := range indices {
		selected[i] = list[idx]
	}

	columns := h.buildColumns(ctx, selected)
	h.record(OutcomeCarousel, len(list))
	h.logger.WithField("candidates", len(list)).
		WithField("columns", len(columns)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("Built restaurant carousel")

	return []messaging_api.MessageInterface{
		lineutil.NewCarouselTemplate(CarouselAltText, columns),
	}, nil
}

// buildColumns looks up menu links concurrently. Results are written by
// index so column order matches restaurants.
func (h *Handler) buildColumns(ctx context.Context, restaurants []places.Restaurant) []lineutil.CarouselColumn {
	menuLinks := make([]string, len(restaurants))

	var g errgroup.Group
	g.SetLimit(h.workers)
	for i, r := range restaurants {
		g.Go(func() error {
			menuLinks[i] = h.menuLink(ctx, r.Name)
			return nil
		})
	}
	_ = g.Wait()

	columns := make([]lineutil.CarouselColumn, len(restaurants))
	for i, r := range restaurants {
		columns[i] = lineutil.CarouselColumn{
			ThumbnailImageURL: h.thumbnail(r),
			Title:             r.Name,
			Text:              Details(r),
			Actions: []lineutil.Action{
				lineutil.NewURIAction(MapActionLabel, places.MapURL(r)),
				lineutil.NewURIAction(MenuActionLabel, menuLinks[i]),
			},
		}
	}
	return columns
}

func (h *Handler) menuLink(ctx context.Context, name string) string {
	query := name + MenuQuerySuffix
	link, err := h.images.SearchImage(ctx, query)
	if err == nil && usableURI(link) {
		return link
	}

	log := h.logger.WithField("query", query)
	switch {
	case err != nil && !errors.Is(err, domerrors.ErrNoResults):
		log.WithError(err).Warn("Menu image search failed, using search page")
	case err == nil && link != "":
		log.WithField("link_len", len(link)).Debug("Menu image link unusable, using search page")
	default:
		log.Debug("No menu image found, using search page")
	}
	return imagesearch.SearchPageURL(query)
}

// usableURI reports whether LINE accepts link as a URI action target.
func usableURI(link string) bool {
	if link == "" || len(link) > lineutil.MaxURILength {
		return false
	}
	return strings.HasPrefix(link, "https://") || strings.HasPrefix(link, "http://")
}

func (h *Handler) thumbnail(r places.Restaurant) string {
	if len(r.PhotoReferences) == 0 {
		return PlaceholderImage
	}
	return h.places.PhotoURL(r.PhotoReferences[0])
}

// Details renders the card body: rating, address and open-now status, with
// placeholders for missing fields.
func Details(r places.Restaurant) string {
	rating := NoRatingText
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
	}
	address := NoDataText
	if r.Vicinity != nil {
		address = *r.Vicinity
	}
	opening := NoDataText
	if r.OpenNow != nil {
		if *r.OpenNow {
			opening = OpenText
		} else {
			opening = ClosedText
		}
	}
	return fmt.Sprintf("評分：%s\n地址：%s\n現在營業：%s", rating, address, opening)
}

func (h *Handler) record(outcome string, candidates int) {
	if h.metrics != nil {
		h.metrics.RecordRestaurantSearch(outcome, candidates)
	}
}

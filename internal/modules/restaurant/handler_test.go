package restaurant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/whattoeat-linebot/internal/config"
	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
	"github.com/garyellow/whattoeat-linebot/internal/lineutil"
	"github.com/garyellow/whattoeat-linebot/internal/logger"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
	"github.com/garyellow/whattoeat-linebot/internal/places"
)

type fakePlaces struct {
	results []places.Restaurant
	err     error
}

func (f *fakePlaces) SearchNearby(context.Context, float64, float64) ([]places.Restaurant, error) {
	return f.results, f.err
}

func (f *fakePlaces) PhotoURL(ref string) string {
	return "https://photo/" + ref
}

type fakeImages struct {
	mu      sync.Mutex
	queries []string
	links   map[string]string
	err     error
	delay   func(query string) time.Duration
}

func (f *fakeImages) SearchImage(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(query)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if link, ok := f.links[query]; ok {
		return link, nil
	}
	return "", domerrors.ErrNoResults
}

func rating(v float64) *float64 { return &v }
func str(s string) *string      { return &s }
func boolPtr(b bool) *bool      { return &b }

func restaurant(name string, r *float64) places.Restaurant {
	return places.Restaurant{PlaceID: "id-" + name, Name: name, Rating: r, Lat: 25.04, Lng: 121.5}
}

func testBotConfig() config.BotConfig {
	return config.BotConfig{
		WebhookTimeout:      time.Second,
		MaxMessagesPerReply: 5,
		MaxEventsPerWebhook: 100,
		MaxCarouselColumns:  10,
		MinRating:           3.9,
		MenuLookupWorkers:   3,
	}
}

func setupTestHandler(t *testing.T, p *fakePlaces, img *fakeImages) (*Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	log := logger.NewWithWriter("error", io.Discard)
	if img == nil {
		img = &fakeImages{}
	}
	return NewHandler(p, img, m, log, testBotConfig()), m
}

func carouselColumns(t *testing.T, msg messaging_api.MessageInterface) []messaging_api.CarouselColumn {
	t.Helper()
	tmpl, ok := msg.(*messaging_api.TemplateMessage)
	require.True(t, ok, "got %T, want *TemplateMessage", msg)
	assert.Equal(t, "評分四以上餐廳", tmpl.AltText)
	carousel, ok := tmpl.Template.(*messaging_api.CarouselTemplate)
	require.True(t, ok, "got %T, want *CarouselTemplate", tmpl.Template)
	return carousel.Columns
}

func uri(t *testing.T, a messaging_api.ActionInterface) string {
	t.Helper()
	action, ok := a.(*messaging_api.UriAction)
	require.True(t, ok)
	return action.Uri
}

func TestFilterByRating(t *testing.T) {
	t.Parallel()

	list := []places.Restaurant{
		restaurant("a", rating(4.5)),
		restaurant("b", rating(3.0)),
		restaurant("c", nil),
		restaurant("d", rating(3.9)),
		restaurant("e", rating(4.2)),
		restaurant("f", rating(3.91)),
	}

	assert.Equal(t, []int{0, 4, 5}, FilterByRating(list, 3.9))
	assert.Empty(t, FilterByRating(nil, 3.9))
	assert.Empty(t, FilterByRating([]places.Restaurant{restaurant("x", nil)}, 0))
}

func TestHandleLocation_CarouselKeepsOrder(t *testing.T) {
	t.Parallel()

	p := &fakePlaces{results: []places.Restaurant{
		restaurant("A", rating(4.5)),
		restaurant("B", rating(3.0)),
		restaurant("C", rating(4.2)),
	}}
	// Reverse the completion order to show columns do not follow it.
	img := &fakeImages{
		links: map[string]string{"A菜單": "https://img/a", "C菜單": "https://img/c"},
		delay: func(q string) time.Duration {
			if q == "A菜單" {
				return 30 * time.Millisecond
			}
			return 0
		},
	}
	h, m := setupTestHandler(t, p, img)

	msgs, err := h.HandleLocation(context.Background(), 25.04, 121.5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	cols := carouselColumns(t, msgs[0])
	require.Len(t, cols, 2)
	assert.Equal(t, "A", cols[0].Title)
	assert.Equal(t, "C", cols[1].Title)
	assert.Equal(t, "https://img/a", uri(t, cols[0].Actions[1]))
	assert.Equal(t, "https://img/c", uri(t, cols[1].Actions[1]))
	assert.Contains(t, uri(t, cols[0].Actions[0]), "query_place_id=id-A")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RestaurantSearchesTotal.WithLabelValues(OutcomeCarousel)))
}

func TestHandleLocation_CapsAtTenColumns(t *testing.T) {
	t.Parallel()

	var list []places.Restaurant
	for i := range 15 {
		list = append(list, restaurant(fmt.Sprintf("R%02d", i), rating(4.0+float64(i)/100)))
	}
	h, _ := setupTestHandler(t, &fakePlaces{results: list}, nil)

	msgs, err := h.HandleLocation(context.Background(), 25.04, 121.5)
	require.NoError(t, err)

	cols := carouselColumns(t, msgs[0])
	require.Len(t, cols, 10)
	for i, col := range cols {
		assert.Equal(t, fmt.Sprintf("R%02d", i), col.Title)
		assert.Len(t, col.Actions, 2)
	}
}

func TestHandleLocation_RandomPickWhenNoneQualify(t *testing.T) {
	t.Parallel()

	p := &fakePlaces{results: []places.Restaurant{
		restaurant("Low", rating(3.2)),
		restaurant("NoRating", nil),
		restaurant("Mid", rating(3.9)),
	}}
	h, m := setupTestHandler(t, p, &fakeImages{links: map[string]string{"NoRating菜單": "https://img/n"}})
	h.intn = func(n int) int {
		assert.Equal(t, 3, n, "pick is drawn from the unfiltered list")
		return 1
	}

	msgs, err := h.HandleLocation(context.Background(), 25.04, 121.5)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	text, ok := msgs[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "附近沒有評分大於四的餐廳", text.Text)

	tmpl, ok := msgs[1].(*messaging_api.TemplateMessage)
	require.True(t, ok)
	assert.Equal(t, "NoRating", tmpl.AltText)
	buttons, ok := tmpl.Template.(*messaging_api.ButtonsTemplate)
	require.True(t, ok)
	assert.Equal(t, "NoRating", buttons.Title)
	assert.Equal(t, PlaceholderImage, buttons.ThumbnailImageUrl)
	require.Len(t, buttons.Actions, 2)
	assert.Equal(t, "https://img/n", uri(t, buttons.Actions[1]))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RestaurantSearchesTotal.WithLabelValues(OutcomeRandomPick)))
}

func TestHandleLocation_NoResults(t *testing.T) {
	t.Parallel()

	h, m := setupTestHandler(t, &fakePlaces{results: []places.Restaurant{}}, nil)

	msgs, err := h.HandleLocation(context.Background(), 25.04, 121.5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	text, ok := msgs[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "附近找不到餐廳", text.Text)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RestaurantSearchesTotal.WithLabelValues(OutcomeNoResults)))
}

func TestHandleLocation_PlacesError(t *testing.T) {
	t.Parallel()

	upstream := domerrors.NewAPIError("places", "/nearbysearch/json", 503, errors.New("unavailable"))
	h, m := setupTestHandler(t, &fakePlaces{err: upstream}, nil)

	msgs, err := h.HandleLocation(context.Background(), 25.04, 121.5)
	require.Error(t, err)
	assert.Nil(t, msgs)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RestaurantSearchesTotal.WithLabelValues(OutcomeError)))
}

func TestHandleLocation_MenuFallbackToSearchPage(t *testing.T) {
	t.Parallel()

	p := &fakePlaces{results: []places.Restaurant{
		restaurant("老王麵店", rating(4.6)),
		restaurant("小李飯館", rating(4.1)),
	}}
	img := &fakeImages{err: errors.New("quota")}
	h, _ := setupTestHandler(t, p, img)

	msgs, err := h.HandleLocation(context.Background(), 25.04, 121.5)
	require.NoError(t, err)

	cols := carouselColumns(t, msgs[0])
	require.Len(t, cols, 2)
	for _, col := range cols {
		link := uri(t, col.Actions[1])
		assert.True(t, strings.HasPrefix(link, "https://www.google.com/search?"), link)
		assert.Contains(t, link, "tbm=isch")
	}
	assert.ElementsMatch(t, []string{"老王麵店菜單", "小李飯館菜單"}, img.queries)
}

func TestHandleLocation_RandomPickWithoutName(t *testing.T) {
	t.Parallel()

	p := &fakePlaces{results: []places.Restaurant{restaurant("", rating(2.5))}}
	h, _ := setupTestHandler(t, p, nil)
	h.intn = func(int) int { return 0 }

	msgs, err := h.HandleLocation(context.Background(), 25.04, 121.5)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	tmpl, ok := msgs[1].(*messaging_api.TemplateMessage)
	require.True(t, ok)
	assert.Equal(t, NoHighRatedText, tmpl.AltText)
}

func TestHandleLocation_UnusableMenuLink(t *testing.T) {
	t.Parallel()

	long := "https://img.example.com/" + strings.Repeat("a", 1488)
	require.Len(t, long, 1512)
	p := &fakePlaces{results: []places.Restaurant{
		restaurant("A", rating(4.5)),
		restaurant("B", rating(4.4)),
		restaurant("C", rating(4.3)),
	}}
	img := &fakeImages{links: map[string]string{
		"A菜單": long,
		"B菜單": "javascript:alert(1)",
		"C菜單": "https://img/c",
	}}
	h, _ := setupTestHandler(t, p, img)

	msgs, err := h.HandleLocation(context.Background(), 25.04, 121.5)
	require.NoError(t, err)

	cols := carouselColumns(t, msgs[0])
	require.Len(t, cols, 3)
	for _, col := range cols[:2] {
		link := uri(t, col.Actions[1])
		assert.LessOrEqual(t, len(link), lineutil.MaxURILength)
		assert.True(t, strings.HasPrefix(link, "https://www.google.com/search?"), link)
	}
	assert.Equal(t, "https://img/c", uri(t, cols[2].Actions[1]))
}

func TestUsableURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		link string
		want bool
	}{
		{"https://img/a.jpg", true},
		{"http://img/a.jpg", true},
		{"", false},
		{"ftp://img/a.jpg", false},
		{"img/a.jpg", false},
		{"https://" + strings.Repeat("x", lineutil.MaxURILength-8), true},
		{"https://" + strings.Repeat("x", lineutil.MaxURILength-7), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, usableURI(tt.link), "len=%d", len(tt.link))
	}
}

func TestDetails(t *testing.T) {
	t.Parallel()

	full := places.Restaurant{
		Name:     "A",
		Rating:   rating(4.5),
		Vicinity: str("新北市三峽區大學路151號"),
		OpenNow:  boolPtr(true),
	}
	assert.Equal(t, "評分：4.5\n地址：新北市三峽區大學路151號\n現在營業：營業中", Details(full))

	closed := places.Restaurant{Rating: rating(4), OpenNow: boolPtr(false)}
	assert.Equal(t, "評分：4\n地址：沒有資料\n現在營業：休息中", Details(closed))

	assert.Equal(t, "評分：無\n地址：沒有資料\n現在營業：沒有資料", Details(places.Restaurant{}))
}

func TestThumbnail(t *testing.T) {
	t.Parallel()

	h, _ := setupTestHandler(t, &fakePlaces{}, nil)
	assert.Equal(t, PlaceholderImage, h.thumbnail(places.Restaurant{}))
	assert.Equal(t, "https://photo/ref1", h.thumbnail(places.Restaurant{PhotoReferences: []string{"ref1", "ref2"}}))
}

package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/realtime-auction/internal/auction"
	"github.com/iliyamo/realtime-auction/internal/bidcache"
	"github.com/iliyamo/realtime-auction/internal/config"
	"github.com/iliyamo/realtime-auction/internal/handler"
	"github.com/iliyamo/realtime-auction/internal/middleware"
	"github.com/iliyamo/realtime-auction/internal/model"
	"github.com/iliyamo/realtime-auction/internal/repository"
	"github.com/iliyamo/realtime-auction/internal/router"
	"github.com/iliyamo/realtime-auction/internal/utils"
)

const secret = "test-secret"

type roomEvent struct {
	room, event string
	payload     any
}

type roomLog struct{ events []roomEvent }

func (r *roomLog) EmitToAuction(auctionID, event string, payload any) {
	r.events = append(r.events, roomEvent{auctionID, event, payload})
}
func (r *roomLog) EmitGlobal(string, any) {}

type api struct {
	t      *testing.T
	e      *echo.Echo
	store  *repository.MemoryStore
	events *roomLog
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := repository.NewMemoryStore()
	for _, id := range []string{"seller", "alice", "bob"} {
		store.AddUser(model.User{ID: id, Username: id})
	}
	events := &roomLog{}
	cache := bidcache.New(bidcache.NewMemoryBackend(nil), store, 0)
	engine := auction.NewEngine(store, auction.NewLifecycle(store, nil), cache, nil)

	e := echo.New()
	router.RegisterAuctions(e, handler.NewAuctionHandler(engine), secret)
	router.RegisterBids(e, handler.NewBidHandler(engine, events), secret,
		middleware.NewTokenBucket(config.RateLimitConfig{}, nil))
	return &api{t: t, e: e, store: store, events: events}
}

func (a *api) do(method, path, user, body string) (int, map[string]any) {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		tok, err := utils.NewAccessToken(secret, user, user, 15)
		require.NoError(a.t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (a *api) createAuction(price string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/v1/auction", "seller",
		`{"name":"Brass lamp","description":"Desk lamp","startingPrice":`+price+`,"duration":60}`)
	require.Equal(a.t, http.StatusCreated, code, body)
	return body["auction"].(map[string]any)["id"].(string)
}

func amountOf(t *testing.T, v any) string {
	t.Helper()
	d, err := decimal.NewFromString(strings.Trim(mustJSON(t, v), `"`))
	require.NoError(t, err)
	return d.StringFixed(2)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestPlaceBid(t *testing.T) {
	a := newAPI(t)
	id := a.createAuction("100")

	code, body := a.do(http.MethodPost, "/api/v1/bid", "alice", `{"auctionId":"`+id+`","amount":120.5}`)
	require.Equal(t, http.StatusCreated, code, body)
	require.Equal(t, "Bid placed successfully", body["message"])
	require.Equal(t, "120.50", amountOf(t, body["currentPrice"]))
	require.Equal(t, "100.00", amountOf(t, body["previousPrice"]))
	require.EqualValues(t, 1, body["bidCount"])

	code, body = a.do(http.MethodPost, "/api/v1/bid", "bob", `{"auctionId":"`+id+`","amount":"120.50"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, body["error"], "120.50")

	require.Len(t, a.events.events, 1)
	ev := a.events.events[0]
	require.Equal(t, id, ev.room)
	require.Equal(t, auction.EventBidError, ev.event)
}

func TestPlaceBid_Errors(t *testing.T) {
	a := newAPI(t)
	id := a.createAuction("100")

	tests := []struct {
		name string
		user string
		body string
		code int
	}{
		{"no token", "", `{"auctionId":"` + id + `","amount":150}`, http.StatusUnauthorized},
		{"malformed body", "alice", `{"auctionId":`, http.StatusBadRequest},
		{"missing auction id", "alice", `{"amount":150}`, http.StatusBadRequest},
		{"non-positive amount", "alice", `{"auctionId":"` + id + `","amount":0}`, http.StatusBadRequest},
		{"unknown auction", "alice", `{"auctionId":"nope","amount":150}`, http.StatusBadRequest},
		{"own auction", "seller", `{"auctionId":"` + id + `","amount":150}`, http.StatusBadRequest},
		{"at starting price", "alice", `{"auctionId":"` + id + `","amount":100}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := a.do(http.MethodPost, "/api/v1/bid", tc.user, tc.body)
			require.Equal(t, tc.code, code, body)
			require.NotEmpty(t, body["error"])
		})
	}
}

func TestAcceptAndReject(t *testing.T) {
	a := newAPI(t)
	id := a.createAuction("100")

	_, first := a.do(http.MethodPost, "/api/v1/bid", "alice", `{"auctionId":"`+id+`","amount":110}`)
	time.Sleep(2 * time.Millisecond)
	_, second := a.do(http.MethodPost, "/api/v1/bid", "bob", `{"auctionId":"`+id+`","amount":130}`)
	firstID := first["bid"].(map[string]any)["id"].(string)
	secondID := second["bid"].(map[string]any)["id"].(string)

	code, body := a.do(http.MethodPut, "/api/v1/bid/reject/"+secondID, "alice", "")
	require.Equal(t, http.StatusForbidden, code, body)

	code, body = a.do(http.MethodPut, "/api/v1/bid/reject/missing", "seller", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "bid not found", body["error"])

	code, body = a.do(http.MethodPut, "/api/v1/bid/reject/"+secondID, "seller", "")
	require.Equal(t, http.StatusOK, code, body)
	require.Equal(t, "Bid rejected", body["message"])
	next := body["newHighestBid"].(map[string]any)
	require.Equal(t, "110.00", amountOf(t, next["amount"]))

	code, _ = a.do(http.MethodPut, "/api/v1/bid/reject/"+secondID, "seller", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(http.MethodPut, "/api/v1/bid/accept/"+firstID, "seller", "")
	require.Equal(t, http.StatusOK, code, body)
	require.Equal(t, true, body["auctionEnded"])

	code, body = a.do(http.MethodGet, "/api/v1/auction/"+id, "", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(model.AuctionClosed), body["auction"].(map[string]any)["status"])

	code, _ = a.do(http.MethodPost, "/api/v1/bid", "bob", `{"auctionId":"`+id+`","amount":500}`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestListBids(t *testing.T) {
	a := newAPI(t)
	id := a.createAuction("100")
	a.do(http.MethodPost, "/api/v1/bid", "alice", `{"auctionId":"`+id+`","amount":110}`)
	time.Sleep(2 * time.Millisecond)
	a.do(http.MethodPost, "/api/v1/bid", "bob", `{"auctionId":"`+id+`","amount":140}`)

	code, body := a.do(http.MethodGet, "/api/v1/bid?auctionId="+id, "alice", "")
	require.Equal(t, http.StatusOK, code, body)
	require.EqualValues(t, 2, body["totalBids"])
	require.Equal(t, "140.00", amountOf(t, body["currentHighestBid"]))

	_, body = a.do(http.MethodGet, "/api/v1/bid?scope=placed", "alice", "")
	require.EqualValues(t, 1, body["totalBids"])

	_, body = a.do(http.MethodGet, "/api/v1/bid", "seller", "")
	require.EqualValues(t, 2, body["totalBids"])
	counts := body["statusCounts"].(map[string]any)
	require.EqualValues(t, 2, counts["pending"])
	require.EqualValues(t, 0, counts["accepted"])
}

func TestAuctionRoutes(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do(http.MethodPost, "/api/v1/auction", "", `{"name":"x"}`)
	require.Equal(t, http.StatusUnauthorized, code)

	code, body := a.do(http.MethodPost, "/api/v1/auction", "seller", `{"name":"x","description":"y","startingPrice":-1,"duration":5}`)
	require.Equal(t, http.StatusBadRequest, code, body)

	id := a.createAuction("25")
	code, body = a.do(http.MethodGet, "/api/v1/auction/all", "", "")
	require.Equal(t, http.StatusOK, code)
	list := body["auctions"].([]any)
	require.Len(t, list, 1)
	got := list[0].(map[string]any)
	require.Equal(t, id, got["id"])
	require.Equal(t, "25.00", amountOf(t, got["currentPrice"]))
	require.Equal(t, "seller", got["seller"].(map[string]any)["username"])

	code, body = a.do(http.MethodGet, "/api/v1/auction/nope", "", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "auction not found", body["error"])
}

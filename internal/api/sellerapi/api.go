// Package sellerapi — REST-слой дашборда продавца. Все маршруты работают
// в контексте пользователя из заголовка X-User-Id.
package sellerapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/gateway"
	"github.com/WishfulLabs/SellerBox/internal/models"
	"github.com/WishfulLabs/SellerBox/internal/orders"
	"github.com/WishfulLabs/SellerBox/internal/packages"
	"github.com/WishfulLabs/SellerBox/internal/pickups"
	"github.com/WishfulLabs/SellerBox/internal/storefront"
)

const userIDHeader = "X-User-Id"

// CommandLog — read-сторона audit trail, опциональна.
type CommandLog interface {
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]models.CommandRecord, error)
}

type API struct {
	orders     *orders.Service
	packages   *packages.Service
	pickups    *pickups.Service
	storefront *storefront.Service
	commands   CommandLog
}

func New(ordersSvc *orders.Service, packagesSvc *packages.Service, pickupsSvc *pickups.Service, storefrontSvc *storefront.Service, commands CommandLog) *API {
	return &API{
		orders:     ordersSvc,
		packages:   packagesSvc,
		pickups:    pickupsSvc,
		storefront: storefrontSvc,
		commands:   commands,
	}
}

// Router собирает маршруты API (без служебных /healthz и swagger — они
// висят на внешнем роутере бинаря).
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.requireUser)

	r.Get("/orders", a.listOrders)
	r.Get("/orders/stats", a.orderStats)
	r.Get("/orders/{orderID}", a.getOrder)

	r.Get("/packages", a.listPackages)
	r.Get("/packages/stats", a.packageStats)
	r.Get("/packages/{packageID}", a.getPackage)
	r.Post("/packages/{packageID}/ship", a.shipPackage)
	r.Post("/packages/refresh", a.refreshPackages)

	r.Get("/pickups", a.listPickups)
	r.Post("/pickups", a.schedulePickup)
	r.Get("/pickups/{pickupID}", a.getPickup)

	r.Get("/connections", a.listConnections)
	r.Post("/connections/exchange", a.exchangeAuthCode)
	r.Post("/connections/{connectionID}/disconnect", a.disconnect)
	r.Post("/shipping-provider", a.updateShippingProvider)

	r.Get("/commands", a.listCommands)

	return r
}

type ctxKey int

const userIDKey ctxKey = 0

func (a *API) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "X-User-Id header is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userID(r *http.Request) string {
	s, _ := r.Context().Value(userIDKey).(string)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError переводит ошибку сервиса в HTTP-статус. Всё, что не
// классифицировано, считается отказом удалённой платформы.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, pickups.ErrPickupNotFound),
		errors.Is(err, gateway.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, packages.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, storefront.ErrStateMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("upstream failure", "error", err.Error())
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func queryInt(r *http.Request, name string, def int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	var (
		out []*models.Order
		err error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		out, err = a.orders.Search(r.Context(), uid, q)
	} else {
		out, err = a.orders.ListOrders(r.Context(), uid)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (a *API) orderStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.orders.Statistics(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.orders.GetOrder(r.Context(), userID(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) listPackages(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if q := r.URL.Query().Get("q"); q != "" {
		found, err := a.packages.Search(r.Context(), uid, q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": found})
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 0)
	res, err := a.packages.ListPackages(r.Context(), uid, page, pageSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) packageStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.packages.Statistics(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) getPackage(w http.ResponseWriter, r *http.Request) {
	d, err := a.packages.GetPackage(r.Context(), chi.URLParam(r, "packageID"), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) shipPackage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID   string         `json:"orderId"`
		Recipient map[string]any `json:"recipient"`
		Address   string         `json:"address"`
		ShopID    string         `json:"shopId"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	order, err := a.packages.Ship(r.Context(), models.ShipRequest{
		PackageID: chi.URLParam(r, "packageID"),
		UserID:    userID(r),
		OrderID:   body.OrderID,
		Recipient: body.Recipient,
		Address:   body.Address,
		ShopID:    body.ShopID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) refreshPackages(w http.ResponseWriter, r *http.Request) {
	a.packages.Refresh(userID(r))
	writeJSON(w, http.StatusOK, map[string]bool{"refreshed": true})
}

func (a *API) listPickups(w http.ResponseWriter, r *http.Request) {
	res, err := a.pickups.List(r.Context(), userID(r), queryInt(r, "page", 1), queryInt(r, "perPage", 10))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) getPickup(w http.ResponseWriter, r *http.Request) {
	p, err := a.pickups.Get(r.Context(), chi.URLParam(r, "pickupID"), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) schedulePickup(w http.ResponseWriter, r *http.Request) {
	var body models.PickupRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.PickupDate == "" {
		writeError(w, http.StatusBadRequest, "pickupDate is required")
		return
	}
	body.UserID = userID(r)

	conf, err := a.pickups.Schedule(r.Context(), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

func (a *API) listConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := a.storefront.ListConnections(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

func (a *API) exchangeAuthCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AuthCode   string `json:"authCode"`
		State      string `json:"state"`
		SavedState string `json:"savedState"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.AuthCode == "" {
		writeError(w, http.StatusBadRequest, "authCode is required")
		return
	}

	out, err := a.storefront.ExchangeAuthCode(r.Context(), userID(r), body.AuthCode, body.State, body.SavedState)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := a.storefront.Disconnect(r.Context(), userID(r), chi.URLParam(r, "connectionID")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
}

func (a *API) updateShippingProvider(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProviderID string `json:"providerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "providerId is required")
		return
	}

	out, err := a.storefront.UpdateShippingProvider(r.Context(), userID(r), body.ProviderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) listCommands(w http.ResponseWriter, r *http.Request) {
	if a.commands == nil {
		writeJSON(w, http.StatusOK, map[string]any{"commands": []models.CommandRecord{}})
		return
	}
	recs, err := a.commands.ListRecentByUser(r.Context(), userID(r), queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": recs})
}

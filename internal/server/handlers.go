package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/canteen"
)

const dateLayout = "2006-01-02"

func (s *Server) parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, raw, s.loc)
}

// respondServiceError maps the domain error taxonomy onto HTTP statuses. A
// capacity rejection carries max_allowed so the client can retry with a
// valid quantity; not-found never reveals whether the order exists for
// another tenant.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *canteen.ValidationError
	var capacityErr *canteen.CapacityError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.As(err, &capacityErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":       capacityErr.Error(),
			"max_allowed": capacityErr.Max,
		})
	case errors.Is(err, canteen.ErrWindowClosed):
		respondError(w, http.StatusBadRequest, canteen.ErrWindowClosed.Error())
	case errors.Is(err, canteen.ErrNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	default:
		s.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "Missing 'date' parameter")
		return
	}
	day, err := s.parseDate(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	availability, err := s.svc.Availability(r.Context(), day)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":      availability.Day.Format(dateLayout),
		"quota":     availability.Quota,
		"ordered":   availability.Ordered,
		"remaining": availability.Remaining,
	})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date     string `json:"date"`
		Quantity int    `json:"quantity"`
		Zone     string `json:"zone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Date == "" {
		respondError(w, http.StatusBadRequest, "Missing 'date' field")
		return
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	order, err := s.svc.PlaceOrder(r.Context(), tenantFrom(r.Context()), day, req.Quantity, req.Zone)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":       order.ID,
		"date":     order.DeliveryDay.Format(dateLayout),
		"quantity": order.Quantity,
		"status":   order.Status,
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.svc.ListOrders(r.Context(), tenantFrom(r.Context()))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.svc.ModifyOrder(r.Context(), tenantFrom(r.Context()), id, req.Quantity)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":       order.ID,
		"quantity": order.Quantity,
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Penalty string `json:"penalty"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	order, err := s.svc.CancelOrder(r.Context(), tenantFrom(r.Context()), id, req.Penalty)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":     order.ID,
		"status": order.Status,
	})
}

func (s *Server) handleListQuotas(w http.ResponseWriter, r *http.Request) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw == "" || toRaw == "" {
		respondError(w, http.StatusBadRequest, "Missing 'from' or 'to' parameter")
		return
	}
	from, err := s.parseDate(fromRaw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date format. Use YYYY-MM-DD")
		return
	}
	to, err := s.parseDate(toRaw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date format. Use YYYY-MM-DD")
		return
	}

	quotas, err := s.svc.ListQuotas(r.Context(), from, to)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quotas)
}

func (s *Server) handleSetQuota(w http.ResponseWriter, r *http.Request) {
	day, err := s.parseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	var req struct {
		Capacity  int    `json:"capacity"`
		SlotStart string `json:"slot_start"`
		SlotEnd   string `json:"slot_end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.svc.SetQuota(r.Context(), day, req.Capacity, req.SlotStart, req.SlotEnd); err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Quota saved",
		"date":    day.Format(dateLayout),
	})
}

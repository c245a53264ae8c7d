package api

import (
	"net/http"
	"strconv"
	"strings"

	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/models/dtos"
	"guesthouse/roomsync/internal/models/dtos/responses"
	"guesthouse/roomsync/internal/services"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// TriggerSyncHandler handles POST /api/v1/sync/trigger
func (h *Handlers) TriggerSyncHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.TriggerSyncRequest
		if err := decodeJSON(r, &req, false); err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		if strings.TrimSpace(req.RoomTypeID) == "" {
			respondWithError(w, http.StatusBadRequest, "room_type_id is required")
			return
		}
		from, err := parseDayParam("date_from", req.DateFrom)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		to, err := parseDayParam("date_to", req.DateTo)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		if req.TriggeredBy == "" {
			req.TriggeredBy = constants.TriggeredByManual
		}

		summary, err := h.deps.Services.Orchestrator.TriggerSync(r.Context(), services.TriggerRequest{
			RoomTypeID:  req.RoomTypeID,
			DateFrom:    from,
			DateTo:      to,
			TriggeredBy: req.TriggeredBy,
			BookingID:   req.BookingID,
		})
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		status := http.StatusAccepted
		if summary.NoOp {
			status = http.StatusOK
		}
		respondWithSuccess(w, status, summary)
	}
}

// DispatchEntryHandler handles POST /api/v1/sync/entries/{id}/dispatch.
// It pushes the entry now, ignoring any pending retry delay.
func (h *Handlers) DispatchEntryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := h.deps.Services.Dispatcher.DispatchNow(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, result)
	}
}

// ListEntriesHandler handles GET /api/v1/sync/entries
func (h *Handlers) ListEntriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := repositories.SyncQueueFilter{
			Status:           q.Get("status"),
			ChannelManagerID: q.Get("channel_manager_id"),
			RoomTypeID:       q.Get("room_type_id"),
		}
		switch filter.Status {
		case "", constants.SyncStatusPending, constants.SyncStatusProcessing,
			constants.SyncStatusSuccess, constants.SyncStatusFailed:
		default:
			respondWithError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		if raw := q.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 {
				respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			filter.Limit = limit
		}

		entries, err := h.deps.Services.Query.ListEntries(r.Context(), filter)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		respondWithSuccess(w, http.StatusOK,
			responses.NewList(responses.MapSlice(entries, responses.FromSyncQueueEntry)))
	}
}

// EntryLogsHandler handles GET /api/v1/sync/entries/{id}/logs
func (h *Handlers) EntryLogsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := h.deps.Services.Query.EntryLogs(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		respondWithSuccess(w, http.StatusOK,
			responses.NewList(responses.MapSlice(logs, responses.FromSyncLog)))
	}
}

// LatestSyncsHandler handles GET /api/v1/sync/latest
func (h *Handlers) LatestSyncsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, err := h.deps.Services.Query.LatestSuccessful(r.Context())
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, responses.NewList(latest))
	}
}

type channelHealthResponse struct {
	Channels []responses.ChannelManagerResponse `json:"channels"`
	Queue    []repositories.ChannelStatusCount  `json:"queue"`
}

// ChannelManagersHandler handles GET /api/v1/channel-managers
func (h *Handlers) ChannelManagersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channels, err := h.deps.Services.Query.Channels(r.Context())
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		summary, err := h.deps.Services.Query.ChannelSummary(r.Context())
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		if summary == nil {
			summary = []repositories.ChannelStatusCount{}
		}
		respondWithSuccess(w, http.StatusOK, &channelHealthResponse{
			Channels: responses.MapSlice(channels, responses.FromChannelManager),
			Queue:    summary,
		})
	}
}

// AvailabilityHandler handles GET /api/v1/room-types/{id}/availability.
// Without from/to it returns the next 30 days.
func (h *Handlers) AvailabilityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := h.deps.Clock.Now()
		from, to := inventory.Day(now), inventory.Day(now).AddDate(0, 0, 30)

		q := r.URL.Query()
		var err error
		if raw := q.Get("from"); raw != "" {
			if from, err = parseDayParam("from", raw); err != nil {
				respondWithServiceError(w, r, err)
				return
			}
			if q.Get("to") == "" {
				to = from.AddDate(0, 0, 30)
			}
		}
		if raw := q.Get("to"); raw != "" {
			if to, err = parseDayParam("to", raw); err != nil {
				respondWithServiceError(w, r, err)
				return
			}
		}

		room, result, err := h.deps.Services.Availability.Compute(r.Context(), chi.URLParam(r, "id"), from, to)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		snap := services.NewAvailabilitySnapshot(room, from, to, result, now)
		respondWithSuccess(w, http.StatusOK, &snap)
	}
}

// SnapshotHandler handles GET /api/v1/room-types/{id}/availability/snapshot
func (h *Handlers) SnapshotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.deps.Services.Availability.Snapshot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		if snap == nil {
			respondWithError(w, http.StatusNotFound, "no snapshot cached for this room type")
			return
		}
		respondWithSuccess(w, http.StatusOK, snap)
	}
}

type blackoutResponse struct {
	Blackout *responses.BlackoutResponse `json:"blackout,omitempty"`
	Created  bool                        `json:"created"`
	Removed  bool                        `json:"removed"`
	Sync     *services.SyncRunSummary    `json:"sync"`
}

// AddBlackoutHandler handles POST /api/v1/room-types/{id}/blackouts
func (h *Handlers) AddBlackoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.BlackoutRequest
		if err := decodeJSON(r, &req, false); err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		date, err := parseDayParam("date", req.Date)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		change, err := h.deps.Services.Events.AddBlackout(r.Context(), services.BlackoutRequest{
			RoomTypeID: chi.URLParam(r, "id"),
			Date:       date,
			UnitNumber: req.UnitNumber,
			Reason:     req.Reason,
			CreatedBy:  callerID(r),
		})
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		out := responses.FromBlackout(*change.Blackout)
		status := http.StatusOK
		if change.Created {
			status = http.StatusCreated
		}
		respondWithSuccess(w, status, &blackoutResponse{
			Blackout: &out,
			Created:  change.Created,
			Sync:     change.Sync,
		})
	}
}

// RemoveBlackoutHandler handles DELETE /api/v1/room-types/{id}/blackouts?date=&unit_number=
func (h *Handlers) RemoveBlackoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		date, err := parseDayParam("date", q.Get("date"))
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		var unit *string
		if u := strings.TrimSpace(q.Get("unit_number")); u != "" {
			unit = &u
		}

		change, err := h.deps.Services.Events.RemoveBlackout(r.Context(), services.BlackoutRequest{
			RoomTypeID: chi.URLParam(r, "id"),
			Date:       date,
			UnitNumber: unit,
		})
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		respondWithSuccess(w, http.StatusOK, &blackoutResponse{Removed: change.Removed, Sync: change.Sync})
	}
}

// BookingEventHandler handles POST /api/v1/bookings/{id}/events
func (h *Handlers) BookingEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.BookingEventRequest
		if err := decodeJSON(r, &req, true); err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		prevIn, err := parseOptionalDay("previous_check_in", req.PreviousCheckIn)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		prevOut, err := parseOptionalDay("previous_check_out", req.PreviousCheckOut)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		summary, err := h.deps.Services.Events.BookingChanged(r.Context(), services.BookingEvent{
			BookingID:        chi.URLParam(r, "id"),
			PreviousCheckIn:  prevIn,
			PreviousCheckOut: prevOut,
		})
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		status := http.StatusAccepted
		if summary.NoOp {
			status = http.StatusOK
		}
		respondWithSuccess(w, status, summary)
	}
}

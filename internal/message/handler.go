package message

import (
	"net/http"
	"strconv"

	"messagely/internal/common"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler serves the /messages routes.
type Handler struct {
	store *common.Store
}

func NewHandler(store *common.Store) *Handler {
	return &Handler{store: store}
}

type createRequest struct {
	ToUsername string `json:"to_username" validate:"required,max=50"`
	Body       string `json:"body" validate:"required,maxbytes=65535"`
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Handle("/messages", common.EnsureLoggedIn(http.HandlerFunc(h.CreateMessage))).Methods(http.MethodPost)
	r.Handle("/messages/{id:[0-9]+}", common.EnsureLoggedIn(http.HandlerFunc(h.GetMessage))).Methods(http.MethodGet)
	r.Handle("/messages/{id:[0-9]+}/read", common.EnsureLoggedIn(http.HandlerFunc(h.MarkRead))).Methods(http.MethodPost)
}

func messageID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, common.NotFound("No such message: %s", raw)
	}
	return id, nil
}

// GetMessage returns the message to its sender or recipient only.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}

	msg, err := h.store.Messages.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := common.EnsureSenderOrRecipient(r.Context(), msg); err != nil {
		common.WriteError(w, r, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": msg})
}

// CreateMessage sends a message from the caller to to_username.
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := common.ValidateRequest(req); err != nil {
		common.WriteError(w, r, err)
		return
	}

	from, _ := common.IdentityFromContext(r.Context())
	msg, err := h.store.Messages.Create(r.Context(), from, req.ToUsername, req.Body)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"from":       msg.FromUsername,
		"to":         msg.ToUsername,
	}).Info("Message sent")
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": msg})
}

// MarkRead lets the recipient mark a message read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}

	msg, err := h.store.Messages.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := common.EnsureRecipient(r.Context(), msg); err != nil {
		common.WriteError(w, r, err)
		return
	}

	receipt, err := h.store.Messages.MarkRead(r.Context(), id)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": receipt})
}

package user

import (
	"net/http"

	"messagely/internal/common"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler serves the auth and /users routes.
type Handler struct {
	store  *common.Store
	tokens *common.TokenManager
}

func NewHandler(store *common.Store, tokens *common.TokenManager) *Handler {
	return &Handler{store: store, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type registerRequest struct {
	Username  string `json:"username" validate:"required,max=50"`
	Password  string `json:"password" validate:"required,maxbytes=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"required,max=30"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// RegisterRoutes mounts the handler on r. The authentication middleware
// must already be installed on r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)

	r.Handle("/users", common.EnsureLoggedIn(http.HandlerFunc(h.ListUsers))).Methods(http.MethodGet)
	r.Handle("/users/{username}", common.EnsureCorrectUser(http.HandlerFunc(h.GetUser))).Methods(http.MethodGet)
	r.Handle("/users/{username}/to", common.EnsureCorrectUser(http.HandlerFunc(h.MessagesTo))).Methods(http.MethodGet)
	r.Handle("/users/{username}/from", common.EnsureCorrectUser(http.HandlerFunc(h.MessagesFrom))).Methods(http.MethodGet)
}

// Login checks the credentials, bumps last_login_at and returns a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := common.ValidateRequest(req); err != nil {
		common.WriteError(w, r, err)
		return
	}

	ok, err := h.store.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	if !ok {
		logrus.WithField("username", req.Username).Warn("Login rejected")
		common.WriteError(w, r, common.Unauthorized())
		return
	}

	if err := h.store.Users.UpdateLoginTimestamp(r.Context(), req.Username); err != nil {
		common.WriteError(w, r, err)
		return
	}

	h.writeToken(w, r, req.Username)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := common.ValidateRequest(req); err != nil {
		common.WriteError(w, r, err)
		return
	}

	user, err := h.store.Users.Register(r.Context(), common.RegisterParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		common.WriteError(w, r, err)
		return
	}

	logrus.WithField("username", user.Username).Info("User registered")
	h.writeToken(w, r, user.Username)
}

func (h *Handler) writeToken(w http.ResponseWriter, r *http.Request, username string) {
	token, err := h.tokens.Issue(username)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.Users.All(r.Context())
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.Users.Get(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// MessagesTo lists the user's inbox, each entry carrying the sender.
func (h *Handler) MessagesTo(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.Messages.ListTo(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// MessagesFrom lists the user's outbox, each entry carrying the recipient.
func (h *Handler) MessagesFrom(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.Messages.ListFrom(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/remarkly/backend/internal/server/generation"
	"github.com/remarkly/backend/internal/server/users"
	"github.com/remarkly/backend/internal/shared"
)

type userPayload struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Credits  int64  `json:"credits"`
}

func toUserPayload(u *users.User) userPayload {
	return userPayload{Username: u.Username, Email: u.Email, Credits: u.Credits}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrorMissingFields)
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "registration successful",
		"user":    toUserPayload(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrorMissingFields)
		return
	}

	user, token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"token":   token,
		"user":    toUserPayload(user),
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {

	username := mux.Vars(r)["username"]

	user, err := s.users.Get(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toUserPayload(user)})
}

func (s *Server) handleGenerateComment(w http.ResponseWriter, r *http.Request) {

	var req struct {
		Username        string                      `json:"username"`
		StudentProfiles []generation.StudentProfile `json:"studentProfiles"`
		CommentStyle    string                      `json:"commentStyle"`
		Model           string                      `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrorMissingFields)
		return
	}

	comments, err := s.generation.Generate(r.Context(), req.Username, req.StudentProfiles, req.CommentStyle, req.Model)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleGenerateAlternatives(w http.ResponseWriter, r *http.Request) {

	var req struct {
		Username     string `json:"username"`
		OriginalText string `json:"originalText"`
		SourceTag    string `json:"sourceTag"`
		CommentStyle string `json:"commentStyle"`
		Model        string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrorMissingFields)
		return
	}

	alternatives, err := s.generation.GenerateAlternatives(r.Context(), req.Username, req.OriginalText, req.SourceTag, req.CommentStyle, req.Model)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, alternatives)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shared.ErrorMissingFields)
		return
	}

	order, qrURL, err := s.payment.CreateOrder(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"qrCodeUrl": qrURL,
		"orderId":   order.ID,
	})
}

// handlePaymentNotify answers the payment provider, not a browser: the
// provider expects a bare "success" body and redelivers on anything else.
func (s *Server) handlePaymentNotify(w http.ResponseWriter, r *http.Request) {

	if err := r.ParseForm(); err != nil {
		http.Error(w, "failure", http.StatusBadRequest)
		return
	}

	if err := s.payment.HandleNotification(r.Context(), r.PostForm); err != nil {
		s.logger.Warn(r.Context(), "payment notification rejected", "error", err.Error())
		status := http.StatusInternalServerError
		if statusFor(err) < http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		http.Error(w, "failure", status)
		return
	}

	w.Write([]byte("success"))
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {

	storeStatus := "ok"
	if err := s.store.Ping(r.Context()); err != nil {
		storeStatus = err.Error()
	}

	paymentMode := "alipay"
	if s.cfg.AlipayAppID == "" {
		paymentMode = "simulated"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"store":       storeStatus,
		"backend":     s.cfg.StoreBackend,
		"vendors":     s.vendors,
		"paymentMode": paymentMode,
	})
}

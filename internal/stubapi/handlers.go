package stubapi

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avoronkova/go-docparse-client/internal/models"
	logctx "github.com/avoronkova/go-docparse-client/internal/pkg/log"
	"github.com/avoronkova/go-docparse-client/internal/pkg/redact"
)

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type authResponse struct {
	User         models.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	lg := logctx.From(r.Context())

	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_argument", "invalid argument")
		return
	}

	email, ok := normalizeEmail(in.Email)
	if !ok || strings.TrimSpace(in.Name) == "" || len(in.Password) < 8 {
		writeError(w, r, http.StatusUnprocessableEntity, "validation_failed", "validation failed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	s.mu.Lock()
	if _, exists := s.byEmail[email]; exists {
		s.mu.Unlock()
		writeError(w, r, http.StatusConflict, "already_exists", "email already taken")
		return
	}

	rec := &userRecord{
		user: models.User{
			ID:      uuid.NewString(),
			Name:    strings.TrimSpace(in.Name),
			Email:   email,
			Role:    "user",
			Company: strings.TrimSpace(in.CompanyName),
		},
		passwordHash: string(hash),
	}
	s.byEmail[email] = rec
	s.byID[rec.user.ID] = rec

	verifyToken := newOpaqueToken()
	s.verify[verifyToken] = rec.user.ID

	user := rec.user
	now := time.Now().UTC()
	refresh, err := s.newRefreshToken(user.ID, now)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	access, err := s.issueAccessToken(user.ID, user.Email, now)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	// Почты у заглушки нет — verify-токен уходит в лог.
	lg.Info("user_registered",
		slog.String("email", redact.Email(email)),
		slog.String("verify_token", verifyToken),
	)

	writeJSON(w, http.StatusCreated, authResponse{
		User:         user,
		Token:        access,
		RefreshToken: refresh,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_argument", "invalid argument")
		return
	}

	email, ok := normalizeEmail(in.Email)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "invalid credentials")
		return
	}

	// Поля записи копируются под мьютексом: bcrypt-сравнение долгое,
	// а reset-password конкурентно перезаписывает passwordHash.
	s.mu.Lock()
	rec, exists := s.byEmail[email]
	var user models.User
	var passwordHash string
	if exists {
		user = rec.user
		passwordHash = rec.passwordHash
	}
	s.mu.Unlock()

	if !exists || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(in.Password)) != nil {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "invalid credentials")
		return
	}

	now := time.Now().UTC()

	s.mu.Lock()
	refresh, err := s.newRefreshToken(user.ID, now)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	access, err := s.issueAccessToken(user.ID, user.Email, now)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		User:         user,
		Token:        access,
		RefreshToken: refresh,
	})
}

// handleLogout отзывает refresh-токены владельца access-токена.
// Ответ всегда 200: клиент чистит локальное состояние независимо от нас.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if access := bearerToken(r); access != "" {
		if userID, err := s.validateAccessToken(access); err == nil {
			s.mu.Lock()
			s.revokeUserTokens(userID)
			s.mu.Unlock()
		}
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	access := bearerToken(r)
	if access == "" {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "unauthenticated")
		return
	}

	userID, err := s.validateAccessToken(access)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "unauthenticated")
		return
	}

	// Копия под мьютексом: verify-email конкурентно меняет user.Verified.
	s.mu.Lock()
	rec, exists := s.byID[userID]
	var user models.User
	if exists {
		user = rec.user
	}
	s.mu.Unlock()

	if !exists {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "unauthenticated")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_argument", "invalid argument")
		return
	}

	now := time.Now().UTC()

	s.mu.Lock()
	userID, err := s.consumeRefreshToken(in.RefreshToken, now)
	if err != nil {
		s.mu.Unlock()
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "invalid refresh token")
		return
	}

	rec, exists := s.byID[userID]
	if !exists {
		s.mu.Unlock()
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "invalid refresh token")
		return
	}

	email := rec.user.Email
	refresh, err := s.newRefreshToken(userID, now)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	access, err := s.issueAccessToken(userID, email, now)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{Token: access, RefreshToken: refresh})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var in tokenRequest
	if err := decodeStrict(r, &in); err != nil || in.Token == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_argument", "invalid argument")
		return
	}

	s.mu.Lock()
	userID, exists := s.verify[in.Token]
	if exists {
		delete(s.verify, in.Token)
		if rec, ok := s.byID[userID]; ok {
			rec.user.Verified = true
		}
	}
	s.mu.Unlock()

	if !exists {
		writeError(w, r, http.StatusNotFound, "not_found", "verification token not found")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	lg := logctx.From(r.Context())

	var in emailRequest
	if err := decodeStrict(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_argument", "invalid argument")
		return
	}

	email, ok := normalizeEmail(in.Email)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid_argument", "invalid argument")
		return
	}

	s.mu.Lock()
	rec, exists := s.byEmail[email]
	var resetToken string
	if exists {
		resetToken = newOpaqueToken()
		s.resets[resetToken] = resetRecord{
			userID:    rec.user.ID,
			expiresAt: time.Now().UTC().Add(time.Hour),
		}
	}
	s.mu.Unlock()

	if !exists {
		writeError(w, r, http.StatusNotFound, "not_found", "user not found")
		return
	}

	// Reset-токен уходит в лог вместо письма.
	lg.Info("password_reset_requested",
		slog.String("email", redact.Email(email)),
		slog.String("reset_token", resetToken),
	)

	writeJSON(w, http.StatusOK, messageResponse{Message: "reset link sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if err := decodeStrict(r, &in); err != nil || in.Token == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_argument", "invalid argument")
		return
	}

	if len(in.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "invalid_argument", "password is too weak")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	s.mu.Lock()
	rr, exists := s.resets[in.Token]
	if exists && time.Now().UTC().After(rr.expiresAt) {
		delete(s.resets, in.Token)
		exists = false
	}
	if exists {
		delete(s.resets, in.Token)
		if rec, ok := s.byID[rr.userID]; ok {
			rec.passwordHash = string(hash)
			// Смена пароля инвалидирует выданные refresh-токены.
			s.revokeUserTokens(rr.userID)
		}
	}
	s.mu.Unlock()

	if !exists {
		writeError(w, r, http.StatusNotFound, "not_found", "reset token not found")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

// bearerToken достаёт токен из Authorization: Bearer.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}

	return ""
}

// normalizeEmail валидирует формат и приводит адрес к нижнему регистру.
func normalizeEmail(raw string) (string, bool) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", false
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", false
	}

	return strings.ToLower(email), true
}

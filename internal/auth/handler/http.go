package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	actordomain "food-rescue-platform/backend/internal/actor/domain"
	"food-rescue-platform/backend/internal/auth/service"
	sessiondomain "food-rescue-platform/backend/internal/session/domain"
	"food-rescue-platform/backend/internal/server/middleware"
)

// Handler exposes the authentication endpoints over HTTP.
type Handler struct {
	svc *service.AuthService
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *service.AuthService) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

// Login authenticates with email and password and returns the actor plus a
// fresh token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Parametri non validi"})
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, deviceInfo(c, req.DeviceInfo), c.ClientIP())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   actorJSON(res.Actor, res.UserType),
		"tokens": tokensJSON(res.AccessToken, res.RefreshToken, res.ExpiresAt),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh rotates the token pair of the session holding the refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Refresh token non valido o scaduto"})
		return
	}
	res, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"expires":       res.ExpiresAt.UTC(),
	})
}

// Logout revokes the session of the presented access token.
func (h *Handler) Logout(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Token JWT mancante"})
		return
	}
	if err := h.svc.Logout(c.Request.Context(), middleware.AccessToken(c), ident.ActorID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout avvenuto con successo"})
}

// LogoutAll revokes every active session of the calling actor.
func (h *Handler) LogoutAll(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Token JWT mancante"})
		return
	}
	n, err := h.svc.LogoutAll(c.Request.Context(), ident.ActorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Logout da tutti i dispositivi avvenuto con successo",
		"sessioni_revocate": n,
	})
}

// ActiveSessions lists the caller's active sessions, newest first.
func (h *Handler) ActiveSessions(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Token JWT mancante"})
		return
	}
	sessions, err := h.svc.ActiveSessions(c.Request.Context(), ident.ActorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	// Bare array, mirroring the session columns plus the current marker.
	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionJSON(s, s.ID == ident.SessionID))
	}
	c.JSON(http.StatusOK, out)
}

// RevokeSession revokes one session by id; only the owner may revoke it.
func (h *Handler) RevokeSession(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Token JWT mancante"})
		return
	}
	if err := h.svc.RevokeSession(c.Request.Context(), c.Param("id"), ident.ActorID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sessione revocata con successo"})
}

type registerRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Name       string `json:"nome" binding:"required"`
	Surname    string `json:"cognome"`
	Role       string `json:"ruolo"`
	UserType   string `json:"tipo_utente"`
	Address    string `json:"indirizzo"`
	Phone      string `json:"telefono"`
	DeviceInfo string `json:"device_info"`
}

// Register creates an actor and returns it with its first token pair.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Parametri non validi"})
		return
	}
	in := service.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Surname:    req.Surname,
		Role:       req.Role,
		DeviceInfo: deviceInfo(c, req.DeviceInfo),
		IP:         c.ClientIP(),
	}
	if req.UserType != "" {
		in.UserType = &actordomain.UserType{
			Type:    req.UserType,
			Address: req.Address,
			Phone:   req.Phone,
			Email:   req.Email,
		}
	}
	res, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":   actorJSON(res.Actor, res.UserType),
		"tokens": tokensJSON(res.AccessToken, res.RefreshToken, res.ExpiresAt),
	})
}

type resetPasswordRequest struct {
	Email            string `json:"email" binding:"required"`
	Phone            string `json:"telefono"`
	VerificationName string `json:"verifica_nome"`
	NewPassword      string `json:"nuova_password" binding:"required"`
}

// ResetPassword replaces the password after phone or full-name verification
// and revokes every active session of the actor.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Parametri non validi"})
		return
	}
	if len(req.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "La nuova password deve contenere almeno 8 caratteri"})
		return
	}
	err := h.svc.ResetPassword(c.Request.Context(), service.ResetPasswordInput{
		Email:            req.Email,
		Phone:            req.Phone,
		VerificationName: req.VerificationName,
		NewPassword:      req.NewPassword,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password aggiornata con successo. Accedi con le nuove credenziali."})
}

// Verify reports that the bearer token is valid. The auth middleware has
// already done all the checking by the time this runs.
func (h *Handler) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// fail maps service errors to HTTP statuses with Italian client messages.
// Storage error text never reaches the client.
func (h *Handler) fail(c *gin.Context, err error) {
	var rl *service.RateLimitedError
	switch {
	case errors.As(err, &rl):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"message": fmt.Sprintf("Troppi tentativi di accesso. Riprova tra %s", humanizeWait(rl.RetryAfter)),
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Credenziali non valide"})
	case errors.Is(err, service.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Refresh token non valido o scaduto"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Sessione non trovata"})
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"code": "EMAIL_ALREADY_REGISTERED", "message": "Email già registrata"})
	case errors.Is(err, service.ErrActorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Utente non trovato"})
	case errors.Is(err, service.ErrResetContactRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Fornisci il numero di telefono registrato o il nome completo usato in fase di registrazione."})
	case errors.Is(err, service.ErrResetPhoneRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Per questo account e' necessario indicare il numero di telefono registrato."})
	case errors.Is(err, service.ErrResetPhoneNotOnFile):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Numero di telefono non registrato per questo account. Contatta il supporto."})
	case errors.Is(err, service.ErrResetNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Fornisci il nome completo registrato per procedere al reset della password."})
	case errors.Is(err, service.ErrResetVerificationFailed):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Le informazioni inserite non corrispondono ai dati presenti a sistema."})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Parametri non validi"})
	default:
		log.Printf("auth handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Errore interno del server"})
	}
}

// humanizeWait renders the remaining lockout as whole minutes, or seconds
// when less than a minute is left.
func humanizeWait(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("%d secondi", secs)
	}
	mins := int((d + time.Minute - 1) / time.Minute)
	if mins == 1 {
		return "1 minuto"
	}
	return fmt.Sprintf("%d minuti", mins)
}

func deviceInfo(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return c.Request.UserAgent()
}

func actorJSON(a *actordomain.Actor, userType string) gin.H {
	out := gin.H{
		"id":      a.ID,
		"email":   a.Email,
		"nome":    a.Name,
		"cognome": a.Surname,
		"ruolo":   a.Role,
	}
	if userType != "" {
		out["tipo_utente"] = userType
	}
	return out
}

func tokensJSON(access, refresh string, expires time.Time) gin.H {
	return gin.H{
		"access":  access,
		"refresh": refresh,
		"expires": expires.UTC(),
	}
}

func sessionJSON(s *sessiondomain.Session, current bool) gin.H {
	return gin.H{
		"id":             s.ID,
		"device_info":    s.DeviceInfo,
		"ip_address":     s.IPAddress,
		"created_at":     s.CreatedAt.UTC(),
		"access_expiry":  s.AccessExpiresAt.UTC(),
		"refresh_expiry": s.RefreshExpiresAt.UTC(),
		"current":        current,
	}
}

package httpapi

import (
	"net/http"
	"strings"

	"clima-data/internal/service"

	"go.uber.org/zap"
)

// AuthHandler 注册与登录
type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Username string `json:"nombre_usuario"`
	Email    string `json:"correo"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	u, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{
		"usuarioid":      u.UserID,
		"nombre_usuario": u.Username,
		"correo":         u.Email,
		"rolid":          u.RoleID,
	}))
}

// Token POST /auth/token
// 同时接受 JSON 与 OAuth2 password 表单（username/password）
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("invalid form body"))
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	tok, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(tok))
}

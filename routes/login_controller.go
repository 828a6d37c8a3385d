package routes

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-survey/app"
	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/auth"
	"github.com/mbolis/quick-survey/httpx"
	"github.com/mbolis/quick-survey/identity"
	"github.com/mbolis/quick-survey/log"
	"github.com/mbolis/quick-survey/model"
	"github.com/mbolis/quick-survey/routes/middlewares"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

type registerBody struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := registerBody{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		role := model.RoleUser
		if body.Role == model.RoleAdmin {
			if !app.AllowAdminSignup {
				httpx.Fail(w, "register.admin", apperr.Forbidden("admin registration is disabled"))
				return
			}
			role = model.RoleAdmin
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			httpx.Fail(w, "register.hash", err)
			return
		}

		user, err := app.Users.Create(r.Context(), identity.NewUser{
			Username:     body.Username,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         role,
		})
		if err != nil {
			httpx.Fail(w, "register.create", err)
			return
		}

		log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		})
	}
}

type loginBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login accepts HTTP basic credentials or a JSON body with a username
// (or email) and password.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loginID, pass, ok := r.BasicAuth()
		if !ok {
			body := loginBody{}
			if err := render.DecodeJSON(r.Body, &body); err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
				return
			}
			loginID, pass = body.Email, body.Password
			if loginID == "" {
				loginID = body.Username
			}
		}
		if loginID == "" || pass == "" {
			httpx.Fail(w, "login.credentials", apperr.Validationf("username and password are required"))
			return
		}

		user, err := app.Users.FindByIdentifier(r.Context(), loginID)
		if err != nil {
			httpx.Fail(w, "login.find_user", err)
			return
		}
		if user == nil {
			httpx.Fail(w, "login.find_user", apperr.Unauthenticated("user not found, please register", nil))
			return
		}
		if err = auth.CheckPassword(user.PasswordHash, pass); err != nil {
			httpx.Fail(w, "login.password", err)
			return
		}

		issueTokens(w, r, app, user, "Login successful")
	}
}

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		userID, err := app.Refresh.Redeem(r.Context(), strings.TrimSpace(match[1]))
		if err != nil {
			httpx.Fail(w, "refresh.redeem", err)
			return
		}
		user, err := app.Users.FindByID(r.Context(), userID)
		if err != nil {
			httpx.Fail(w, "refresh.find_user", err)
			return
		}
		if user == nil {
			httpx.Fail(w, "refresh.find_user", apperr.Unauthenticated("could not refresh", nil))
			return
		}

		issueTokens(w, r, app, user, "Token refreshed")
	}
}

func issueTokens(w http.ResponseWriter, r *http.Request, app app.App, user *model.User, msg string) {
	token, err := app.Tokens.Issue(user)
	if err != nil {
		httpx.LogInternalError(w, "token.issue", err)
		return
	}
	refresh, err := app.Refresh.Issue(r.Context(), user.ID)
	if err != nil {
		httpx.Fail(w, "token.refresh", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     middlewares.TokenCookie,
		Value:    token,
		MaxAge:   int(app.Tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	render.JSON(w, r, map[string]any{
		"message":       msg,
		"token":         token,
		"refresh_token": refresh,
		"expires_in":    int(app.Tokens.TTL().Seconds()),
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Logout always clears the token cookie. Refresh tokens are revoked only
// when the access token still parses.
func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clearTokenCookie(w)

		if token := middlewares.TokenFrom(r); token != "" {
			id, err := app.Tokens.Parse(token)
			if err != nil {
				log.Debugf("logout.parse_token: %s", err)
			} else if err = app.Refresh.RevokeAll(r.Context(), id.UserID); err != nil {
				httpx.Fail(w, "logout.revoke", err)
				return
			}
		}
		render.JSON(w, r, map[string]any{"message": "Logged out successfully"})
	}
}

// Role checks the credentials and answers with the user's role only,
// without issuing any token.
func Role(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := loginBody{}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		loginID := body.Username
		if loginID == "" {
			loginID = body.Email
		}
		if loginID == "" || body.Password == "" {
			httpx.Fail(w, "role.credentials", apperr.Validationf("username and password are required"))
			return
		}

		user, err := app.Users.FindByIdentifier(r.Context(), loginID)
		if err != nil {
			httpx.Fail(w, "role.find_user", err)
			return
		}
		if user == nil {
			httpx.Fail(w, "role.find_user", apperr.NotFoundf("user not found"))
			return
		}
		if err = auth.CheckPassword(user.PasswordHash, body.Password); err != nil {
			httpx.Fail(w, "role.password", err)
			return
		}
		render.JSON(w, r, map[string]any{"role": user.Role})
	}
}

func Me(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		user, err := app.Users.FindByID(r.Context(), id.UserID)
		if err != nil {
			httpx.Fail(w, "me.find_user", err)
			return
		}
		if user == nil {
			httpx.Fail(w, "me.find_user", apperr.Unauthenticated("user no longer exists", nil))
			return
		}
		render.JSON(w, r, map[string]any{"user": user})
	}
}

// DeleteAccount removes the caller's submissions, then the account.
func DeleteAccount(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())

		if err := app.Submissions.DeleteAllForUser(r.Context(), id.UserID); err != nil {
			httpx.Fail(w, "delete_account.submissions", err)
			return
		}
		if err := app.Users.DeleteByID(r.Context(), id.UserID); err != nil {
			httpx.Fail(w, "delete_account.user", err)
			return
		}

		log.WithFields(log.Fields{"user_id": id.UserID}).Info("account deleted")
		clearTokenCookie(w)
		render.JSON(w, r, map[string]any{"message": "Account and submissions deleted"})
	}
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     middlewares.TokenCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

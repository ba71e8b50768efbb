package handlers

import (
	"net/http"

	"github.com/stoiyeet/TravelShare/internal/transport/http/middleware"
)

type Handlers struct {
	Auth  *AuthHandler
	City  *CityHandler
	Group *GroupHandler
	User  *UserHandler
}

// NewRouter registers every API route. metrics may be nil.
func NewRouter(h Handlers, jwtSecret string, metrics http.Handler) *http.ServeMux {
	auth := middleware.Auth(jwtSecret)
	protect := func(fn http.HandlerFunc) http.Handler { return auth(fn) }

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("GET /api/v1/health", Health)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	mux.HandleFunc("POST /api/v1/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Auth.Logout)

	// Protected - Cities
	mux.Handle("GET /api/v1/cities", protect(h.City.List))
	mux.Handle("POST /api/v1/cities", protect(h.City.Create))
	mux.Handle("GET /api/v1/cities/{id}", protect(h.City.Get))
	mux.Handle("PATCH /api/v1/cities/{id}", protect(h.City.Update))
	mux.Handle("DELETE /api/v1/cities/{id}", protect(h.City.Delete))
	mux.Handle("POST /api/v1/cities/{id}/visit", protect(h.City.Visit))
	mux.Handle("POST /api/v1/cities/{id}/images", protect(h.City.UploadImage))
	mux.Handle("POST /api/v1/cities/{id}/images/batch", protect(h.City.UploadImages))
	mux.Handle("DELETE /api/v1/cities/{id}/images", protect(h.City.DeleteImage))
	mux.Handle("GET /api/v1/geocode", protect(h.City.Geocode))

	// Protected - Groups
	mux.Handle("GET /api/v1/groups", protect(h.Group.List))
	mux.Handle("POST /api/v1/groups", protect(h.Group.Create))
	mux.Handle("GET /api/v1/groups/palette", protect(h.Group.Palette))
	mux.Handle("GET /api/v1/groups/{id}", protect(h.Group.Get))
	mux.Handle("PUT /api/v1/groups/{id}", protect(h.Group.Update))
	mux.Handle("DELETE /api/v1/groups/{id}", protect(h.Group.Delete))
	mux.Handle("GET /api/v1/groups/{id}/colors", protect(h.Group.AvailableColors))

	// Protected - Group Members
	mux.Handle("POST /api/v1/groups/{id}/members", protect(h.Group.AddMember))
	mux.Handle("DELETE /api/v1/groups/{id}/members/{uid}", protect(h.Group.RemoveMember))
	mux.Handle("PUT /api/v1/groups/{id}/members/{uid}/color", protect(h.Group.SetMemberColor))

	// Protected - Users
	mux.Handle("GET /api/v1/users", protect(h.User.List))
	mux.Handle("GET /api/v1/user/me", protect(h.User.Me))
	mux.Handle("PUT /api/v1/user/profile", protect(h.User.UpdateProfile))
	mux.Handle("PUT /api/v1/user/password", protect(h.User.UpdatePassword))

	return mux
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

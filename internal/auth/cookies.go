package auth

import (
	"net/http"
	"time"
)

// Cookie names for the token pair
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// SetAuthCookies sets the token pair as scoped httpOnly cookies. The
// refresh cookie may outlive the access cookie; the signed expiry inside
// each token remains the source of truth.
func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, isProduction bool, accessMaxAge, refreshMaxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(accessMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(refreshMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookies expires both token cookies
func ClearAuthCookies(w http.ResponseWriter, isProduction bool) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   isProduction,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// GetAccessTokenFromCookie reads the access token cookie
func GetAccessTokenFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// GetRefreshTokenFromCookie reads the refresh token cookie
func GetRefreshTokenFromCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(RefreshTokenCookie)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

package middleware

import (
	"hrbackend/internal/i18n"

	"github.com/gin-gonic/gin"
)

// Locale picks the response language from ?lang= or Accept-Language and stores
// it on the request context for the notification composer.
func Locale(tr *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		pref := c.Query("lang")
		if pref == "" {
			pref = c.GetHeader("Accept-Language")
		}
		locale := tr.Match(pref)
		c.Request = c.Request.WithContext(i18n.WithLocale(c.Request.Context(), locale))
		c.Header("Content-Language", locale)
		c.Next()
	}
}

package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	models "github.com/promittee/givehub-go/models"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Every kind
// surfaces with a stable machine-readable kind next to the message.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch models.KindOf(err) {
	case models.KindValidation:
		status = http.StatusBadRequest
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindAuthorization:
		status = http.StatusForbidden
	case models.KindConflict:
		status = http.StatusConflict
	case models.KindState:
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": string(models.KindOf(err))})
}

// parseFlexibleTime accepts RFC3339 plus the date-only shapes frontends send.
func parseFlexibleTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return parsed, nil
	}
	layouts := []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if t, e := time.Parse(layout, value); e == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

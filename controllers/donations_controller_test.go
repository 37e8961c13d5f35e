package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/promittee/givehub-go/config"
	models "github.com/promittee/givehub-go/models"
	services "github.com/promittee/givehub-go/services"
)

// directDonateRequest runs the handler against a JSON body with a donor
// identity in the context. Validation failures return before any database
// access, so an empty Config is enough.
func directDonateRequest(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("user_id", primitive.NewObjectID().Hex())
	c.Set("role", models.RoleDonor)
	c.Request = httptest.NewRequest(http.MethodPost, "/donations", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	DirectDonate(&config.Config{}, services.NewPaymentGateway())(c)
	return w
}

func TestDirectDonate_RejectsMalformedCampaignID(t *testing.T) {
	body := fmt.Sprintf(`{"ngo_id":%q,"campaign_id":"not-an-object-id","amount":100}`,
		primitive.NewObjectID().Hex())

	w := directDonateRequest(t, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

func TestDirectDonate_RejectsAmountAtOrBelowFloor(t *testing.T) {
	for _, amount := range []float64{50, 30, 0, -10} {
		body := fmt.Sprintf(`{"ngo_id":%q,"amount":%v}`, primitive.NewObjectID().Hex(), amount)

		w := directDonateRequest(t, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("amount %v: status = %d, want %d", amount, w.Code, http.StatusBadRequest)
		}
	}
}

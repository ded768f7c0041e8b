package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type allocateProbe struct {
	Reference string `json:"reference" binding:"omitempty,card_code"`
	Start     string `json:"start" binding:"required,card_serial"`
}

func TestRegisteredCardValidators(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{name: "valid", body: `{"reference":"123-456-789-00001-00001","start":"00001"}`, ok: true},
		{name: "no reference", body: `{"start":"00042"}`, ok: true},
		{name: "bad serial", body: `{"start":"1"}`, ok: false},
		{name: "bad code", body: `{"reference":"123-456-789-1-00001","start":"00001"}`, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/probe", strings.NewReader(tc.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var probe allocateProbe
			err := c.ShouldBindJSON(&probe)
			if tc.ok && err != nil {
				t.Fatalf("expected bind success, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected bind failure")
			}
		})
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestBulkHandlersRejectEmptyBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// A nil service makes any call past the guard panic, so the guard
	// rejecting before the service is part of what this verifies.
	ah := NewAssignmentHandler(nil)

	tests := []struct {
		name   string
		body   string
		handle func(c *gin.Context)
	}{
		{"assign", fmt.Sprintf(`{"recording_ids": [], "user_id": %q}`, uuid.New()), ah.BulkAssign},
		{"unassign", `{"recording_ids": []}`, ah.BulkUnassign},
		{"flag", `{"recording_ids": [], "flagged": true, "reason": "noise"}`, ah.BulkFlag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/recordings/bulk/"+tt.name, strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			tt.handle(c)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if !strings.Contains(w.Body.String(), "empty_batch") {
				t.Errorf("body = %s, want empty_batch code", w.Body.String())
			}
		})
	}
}

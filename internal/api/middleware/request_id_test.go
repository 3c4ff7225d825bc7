package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID_WhenClientProvidesRequestID_ThenUsesProvidedID(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, router := gin.CreateTestContext(w)

	expectedRequestID := "client-provided-request-id"
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		// Assert
		actualRequestID, exists := c.Get(RequestIDKey)
		if !exists {
			t.Fatal("expected request ID to exist in context")
		}
		if actualRequestID != expectedRequestID {
			t.Errorf("expected request ID '%s', got '%s'", expectedRequestID, actualRequestID)
		}
		c.Status(http.StatusOK)
	})

	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	c.Request.Header.Set(RequestIDHeader, expectedRequestID)

	// Act
	router.ServeHTTP(w, c.Request)

	// Assert
	responseRequestID := w.Header().Get(RequestIDHeader)
	if responseRequestID != expectedRequestID {
		t.Errorf("expected response header to contain request ID '%s', got '%s'", expectedRequestID, responseRequestID)
	}
}

func TestRequestID_WhenClientDoesNotProvideRequestID_ThenGeneratesNewID(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, router := gin.CreateTestContext(w)

	var generatedRequestID string
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		// Assert
		actualRequestID, exists := c.Get(RequestIDKey)
		if !exists {
			t.Fatal("expected request ID to exist in context")
		}
		generatedRequestID = actualRequestID.(string)
		if generatedRequestID == "" {
			t.Error("expected generated request ID to be non-empty")
		}
		c.Status(http.StatusOK)
	})

	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	// Act
	router.ServeHTTP(w, c.Request)

	// Assert
	responseRequestID := w.Header().Get(RequestIDHeader)
	if responseRequestID != generatedRequestID {
		t.Errorf("expected response header to contain generated request ID '%s', got '%s'", generatedRequestID, responseRequestID)
	}
	if responseRequestID == "" {
		t.Error("expected response header to contain non-empty request ID")
	}
}

func TestRequestID_WhenClientIDUnsafe_ThenReplacesIt(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "too long", id: strings.Repeat("a", maxRequestIDLength+1)},
		{name: "contains space", id: "abc def"},
		{name: "contains control byte", id: "abc\x1bdef"},
		{name: "non ascii", id: "ünïcode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(RequestID())
			router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(RequestIDHeader, tt.id)

			// Act
			router.ServeHTTP(w, req)

			// Assert
			got := w.Header().Get(RequestIDHeader)
			if got == tt.id {
				t.Errorf("expected unsafe request ID to be replaced, got '%s'", got)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("expected a generated UUID, got '%s'", got)
			}
		})
	}
}

func TestValidRequestID(t *testing.T) {
	if !validRequestID("req-123_abc.DEF") {
		t.Error("expected plain ASCII ID to be valid")
	}
	if !validRequestID(strings.Repeat("x", maxRequestIDLength)) {
		t.Error("expected ID at the length limit to be valid")
	}
	if validRequestID("") {
		t.Error("expected empty ID to be invalid")
	}
}

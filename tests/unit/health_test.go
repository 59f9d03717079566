package unit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/timeledger/timeledger-backend/internal/api/http"
)

func healthRouter(cache *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := httpapi.NewHealthHandler("test-service", "1.0.0", nil, cache)
	handler.RegisterRoutes(router)
	return router
}

func getHealth(t *testing.T, router *gin.Engine) httpapi.HealthResponse {
	t.Helper()

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	var response httpapi.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Errorf("failed to unmarshal response: %v", err)
	}
	return response
}

func TestHealthCheck(t *testing.T) {
	response := getHealth(t, healthRouter(nil))

	if response.Status != "healthy" {
		t.Errorf("expected status 'healthy', got %s", response.Status)
	}

	if response.Service != "test-service" {
		t.Errorf("expected service 'test-service', got %s", response.Service)
	}

	if response.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %s", response.Version)
	}

	if response.DB != "disabled" {
		t.Errorf("expected db 'disabled' without a pool, got %s", response.DB)
	}

	if response.Cache != "disabled" {
		t.Errorf("expected cache 'disabled' without a client, got %s", response.Cache)
	}
}

func TestHealthCheckReportsCacheState(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	router := healthRouter(client)

	response := getHealth(t, router)
	if response.Cache != "up" {
		t.Errorf("expected cache 'up' with redis running, got %s", response.Cache)
	}

	// A dead cache must not degrade the service; reports rebuild without it.
	mr.Close()
	response = getHealth(t, router)
	if response.Cache != "down" {
		t.Errorf("expected cache 'down' after redis stopped, got %s", response.Cache)
	}
	if response.Status != "healthy" {
		t.Errorf("expected status 'healthy' with only the cache down, got %s", response.Status)
	}
}

func TestHealthCheckMethodNotAllowed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true

	handler := httpapi.NewHealthHandler("test-service", "1.0.0", nil, nil)
	handler.RegisterRoutes(router)

	req, err := http.NewRequest("POST", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusMethodNotAllowed {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusMethodNotAllowed)
	}
}

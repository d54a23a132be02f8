package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"rentease/internal/availability"
	"rentease/internal/config"
	"rentease/internal/database"
	"rentease/internal/events"
	"rentease/internal/models"
	"rentease/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAPIServer(t *testing.T) (*httptest.Server, *database.DB) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.UpsertProperty(ctx, &models.Property{
		ID: 1, Title: "Studio", LandlordID: 101, IsActive: true,
	}))
	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: 101, FirstName: "Maria", LastName: "Sokolova", Role: "landlord"}))
	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: 201, FirstName: "Anna", LastName: "Kim", Role: "tenant"}))
	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: 202, FirstName: "Pavel", LastName: "Orlov", Role: "tenant"}))

	engine := availability.NewEngine(db, &logger)
	svc := service.NewBookingService(db, db, engine, events.NewEventBus(), nil, false, &logger)

	cfg := config.APIConfig{
		HTTP: config.APIHTTPConfig{Enabled: true, Port: 0},
	}
	bookingCfg := config.BookingConfig{RateLimitRequests: 100, RateLimitWindow: 60}

	srv := NewHTTPServer(cfg, bookingCfg, svc, nil, nil, &logger)
	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return ts, db
}

func postBooking(t *testing.T, ts *httptest.Server, propertyID, tenantID int64, startDate string) *http.Response {
	body, err := json.Marshal(map[string]any{
		"property_id": propertyID,
		"tenant_id":   tenantID,
		"start_date":  startDate,
	})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/v1/bookings", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBooking(t *testing.T, resp *http.Response) models.Booking {
	defer resp.Body.Close()
	var b models.Booking
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
	return b
}

func TestCreateBookingEndpoint(t *testing.T) {
	ts, _ := setupAPIServer(t)

	resp := postBooking(t, ts, 1, 201, "2026-03-10")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	booking := decodeBooking(t, resp)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, "2026-04-10", booking.EndDate.Format("2006-01-02"))
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	ts, _ := setupAPIServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing property", `{"tenant_id":201,"start_date":"2026-03-10"}`},
		{"missing tenant", `{"property_id":1,"start_date":"2026-03-10"}`},
		{"bad date", `{"property_id":1,"tenant_id":201,"start_date":"10.03.2026"}`},
		{"unknown field", `{"property_id":1,"tenant_id":201,"start_date":"2026-03-10","extra":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/bookings", "application/json", bytes.NewReader([]byte(tc.body)))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateBookingEndpointConflicts(t *testing.T) {
	ts, _ := setupAPIServer(t)

	resp := postBooking(t, ts, 1, 201, "2026-03-10")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate pending from the same tenant.
	resp = postBooking(t, ts, 1, 201, "2026-06-10")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown property / tenant map to 404.
	resp = postBooking(t, ts, 77, 201, "2026-03-10")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postBooking(t, ts, 1, 777, "2026-03-10")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBookingLifecycleEndpoints(t *testing.T) {
	ts, _ := setupAPIServer(t)
	client := &http.Client{}

	resp := postBooking(t, ts, 1, 201, "2026-03-10")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	booking := decodeBooking(t, resp)

	// GET enriched view.
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/bookings/%s", ts.URL, booking.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view models.BookingView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	assert.Equal(t, "Studio", view.PropertyTitle)
	assert.Equal(t, "Anna Kim", view.TenantName)
	assert.Equal(t, "Maria Sokolova", view.LandlordName)

	// Approve.
	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/v1/bookings/%s/approve", ts.URL, booking.ID), nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBooking(t, resp)
	assert.Equal(t, models.StatusApproved, updated.Status)

	// Cancel after approval is rejected with a conflict.
	req, err = http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/v1/bookings/%s/cancel", ts.URL, booking.ID), nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown id is a 404.
	req, err = http.NewRequest(http.MethodPatch, ts.URL+"/api/v1/bookings/missing-id/approve", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Unknown action is a 404.
	req, err = http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/v1/bookings/%s/freeze", ts.URL, booking.ID), nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListBookingsEndpoint(t *testing.T) {
	ts, _ := setupAPIServer(t)

	resp := postBooking(t, ts, 1, 201, "2026-03-10")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = postBooking(t, ts, 1, 202, "2026-05-10")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	type listResponse struct {
		Bookings []models.BookingView `json:"bookings"`
	}

	get := func(query string) listResponse {
		resp, err := http.Get(ts.URL + "/api/v1/bookings?" + query)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out listResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	assert.Len(t, get("tenant_id=201").Bookings, 1)
	assert.Len(t, get("property_id=1").Bookings, 2)
	assert.Len(t, get("status=pending").Bookings, 2)

	resp, err := http.Get(ts.URL + "/api/v1/bookings?status=done")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/bookings")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAvailabilityEndpoint(t *testing.T) {
	ts, _ := setupAPIServer(t)

	check := func(tenantID int64, date string) availability.Decision {
		url := fmt.Sprintf("%s/api/v1/availability?property_id=1&tenant_id=%d&date=%s", ts.URL, tenantID, date)
		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var d availability.Decision
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
		return d
	}

	assert.True(t, check(201, "2026-03-10").Allowed)

	resp := postBooking(t, ts, 1, 201, "2026-03-10")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	decision := check(201, "2026-03-10")
	assert.False(t, decision.Allowed)
	assert.Equal(t, availability.ReasonPendingExists, decision.Reason)

	// Other tenant is unaffected while nothing is approved.
	assert.True(t, check(202, "2026-03-15").Allowed)

	resp2, err := http.Get(ts.URL + "/api/v1/availability?property_id=1&tenant_id=201&date=bad")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := setupAPIServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waste3d/cfproxyhub/internal/domain"
)

var scope = domain.TunnelScope{AccountID: "acc-1", TunnelID: "tun-1"}

type captured struct {
	method    string
	path      string
	rawQuery  string
	auth      string
	requestID string
	body      domain.HostnameInput
}

func newDouble(t *testing.T, handler func(c *gin.Context)) (*httptest.Server, *[]captured) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	calls := &[]captured{}

	router := gin.New()
	router.Any("/*any", func(c *gin.Context) {
		rec := captured{
			method:    c.Request.Method,
			path:      c.Request.URL.EscapedPath(),
			rawQuery:  c.Request.URL.RawQuery,
			auth:      c.GetHeader("Authorization"),
			requestID: c.GetHeader(RequestIDHeader),
		}
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			_ = c.ShouldBindJSON(&rec.body)
		}
		*calls = append(*calls, rec)
		handler(c)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, calls
}

func success(data any) func(c *gin.Context) {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
	}
}

func TestListHostnames(t *testing.T) {
	srv, calls := newDouble(t, success(gin.H{
		"message":   "Public hostnames retrieved successfully",
		"hostnames": []gin.H{{"hostname": "api.example.com", "service": "http://localhost:8080", "path": "/"}},
		"total":     1,
	}))
	c := New(srv.URL, WithToken("tok"))

	list, err := c.ListHostnames(context.Background(), scope)
	require.NoError(t, err)
	require.Len(t, list.Hostnames, 1)
	assert.Equal(t, "api.example.com", list.Hostnames[0].Hostname)
	assert.Equal(t, 1, list.Total)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/api/cloudflare/accounts/acc-1/tunnels/tun-1/hostnames", call.path)
	assert.Equal(t, "Bearer tok", call.auth)
	assert.NotEmpty(t, call.requestID)
}

func TestListHostnames_MissingField(t *testing.T) {
	srv, _ := newDouble(t, success(gin.H{"total": 0}))

	_, err := New(srv.URL).ListHostnames(context.Background(), scope)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Envelope)
}

func TestUpdateHostname_UsesOriginalKey(t *testing.T) {
	srv, calls := newDouble(t, success(gin.H{"target_hostname": "old.example.com", "new_hostname": "new.example.com"}))
	in := domain.HostnameInput{Hostname: "new.example.com", Service: "http://localhost:8080", Path: "/"}

	res, err := New(srv.URL).UpdateHostname(context.Background(), scope, "old.example.com", in)
	require.NoError(t, err)
	assert.Equal(t, "new.example.com", res.NewHostname)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPut, call.method)
	assert.Equal(t, "/api/cloudflare/accounts/acc-1/tunnels/tun-1/hostnames/old.example.com", call.path)
	assert.Equal(t, in, call.body)
}

func TestDeleteHostname_EscapesKey(t *testing.T) {
	srv, calls := newDouble(t, success(gin.H{"deleted_hostname": "a b.example.com"}))

	_, err := New(srv.URL).DeleteHostname(context.Background(), scope, "a b.example.com")
	require.NoError(t, err)
	assert.Equal(t, "/api/cloudflare/accounts/acc-1/tunnels/tun-1/hostnames/a%20b.example.com", (*calls)[0].path)
}

func TestListZones_DropdownQuery(t *testing.T) {
	srv, calls := newDouble(t, success(gin.H{
		"zones": []gin.H{{"id": "z1", "name": "example.com", "status": "active", "type": "full"}},
		"total": 1,
	}))

	zones, err := New(srv.URL).ListZones(context.Background(), "acc-1", DropdownQuery)
	require.NoError(t, err)
	assert.Equal(t, []domain.Zone{{ID: "z1", Name: "example.com", Status: "active", Type: "full"}}, zones.Zones)
	assert.Equal(t, "/api/cloudflare/accounts/acc-1/zones/dropdown", (*calls)[0].path)
	assert.Equal(t, "active_only=true&limit=50", (*calls)[0].rawQuery)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     func(c *gin.Context)
		wantStatus  int
		wantMessage string
		envelope    bool
	}{
		{
			name: "error envelope with message",
			handler: func(c *gin.Context) {
				c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "A hostname with this name already exists"})
			},
			wantStatus:  http.StatusConflict,
			wantMessage: "A hostname with this name already exists",
			envelope:    true,
		},
		{
			name: "non json body",
			handler: func(c *gin.Context) {
				c.String(http.StatusBadGateway, "bad gateway")
			},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "HTTP error! status: 502",
		},
		{
			name: "success status but error envelope",
			handler: func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "error", "message": "quota exceeded"})
			},
			wantStatus:  http.StatusOK,
			wantMessage: "quota exceeded",
			envelope:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newDouble(t, tt.handler)

			_, err := New(srv.URL).CreateHostname(context.Background(), scope, domain.HostnameInput{Hostname: "a.example.com"})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Error())
			assert.Equal(t, tt.envelope, apiErr.Envelope)
		})
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newDouble(t, func(c *gin.Context) {
		select {
		case <-release:
		case <-c.Request.Context().Done():
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).ListHostnames(context.Background(), scope)
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.True(t, tErr.Timeout())
}

func TestTransportError(t *testing.T) {
	srv, _ := newDouble(t, success(nil))
	srv.Close()

	_, err := New(srv.URL).ListHostnames(context.Background(), scope)
	var tErr *TransportError
	assert.True(t, errors.As(err, &tErr))
}

func TestLogin(t *testing.T) {
	srv, calls := newDouble(t, success(gin.H{"token": "session-1", "username": "admin"}))

	res, err := New(srv.URL).Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "session-1", res.Token)
	assert.Equal(t, "/api/auth/login", (*calls)[0].path)
}

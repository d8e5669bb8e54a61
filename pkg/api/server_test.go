package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/shastra-shield/pkg/advisor"
	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
	"github.com/ExclusiveAccount/shastra-shield/pkg/drill"
	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
	"github.com/ExclusiveAccount/shastra-shield/pkg/session"
	"github.com/ExclusiveAccount/shastra-shield/pkg/views"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Simulation.DrillDelay = 0
	return cfg
}

// testClient replays the session cookie like a browser would
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newTestClient(t *testing.T, srv *Server) *testClient {
	t.Helper()
	return &testClient{t: t, handler: srv.Handler()}
}

func (tc *testClient) do(method, path string, body any) *httptest.ResponseRecorder {
	tc.t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			tc.t.Fatalf("marshal request: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if tc.cookie != nil {
		req.AddCookie(tc.cookie)
	}

	w := httptest.NewRecorder()
	tc.handler.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name == sessionCookie {
			tc.cookie = ck
		}
	}
	return w
}

func (tc *testClient) login() {
	tc.t.Helper()
	w := tc.do(http.MethodPost, "/api/login", LoginRequest{Identity: "agent@home", Secret: "s3cret"})
	if w.Code != http.StatusOK {
		tc.t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGate_UnauthenticatedSeesOnlyLogin(t *testing.T) {
	t.Parallel()
	srv := NewServer(testConfig(), quietLogger())
	tc := newTestClient(t, srv)

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/navigation", nil},
		{http.MethodGet, "/api/views/safety-hub", nil},
		{http.MethodGet, "/api/views/iot-inventory", nil},
		{http.MethodPost, "/api/protection", map[string]bool{"autonomous": false}},
		{http.MethodPost, "/api/drill", nil},
		{http.MethodGet, "/api/devices", nil},
		{http.MethodPost, "/api/devices", ProvisionRequest{Name: "Lamp", Type: models.DeviceTypeLight}},
		{http.MethodGet, "/api/alerts", nil},
		{http.MethodPost, "/api/advisor/explain", ExplainRequest{ThreatType: "Brute Force", DeviceName: "Backyard Cam"}},
		{http.MethodPost, "/api/logout", nil},
	}

	for _, rq := range requests {
		w := tc.do(rq.method, rq.path, rq.body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", rq.method, rq.path, w.Code)
			continue
		}
		resp := decode[struct {
			Login views.LoginView `json:"login"`
		}](t, w)
		if resp.Login.Submit != "Establish Link" {
			t.Errorf("%s %s: expected login form, got %+v", rq.method, rq.path, resp.Login)
		}
	}

	tc.login()
	devices := decode[[]models.Device](t, tc.do(http.MethodGet, "/api/devices", nil))
	if len(devices) != 3 {
		t.Errorf("Expected registry untouched (3 devices), got %d", len(devices))
	}
	alerts := decode[[]models.ThreatEvent](t, tc.do(http.MethodGet, "/api/alerts", nil))
	if len(alerts) != 0 {
		t.Errorf("Expected no threats recorded, got %d", len(alerts))
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		req      LoginRequest
		wantCode int
	}{
		{"empty identity", LoginRequest{Identity: "", Secret: "x"}, http.StatusUnauthorized},
		{"empty secret", LoginRequest{Identity: "x", Secret: ""}, http.StatusUnauthorized},
		{"valid", LoginRequest{Identity: "a", Secret: "b"}, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tc := newTestClient(t, NewServer(testConfig(), quietLogger()))

			w := tc.do(http.MethodPost, "/api/login", tt.req)
			if w.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}

			if tt.wantCode == http.StatusOK {
				resp := decode[struct {
					User       string          `json:"user"`
					Navigation []views.NavItem `json:"navigation"`
				}](t, w)
				if resp.User != tt.req.Identity {
					t.Errorf("Expected user %q, got %q", tt.req.Identity, resp.User)
				}
				if len(resp.Navigation) != 5 {
					t.Errorf("Expected 5 destinations, got %d", len(resp.Navigation))
				}
				return
			}

			resp := decode[struct {
				Error string          `json:"error"`
				Login views.LoginView `json:"login"`
			}](t, w)
			if resp.Login.Error != "Invalid Credentials Vault" {
				t.Errorf("Expected inline credential error, got %+v", resp.Login)
			}
		})
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	t.Parallel()
	srv := NewServer(testConfig(), quietLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	tc := newTestClient(t, NewServer(testConfig(), quietLogger()))
	tc.login()

	if w := tc.do(http.MethodPost, "/api/logout", nil); w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	if w := tc.do(http.MethodGet, "/api/views/safety-hub", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected views gated after logout, got %d", w.Code)
	}
}

func TestSessionsAreIsolatedByCookie(t *testing.T) {
	t.Parallel()
	srv := NewServer(testConfig(), quietLogger())
	alice := newTestClient(t, srv)
	bob := newTestClient(t, srv)

	alice.login()
	if w := bob.do(http.MethodGet, "/api/devices", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected second client to be unauthenticated, got %d", w.Code)
	}
}

func TestViews(t *testing.T) {
	t.Parallel()
	tc := newTestClient(t, NewServer(testConfig(), quietLogger()))
	tc.login()

	w := tc.do(http.MethodGet, "/api/views/safety-hub", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	vm := decode[views.ViewModel](t, w)
	if vm.SafetyHub == nil || vm.SafetyHub.ActiveNodes != 3 {
		t.Fatalf("Unexpected safety hub %+v", vm.SafetyHub)
	}
	if vm.Sidebar.User != "agent@home" {
		t.Errorf("Expected sidebar user, got %q", vm.Sidebar.User)
	}

	vm = decode[views.ViewModel](t, tc.do(http.MethodGet, "/api/views/Mitigation%20Center", nil))
	if vm.Notice != "The Mitigation Center module is running in background autonomous mode." {
		t.Errorf("Unexpected placeholder notice %q", vm.Notice)
	}

	if w := tc.do(http.MethodGet, "/api/views/settings", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown view, got %d", w.Code)
	}
}

func TestNavigation(t *testing.T) {
	t.Parallel()
	tc := newTestClient(t, NewServer(testConfig(), quietLogger()))
	tc.login()

	nav := decode[[]views.NavItem](t, tc.do(http.MethodGet, "/api/navigation", nil))
	if len(nav) != 5 || nav[0].Label != "Safety Hub" {
		t.Errorf("Unexpected navigation %+v", nav)
	}
}

func TestProvisionDevice(t *testing.T) {
	t.Parallel()
	tc := newTestClient(t, NewServer(testConfig(), quietLogger()))
	tc.login()

	ip := "192.168.1.99"
	w := tc.do(http.MethodPost, "/api/devices", ProvisionRequest{Name: "Lamp", Type: models.DeviceTypeLight, IP: &ip})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[struct {
		Device  models.Device `json:"device"`
		Message string        `json:"message"`
	}](t, w)
	if resp.Device.ID != "d4" || resp.Device.Status != models.DeviceStatusSecure || resp.Device.Criticality != 5 {
		t.Errorf("Unexpected device %+v", resp.Device)
	}
	if resp.Message != "Lamp provisioned successfully." {
		t.Errorf("Unexpected message %q", resp.Message)
	}

	w = tc.do(http.MethodPost, "/api/devices", map[string]string{"name": "Mystery"})
	resp = decode[struct {
		Device  models.Device `json:"device"`
		Message string        `json:"message"`
	}](t, w)
	if resp.Device.ID != "d5" || resp.Device.IP != "192.168.1.XX" || resp.Device.Type != models.DeviceTypeCamera {
		t.Errorf("Expected form defaults applied, got %+v", resp.Device)
	}

	vm := decode[views.ViewModel](t, tc.do(http.MethodGet, "/api/views/safety-hub", nil))
	if vm.SafetyHub.ActiveNodes != 5 {
		t.Errorf("Expected 5 active nodes, got %d", vm.SafetyHub.ActiveNodes)
	}
}

func TestProtectionToggle(t *testing.T) {
	t.Parallel()
	tc := newTestClient(t, NewServer(testConfig(), quietLogger()))
	tc.login()

	if w := tc.do(http.MethodPost, "/api/protection", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing toggle, got %d", w.Code)
	}

	w := tc.do(http.MethodPost, "/api/protection", map[string]bool{"autonomous": false})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	vm := decode[views.ViewModel](t, tc.do(http.MethodGet, "/api/views/neural-hub", nil))
	if vm.Sidebar.ProtectionMode != models.ProtectionModeLearning {
		t.Errorf("Expected Learning, got %s", vm.Sidebar.ProtectionMode)
	}
}

func TestDrill(t *testing.T) {
	t.Parallel()
	tc := newTestClient(t, NewServer(testConfig(), quietLogger()))
	tc.login()

	for i := 0; i < 2; i++ {
		w := tc.do(http.MethodPost, "/api/drill", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("drill %d: expected 200, got %d", i, w.Code)
		}
		res := decode[drill.Result](t, w)
		if res.Event.Target != "Backyard Cam" || res.Notification != "Anomaly detected on Backyard Cam!" {
			t.Errorf("Unexpected drill result %+v", res)
		}
	}

	alerts := decode[[]models.ThreatEvent](t, tc.do(http.MethodGet, "/api/alerts", nil))
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}

	vm := decode[views.ViewModel](t, tc.do(http.MethodGet, "/api/views/safety-hub", nil))
	if len(vm.Sidebar.Alerts) != 2 {
		t.Errorf("Expected 2 sidebar alerts, got %d", len(vm.Sidebar.Alerts))
	}
	if vm.SafetyHub.Metrics[2].Value != "0" {
		t.Errorf("Expected threat card to stay 0, got %s", vm.SafetyHub.Metrics[2].Value)
	}
}

type stubProvider struct {
	text string
	err  error
}

func (p stubProvider) Generate(context.Context, string) (string, error) {
	return p.text, p.err
}

func TestAdvisor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		advisor      *advisor.Advisor
		want         string
		wantFallback bool
	}{
		{"unconfigured", advisor.New(nil, 0, quietLogger()), advisor.FallbackUnconfigured, true},
		{"provider error", advisor.New(stubProvider{err: errors.New("quota")}, 0, quietLogger()), advisor.FallbackProviderError, true},
		{"provider text", advisor.New(stubProvider{text: "Credential stuffing blocked."}, 0, quietLogger()), "Credential stuffing blocked.", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tc := newTestClient(t, NewServer(testConfig(), quietLogger(), WithAdvisor(tt.advisor)))
			tc.login()

			w := tc.do(http.MethodPost, "/api/advisor/explain", ExplainRequest{ThreatType: "Brute Force", DeviceName: "Backyard Cam"})
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			resp := decode[struct {
				Explanation string `json:"explanation"`
				Fallback    bool   `json:"fallback"`
			}](t, w)
			if resp.Explanation != tt.want || resp.Fallback != tt.wantFallback {
				t.Errorf("Unexpected response %+v", resp)
			}

			msgs := decode[[]models.AdvisoryMessage](t, tc.do(http.MethodGet, "/api/advisor/messages", nil))
			if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Content != tt.want {
				t.Errorf("Unexpected history %+v", msgs)
			}
		})
	}
}

func TestAdvisor_EmptyFieldsUseFallback(t *testing.T) {
	t.Parallel()
	tc := newTestClient(t, NewServer(testConfig(), quietLogger()))
	tc.login()

	w := tc.do(http.MethodPost, "/api/advisor/explain", map[string]string{"threat_type": "Brute Force"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[struct {
		Explanation string `json:"explanation"`
	}](t, w)
	if resp.Explanation != advisor.FallbackUnconfigured {
		t.Errorf("Expected fallback text, got %q", resp.Explanation)
	}
}

func TestAdvisor_HistoryIsPerSession(t *testing.T) {
	t.Parallel()
	srv := NewServer(testConfig(), quietLogger())
	alice := newTestClient(t, srv)
	bob := newTestClient(t, srv)
	alice.login()
	bob.login()

	for i := 0; i < 2; i++ {
		alice.do(http.MethodPost, "/api/advisor/explain", ExplainRequest{ThreatType: "Brute Force", DeviceName: "Backyard Cam"})
	}

	msgs := decode[[]models.AdvisoryMessage](t, alice.do(http.MethodGet, "/api/advisor/messages", nil))
	if len(msgs) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(msgs))
	}
	ids := make(map[string]bool)
	for _, m := range msgs {
		if ids[m.ID] {
			t.Errorf("Duplicate message id %s", m.ID)
		}
		ids[m.ID] = true
	}

	if other := decode[[]models.AdvisoryMessage](t, bob.do(http.MethodGet, "/api/advisor/messages", nil)); len(other) != 0 {
		t.Errorf("Expected another session to see no history, got %d messages", len(other))
	}
}

func TestAdvisor_HistoryIsCapped(t *testing.T) {
	t.Parallel()
	tc := newTestClient(t, NewServer(testConfig(), quietLogger()))
	tc.login()

	for i := 0; i < session.AdvisoryHistoryLimit; i++ {
		tc.do(http.MethodPost, "/api/advisor/explain", ExplainRequest{ThreatType: "Brute Force", DeviceName: "Backyard Cam"})
	}

	msgs := decode[[]models.AdvisoryMessage](t, tc.do(http.MethodGet, "/api/advisor/messages", nil))
	if len(msgs) != session.AdvisoryHistoryLimit {
		t.Errorf("Expected %d messages, got %d", session.AdvisoryHistoryLimit, len(msgs))
	}
}

func TestSessions_RejectedRequestsAreNotStored(t *testing.T) {
	t.Parallel()
	store := session.NewStore(testConfig().Simulation, quietLogger())
	srv := NewServer(testConfig(), quietLogger(), WithSessionStore(store))

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401, got %d", w.Code)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Fatal("Expected no session cookie before login")
		}
	}

	tc := newTestClient(t, srv)
	tc.do(http.MethodPost, "/api/login", LoginRequest{Identity: "", Secret: ""})
	if store.Len() != 0 {
		t.Errorf("Expected no stored sessions after rejected requests, got %d", store.Len())
	}

	tc.login()
	if store.Len() != 1 {
		t.Errorf("Expected 1 stored session after login, got %d", store.Len())
	}
	tc.login()
	if store.Len() != 1 {
		t.Errorf("Expected repeated login to reuse the session, got %d", store.Len())
	}
}

func TestSessions_IdleSessionExpires(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	store := session.NewStore(testConfig().Simulation, quietLogger(),
		session.WithIdleTimeout(time.Minute),
		session.WithStoreClock(clock),
	)
	tc := newTestClient(t, NewServer(testConfig(), quietLogger(), WithSessionStore(store)))
	tc.login()

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	if w := tc.do(http.MethodGet, "/api/devices", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected expired session to be gated, got %d", w.Code)
	}
	if removed := store.Expire(); removed != 1 {
		t.Errorf("Expected 1 expired session, got %d", removed)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.EnableCORS = true
	srv := NewServer(cfg, quietLogger())

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected CORS headers, got %v", w.Header())
	}
}

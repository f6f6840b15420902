package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"safety-lms/backend/internal/config"
	"safety-lms/backend/internal/repository"
	"safety-lms/backend/pkg/models"

	"github.com/coreos/go-oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

// MockKeySet satisfies oidc.KeySet to bypass signature verification
type MockKeySet struct{}

func (m *MockKeySet) VerifySignature(ctx context.Context, jwtToken string) ([]byte, error) {
	parts := strings.Split(jwtToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed jwt")
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}

// MockLearners satisfies repository.LearnerStore
type MockLearners struct {
	mock.Mock
}

func (m *MockLearners) GetLearnerByEmail(ctx context.Context, email string) (*models.Learner, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Learner), args.Error(1)
}

func (m *MockLearners) CreateLearner(ctx context.Context, learner *models.Learner) error {
	args := m.Called(ctx, learner)
	return args.Error(0)
}

const testIssuer = "https://test-issuer.com"

// fakeToken builds an unsigned JWT accepted by MockKeySet.
func fakeToken(email, name string) string {
	claims := map[string]interface{}{
		"iss":   testIssuer,
		"aud":   "test-client",
		"sub":   "test-user",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Add(-1 * time.Minute).Unix(),
		"email": email,
		"name":  name,
	}
	headerBytes, _ := json.Marshal(map[string]interface{}{"alg": "RS256", "typ": "JWT", "kid": "test-key"})
	payload, _ := json.Marshal(claims)
	return base64.RawURLEncoding.EncodeToString(headerBytes) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("fakesignature"))
}

func testVerifier() *oidc.IDTokenVerifier {
	return oidc.NewVerifier(testIssuer, &MockKeySet{}, &oidc.Config{
		ClientID:          "test-client",
		SkipClientIDCheck: true, // Matches logic in auth.go for apiVerifier
	})
}

func TestRequireAuth_BearerToken_ExtractsLearner(t *testing.T) {
	learners := new(MockLearners)
	learners.On("GetLearnerByEmail", mock.Anything, "ana@plant.example").
		Return(&models.Learner{ID: "learner-123", Email: "ana@plant.example"}, nil)

	a := &Auth{apiVerifier: testVerifier(), learners: learners}

	req := httptest.NewRequest("POST", "/api/v1/pages", nil)
	req.Header.Set("Authorization", "Bearer "+fakeToken("Ana@Plant.example", "Ana"))
	rec := httptest.NewRecorder()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		learnerID, ok := LearnerID(r.Context())
		assert.True(t, ok, "learner id should be in context")
		assert.Equal(t, "learner-123", learnerID)
		assert.False(t, IsService(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	a.RequireAuth(nextHandler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Logf("Response Body: %s", rec.Body.String())
	}
	assert.Equal(t, http.StatusOK, rec.Code)
	learners.AssertExpectations(t)
}

func TestRequireAuth_BypassMode(t *testing.T) {
	learners := new(MockLearners)
	learners.On("GetLearnerByEmail", mock.Anything, DevLearnerEmail).Return(nil, repository.ErrNotFound)
	learners.On("CreateLearner", mock.Anything, mock.MatchedBy(func(l *models.Learner) bool {
		return l.Email == DevLearnerEmail
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Learner).ID = "dev-learner-id"
	}).Return(nil)

	cfg := &config.Config{
		Environment:   "DEV",
		DevModeBypass: true,
	}
	a, err := New(context.Background(), cfg, learners, &NoOpLogger{})
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/progress", nil)
	rec := httptest.NewRecorder()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		learnerID, ok := LearnerID(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "dev-learner-id", learnerID)
		w.WriteHeader(http.StatusOK)
	})

	a.RequireAuth(nextHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	learners.AssertExpectations(t)
}

func TestRequireAuth_AutoProvisionLearner(t *testing.T) {
	learners := new(MockLearners)
	learners.On("GetLearnerByEmail", mock.Anything, "new.hire@plant.example").Return(nil, repository.ErrNotFound)
	learners.On("CreateLearner", mock.Anything, mock.MatchedBy(func(l *models.Learner) bool {
		return l.Email == "new.hire@plant.example" && l.Name == "New Hire"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Learner).ID = "new-learner-id"
	}).Return(nil)

	a := &Auth{apiVerifier: testVerifier(), learners: learners}
	req := httptest.NewRequest("POST", "/api/v1/pages", nil)
	req.Header.Set("Authorization", "Bearer "+fakeToken("new.hire@plant.example", "New Hire"))
	rec := httptest.NewRecorder()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		learnerID, _ := LearnerID(r.Context())
		assert.Equal(t, "new-learner-id", learnerID)
		w.WriteHeader(http.StatusOK)
	})

	a.RequireAuth(nextHandler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	learners.AssertExpectations(t)
}

func TestRequireAuth_LookupFailure(t *testing.T) {
	learners := new(MockLearners)
	learners.On("GetLearnerByEmail", mock.Anything, "ana@plant.example").Return(nil, errors.New("db down"))

	a := &Auth{apiVerifier: testVerifier(), learners: learners, logger: &NoOpLogger{}}
	req := httptest.NewRequest("GET", "/api/v1/progress", nil)
	req.Header.Set("Authorization", "Bearer "+fakeToken("ana@plant.example", ""))
	rec := httptest.NewRecorder()

	a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	learners.AssertNotCalled(t, "CreateLearner", mock.Anything, mock.Anything)
}

func TestRequireAuth_ServiceToken(t *testing.T) {
	learners := new(MockLearners)
	a := &Auth{apiVerifier: testVerifier(), learners: learners, serviceToken: "svc-secret"}

	req := httptest.NewRequest("POST", "/api/v1/progress", nil)
	req.Header.Set("Authorization", "Bearer svc-secret")
	rec := httptest.NewRecorder()

	a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, IsService(r.Context()))
		_, ok := LearnerID(r.Context())
		assert.False(t, ok)
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	learners.AssertNotCalled(t, "GetLearnerByEmail", mock.Anything, mock.Anything)
}

func TestRequireAuth_InvalidBearer(t *testing.T) {
	a := &Auth{apiVerifier: testVerifier(), learners: new(MockLearners), serviceToken: "svc-secret"}

	req := httptest.NewRequest("GET", "/api/v1/progress", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_NoCredentialsRedirects(t *testing.T) {
	a := &Auth{verifier: testVerifier(), apiVerifier: testVerifier(), learners: new(MockLearners)}

	rec := httptest.NewRecorder()
	a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	})).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/progress", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

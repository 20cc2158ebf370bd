package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "classreg/internal/jwt_token"
	ratelimitmw "classreg/internal/ratelimit/middleware"
	"classreg/internal/ratelimit/store/bucket"
	"classreg/internal/registry/events"
	"classreg/internal/registry/models"
	"classreg/internal/registry/service"
	"classreg/internal/registry/store"
	id "classreg/pkg/domain"
	dErrors "classreg/pkg/domain-errors"
	authmw "classreg/pkg/platform/middleware/auth"
	"classreg/pkg/testutil"
)

type apiFixture struct {
	router   chi.Router
	recorder *events.Recorder
	tokens   *jwttoken.JWTService
	owner    id.AccountID
	stranger id.AccountID
}

func newAPI(t *testing.T, readLimit int) apiFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := apiFixture{
		recorder: &events.Recorder{},
		tokens:   jwttoken.NewJWTService("test-signing-key", "classreg", "classreg-api"),
		owner:    id.DeriveAccountID("homeroom"),
		stranger: id.DeriveAccountID("student"),
	}

	svc, err := service.Open(context.Background(), f.owner, store.NewInMemory(),
		service.WithLogger(logger),
		service.WithNotifier(f.recorder),
	)
	require.NoError(t, err)

	limiter := ratelimitmw.New(bucket.NewInMemoryBucketStore(), readLimit, time.Minute, logger)
	h := New(svc, logger,
		WithAuth(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(f.tokens), logger)),
		WithReadLimit(limiter.RateLimit),
	)
	f.router = chi.NewRouter()
	h.Register(f.router)
	return f
}

func (f apiFixture) token(t *testing.T, account id.AccountID) string {
	t.Helper()
	token, err := f.tokens.GenerateAccessToken(account, time.Hour)
	require.NoError(t, err)
	return token
}

func (f apiFixture) update(t *testing.T, token string, path string, name string, score uint32) int {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{"name": name, "score": score})
	if token != "" {
		req = testutil.WithBearer(req, token)
	}
	return testutil.DoRequest(f.router, req).Code
}

func TestAPI_OwnerUpdateAndRead(t *testing.T) {
	f := newAPI(t, 0)
	ownerToken := f.token(t, f.owner)

	testutil.When(t, "the owner records Alice with score 9", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.update(t, ownerToken, "/students/1", "Alice", 9))
	})

	testutil.Then(t, "anyone reads back her name and tier", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/1"))
		testutil.AssertStatusOK(t, rr)
		record := testutil.UnmarshalResponse[models.StudentRecord](t, rr)
		assert.Equal(t, "Alice", record.Name)
		assert.Equal(t, models.TierExcellent, record.Level)

		rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/1/level"))
		testutil.AssertJSONContains(t, rr, "level", "Excellent")
	})

	testutil.Then(t, "one notification carries the name and score", func(t *testing.T) {
		require.Equal(t, 1, f.recorder.Len())
		n := f.recorder.Events()[0].Event
		require.NotNil(t, n.Student)
		require.NotNil(t, n.Point)
		assert.Equal(t, "Alice", *n.Student)
		assert.Equal(t, uint32(9), *n.Point)
	})

	testutil.When(t, "the owner overwrites the record", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, f.update(t, ownerToken, "/students/1", "Alicia", 4))
	})

	testutil.Then(t, "both values are replaced", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/1/name"))
		testutil.AssertJSONContains(t, rr, "name", "Alicia")
		rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/1/level"))
		testutil.AssertJSONContains(t, rr, "level", "Fail")
	})
}

func TestAPI_RejectedWritesLeaveStateUnchanged(t *testing.T) {
	f := newAPI(t, 0)
	require.Equal(t, http.StatusNoContent, f.update(t, f.token(t, f.owner), "/students/5", "Bob", 6))

	testutil.Given(t, "requests that must not write", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, f.update(t, "", "/students/5", "Mallory", 10))
		assert.Equal(t, http.StatusUnauthorized, f.update(t, "not-a-jwt", "/students/5", "Mallory", 10))
		assert.Equal(t, http.StatusForbidden, f.update(t, f.token(t, f.stranger), "/students/5", "Mallory", 10))
		assert.Equal(t, http.StatusBadRequest, f.update(t, f.token(t, f.owner), "/students/5", "Mallory", 0))
		assert.Equal(t, http.StatusBadRequest, f.update(t, f.token(t, f.owner), "/students/5", "Mallory", 11))
		assert.Equal(t, http.StatusBadRequest, f.update(t, f.token(t, f.owner), "/students/5", "Mal\x00lory", 7))
	})

	testutil.Then(t, "the record and notification log are untouched", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/5"))
		record := testutil.UnmarshalResponse[models.StudentRecord](t, rr)
		assert.Equal(t, "Bob", record.Name)
		assert.Equal(t, models.TierAverage, record.Level)
		assert.Equal(t, 1, f.recorder.Len())
	})
}

func TestAPI_ValidationErrorCodes(t *testing.T) {
	f := newAPI(t, 0)

	req := testutil.NewJSONRequest(t, http.MethodPut, "/students/5", map[string]any{"name": "X", "score": 0})
	rr := testutil.DoRequest(f.router, testutil.WithBearer(req, f.token(t, f.owner)))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))

	req = testutil.NewJSONRequest(t, http.MethodPut, "/students/5", map[string]any{"name": "X", "score": 9})
	rr = testutil.DoRequest(f.router, testutil.WithBearer(req, f.token(t, f.stranger)))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}

func TestAPI_UnknownStudentDefaults(t *testing.T) {
	f := newAPI(t, 0)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/123"))

	testutil.AssertStatusOK(t, rr)
	record := testutil.UnmarshalResponse[models.StudentRecord](t, rr)
	assert.Equal(t, models.StudentRecord{ID: 123, Name: "", Level: models.TierUnrated}, *record)
}

func TestAPI_OwnerEndpoint(t *testing.T) {
	f := newAPI(t, 0)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/owner"))

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "owner", f.owner.String())
}

func TestAPI_ReadsAreRateLimited(t *testing.T) {
	f := newAPI(t, 2)

	for range 2 {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/1/name"))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/1/name"))
	testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, "rate_limited")
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	testutil.Then(t, "other routes and health checks keep their own budget", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/students/1/level"))
		assert.Equal(t, http.StatusOK, rr.Code)
		rr = testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

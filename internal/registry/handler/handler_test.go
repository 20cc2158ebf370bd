package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"classreg/internal/registry/handler/mocks"
	"classreg/internal/registry/models"
	id "classreg/pkg/domain"
	dErrors "classreg/pkg/domain-errors"
	"classreg/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	owner   id.AccountID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.owner = id.DeriveAccountID("owner")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// The caller is injected per request through testutil.WithCaller.
	h := New(s.service, logger, WithAuth(passThrough))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) put(path string, body any) *http.Request {
	return testutil.WithCaller(testutil.NewJSONRequest(s.T(), http.MethodPut, path, body), s.owner)
}

func (s *HandlerSuite) TestUpdateStudent() {
	s.Run("valid body returns 204", func() {
		s.service.EXPECT().UpdateStudent(gomock.Any(), s.owner, id.StudentID(7), "Alice", uint32(9)).Return(nil)

		rr := testutil.DoRequest(s.router, s.put("/students/7", map[string]any{"name": "Alice", "score": 9}))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
		s.Empty(rr.Body.String())
	})

	s.Run("empty name is forwarded", func() {
		s.service.EXPECT().UpdateStudent(gomock.Any(), s.owner, id.StudentID(7), "", uint32(5)).Return(nil)

		rr := testutil.DoRequest(s.router, s.put("/students/7", map[string]any{"name": "", "score": 5}))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("non-owner is forbidden", func() {
		s.service.EXPECT().UpdateStudent(gomock.Any(), s.owner, id.StudentID(7), "Mallory", uint32(10)).
			Return(dErrors.New(dErrors.CodeForbidden, "only the registry owner may update students"))

		rr := testutil.DoRequest(s.router, s.put("/students/7", map[string]any{"name": "Mallory", "score": 10}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("out of range score is a validation error", func() {
		s.service.EXPECT().UpdateStudent(gomock.Any(), s.owner, id.StudentID(7), "Alice", uint32(11)).
			Return(dErrors.Wrap(models.ErrInvalidScore, dErrors.CodeValidation, "score must be between 1 and 10"))

		rr := testutil.DoRequest(s.router, s.put("/students/7", map[string]any{"name": "Alice", "score": 11}))

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		resp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal(string(dErrors.CodeValidation), resp["error"])
		s.Equal("score must be between 1 and 10", resp["error_description"])
	})

	s.Run("store failure hides its cause", func() {
		s.service.EXPECT().UpdateStudent(gomock.Any(), s.owner, id.StudentID(7), "Alice", uint32(9)).
			Return(dErrors.Wrap(errors.New("disk on fire"), dErrors.CodeInternal, "failed to update student"))

		rr := testutil.DoRequest(s.router, s.put("/students/7", map[string]any{"name": "Alice", "score": 9}))

		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		resp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal(string(dErrors.CodeInternal), resp["error"])
		s.Empty(resp["error_description"])
	})

	s.Run("malformed requests never reach the service", func() {
		cases := []struct {
			name string
			path string
			body string
		}{
			{"non numeric id", "/students/abc", `{"name":"Alice","score":9}`},
			{"id beyond uint32", "/students/4294967296", `{"name":"Alice","score":9}`},
			{"negative id", "/students/-1", `{"name":"Alice","score":9}`},
			{"not json", "/students/7", `not json`},
			{"negative score", "/students/7", `{"name":"Alice","score":-1}`},
			{"missing score", "/students/7", `{"name":"Alice"}`},
			{"missing name", "/students/7", `{"score":9}`},
			{"unknown field", "/students/7", `{"name":"Alice","score":9,"owner":"x"}`},
			{"trailing object", "/students/7", `{"name":"Alice","score":9}{}`},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				req := testutil.WithCaller(testutil.NewRequestWithBody(s.T(), http.MethodPut, tc.path, tc.body), s.owner)
				rr := testutil.DoRequest(s.router, req)
				testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
			})
		}
	})

	s.Run("oversized body is rejected", func() {
		body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `","score":9}`
		req := testutil.WithCaller(testutil.NewRequestWithBody(s.T(), http.MethodPut, "/students/7", body), s.owner)

		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		s.Equal("request body too large", testutil.UnmarshalErrorResponse(s.T(), rr)["error_description"])
	})

	s.Run("missing caller is an internal error", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/students/7", map[string]any{"name": "Alice", "score": 9})

		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

func (s *HandlerSuite) TestGetStudentName() {
	s.Run("known student", func() {
		s.service.EXPECT().GetStudentName(gomock.Any(), id.StudentID(7)).Return("Alice", nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/students/7/name"))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[NameResponse](s.T(), rr)
		s.Equal(NameResponse{ID: 7, Name: "Alice"}, *resp)
	})

	s.Run("unknown student reads as empty name", func() {
		s.service.EXPECT().GetStudentName(gomock.Any(), id.StudentID(99)).Return("", nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/students/99/name"))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "name", "")
	})

	s.Run("backend unavailable", func() {
		s.service.EXPECT().GetStudentName(gomock.Any(), id.StudentID(7)).
			Return("", dErrors.New(dErrors.CodeUnavailable, "failed to read student name"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/students/7/name"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
	})

	s.Run("malformed id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/students/seven/name"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
}

func (s *HandlerSuite) TestGetStudentLevel() {
	s.Run("level is rendered as text", func() {
		s.service.EXPECT().GetStudentLevel(gomock.Any(), id.StudentID(7)).Return(models.TierExcellent, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/students/7/level"))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "level", "Excellent")
	})

	s.Run("unknown student is unrated", func() {
		s.service.EXPECT().GetStudentLevel(gomock.Any(), id.StudentID(99)).Return(models.TierUnrated, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/students/99/level"))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[LevelResponse](s.T(), rr)
		s.Equal(models.TierUnrated, resp.Level)
	})
}

func (s *HandlerSuite) TestGetStudent() {
	s.service.EXPECT().GetStudent(gomock.Any(), id.StudentID(4294967295)).Return(models.StudentRecord{
		ID:    4294967295,
		Name:  "Max",
		Level: models.TierGood,
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/students/4294967295"))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[models.StudentRecord](s.T(), rr)
	s.Equal("Max", resp.Name)
	s.Equal(models.TierGood, resp.Level)
	s.Equal(id.StudentID(4294967295), resp.ID)
}

func (s *HandlerSuite) TestGetOwner() {
	s.service.EXPECT().Owner().Return(s.owner)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/owner"))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "owner", s.owner.String())
}

func (s *HandlerSuite) TestHealth() {
	s.Run("healthy backend", func() {
		s.service.EXPECT().Ping(gomock.Any()).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "ok")
	})

	s.Run("unreachable backend", func() {
		s.service.EXPECT().Ping(gomock.Any()).Return(dErrors.New(dErrors.CodeUnavailable, "store unreachable"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))

		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
		testutil.AssertJSONContains(s.T(), rr, "status", "unavailable")
	})
}

func TestNew_WritesDeniedWithoutAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	req := testutil.NewJSONRequest(t, http.MethodPut, "/students/7", map[string]any{"name": "Alice", "score": 9})
	rr := testutil.DoRequest(r, testutil.WithCaller(req, id.DeriveAccountID("owner")))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, string(dErrors.CodeUnauthorized), testutil.UnmarshalErrorResponse(t, rr)["error"])
}

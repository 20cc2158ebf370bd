package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "classreg/internal/jwt_token"
	"classreg/internal/registry/handler"
	"classreg/internal/registry/service"
	"classreg/internal/registry/store"
	id "classreg/pkg/domain"
	authmw "classreg/pkg/platform/middleware/auth"
)

const testKey = "cli-test-key"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func newTestServer(t *testing.T, owner id.AccountID) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.Open(context.Background(), owner, store.NewInMemory(), service.WithLogger(logger))
	require.NoError(t, err)

	tokens := jwttoken.NewJWTService(testKey, "classreg", "classreg-api")
	r := chi.NewRouter()
	handler.New(svc, logger,
		handler.WithAuth(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(tokens), logger)),
	).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestAccountDerive(t *testing.T) {
	out, err := execute(t, "account", "derive", "homeroom")
	require.NoError(t, err)
	assert.Equal(t, id.DeriveAccountID("homeroom").String(), out)

	_, err = execute(t, "account", "derive")
	require.Error(t, err)
}

func TestTokenMintAndVerify(t *testing.T) {
	token, err := execute(t, "--signing-key", testKey, "token", "mint", "--seed", "homeroom")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	out, err := execute(t, "--signing-key", testKey, "token", "verify", token)
	require.NoError(t, err)
	assert.Equal(t, id.DeriveAccountID("homeroom").String(), out)

	_, err = execute(t, "--signing-key", "other-key", "token", "verify", token)
	require.Error(t, err)
}

func TestTokenMint_Flags(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "")

	_, err := execute(t, "token", "mint", "--seed", "homeroom")
	require.ErrorContains(t, err, "signing key is required")

	_, err = execute(t, "--signing-key", testKey, "token", "mint")
	require.Error(t, err)

	_, err = execute(t, "--signing-key", testKey, "token", "mint", "--seed", "a", "--account", "b")
	require.Error(t, err)

	_, err = execute(t, "--signing-key", testKey, "token", "mint", "--account", "not-hex")
	require.Error(t, err)
}

func TestStudentUpdateAndGet(t *testing.T) {
	owner := id.DeriveAccountID("homeroom")
	srv := newTestServer(t, owner)

	token, err := execute(t, "--signing-key", testKey, "token", "mint", "--seed", "homeroom")
	require.NoError(t, err)

	out, err := execute(t, "--server", srv.URL, "student", "update", "7",
		"--name", "Alice", "--score", "9", "--token", token)
	require.NoError(t, err)
	assert.Equal(t, "updated student 7", out)

	out, err = execute(t, "--server", srv.URL, "student", "get", "7")
	require.NoError(t, err)
	assert.Equal(t, `id=7 name="Alice" level=Excellent`, out)
}

func TestStudentUpdate_Rejected(t *testing.T) {
	srv := newTestServer(t, id.DeriveAccountID("homeroom"))

	stranger, err := execute(t, "--signing-key", testKey, "token", "mint", "--seed", "student")
	require.NoError(t, err)

	_, err = execute(t, "--server", srv.URL, "student", "update", "7", "--name", "Mallory", "--score", "9", "--token", stranger)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "forbidden", apiErr.Code)
	assert.Equal(t, 403, apiErr.Status)

	_, err = execute(t, "--server", srv.URL, "student", "update", "7", "--name", "Alice", "--score", "9")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unauthorized", apiErr.Code)

	_, err = execute(t, "--server", srv.URL, "student", "update", "x", "--score", "9")
	require.Error(t, err)

	out, err := execute(t, "--server", srv.URL, "student", "get", "7")
	require.NoError(t, err)
	assert.Equal(t, `id=7 name="" level=Unrated`, out)
}

package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestMissingScopes(t *testing.T) {
	assert.Empty(t, MissingScopes(ScopeSheets+" "+ScopeGmailSend+" openid"))
	assert.Equal(t, []string{ScopeGmailSend}, MissingScopes(ScopeSheets))
	assert.Equal(t, RequiredScopes, MissingScopes(""))
}

func TestTokenStore_RoundTrip(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}

	missing, err := store.Load("dev")
	require.NoError(t, err)
	assert.Nil(t, missing)

	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save("dev", token))

	loaded, err := store.Load("dev")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)

	// Tokens are kept per environment
	other, err := store.Load("prod")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, store.Delete("dev"))
	require.NoError(t, store.Delete("dev"))
	gone, err := store.Load("dev")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCallbackRouter(t *testing.T) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)
	router := callbackRouter(codeChan, errChan)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, callbackPath+"?code=abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", <-codeChan)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, callbackPath, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Error(t, <-errChan)
}

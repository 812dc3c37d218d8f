package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrollment/internal/document/models"
	intakemodels "enrollment/internal/intake/models"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{BaseURL: baseURL, APIKey: "test-key", Model: "test-model"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtractFields(t *testing.T) {
	fields := []string{models.FieldPANNumber, models.FieldName, models.FieldFatherName}

	t.Run("valid reply drops nulls and blanks", func(t *testing.T) {
		srv := chatServer(t, http.StatusOK, `{"pan_number":"ABCDE1234F","name":" Ramesh Patil ","father_name":null}`)
		got, err := newTestClient(srv.URL).ExtractFields(context.Background(), "INCOME TAX DEPARTMENT", models.KindPANCard, fields)
		require.NoError(t, err)
		assert.Equal(t, models.Fields{"pan_number": "ABCDE1234F", "name": "Ramesh Patil"}, got)
	})

	t.Run("unknown key fails schema", func(t *testing.T) {
		srv := chatServer(t, http.StatusOK, `{"pan_number":"ABCDE1234F","salary":"10"}`)
		_, err := newTestClient(srv.URL).ExtractFields(context.Background(), "text", models.KindPANCard, fields)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema validation failed")
	})

	t.Run("non-string value fails schema", func(t *testing.T) {
		srv := chatServer(t, http.StatusOK, `{"pan_number":12345}`)
		_, err := newTestClient(srv.URL).ExtractFields(context.Background(), "text", models.KindPANCard, fields)
		require.Error(t, err)
	})

	t.Run("http error", func(t *testing.T) {
		srv := chatServer(t, http.StatusTooManyRequests, `{}`)
		_, err := newTestClient(srv.URL).ExtractFields(context.Background(), "text", models.KindPANCard, fields)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chat status 429")
	})
}

func TestValidate(t *testing.T) {
	schema := BuildSchema([]string{"a"})
	require.NoError(t, Validate(schema, []byte(`{"a":"x"}`)))
	require.NoError(t, Validate(schema, []byte(`{}`)))
	require.Error(t, Validate(schema, []byte(`{"b":"x"}`)))
	require.Error(t, Validate(schema, []byte(`not json`)))
}

func TestTranslate(t *testing.T) {
	t.Run("returns the model reply", func(t *testing.T) {
		srv := chatServer(t, http.StatusOK, " नमस्ते ")
		got, err := newTestClient(srv.URL).Translate(context.Background(), "Hello", intakemodels.LanguageHindi)
		require.NoError(t, err)
		assert.Equal(t, "नमस्ते", got)
	})

	t.Run("english is returned untouched", func(t *testing.T) {
		got, err := newTestClient("http://127.0.0.1:0").Translate(context.Background(), "Hello", intakemodels.LanguageEnglish)
		require.NoError(t, err)
		assert.Equal(t, "Hello", got)
	})

	t.Run("upstream failure is an error", func(t *testing.T) {
		srv := chatServer(t, http.StatusBadGateway, "")
		_, err := newTestClient(srv.URL).Translate(context.Background(), "Hello", intakemodels.LanguageMarathi)
		require.Error(t, err)
	})
}

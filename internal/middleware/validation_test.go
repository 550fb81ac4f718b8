package middleware

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/shared/testutil"
)

type sampleQuery struct {
	Unit    string `query:"unit" validate:"omitempty,oneof=day month"`
	N       int    `query:"n" validate:"omitempty,min=1,max=10"`
	Flag    bool   `query:"flag"`
	Seed    *int64 `query:"seed"`
	Ignored string
}

type sampleBody struct {
	Path string `json:"path" validate:"required"`
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewValidator(logger, apierrors.NewErrorHandler(logger, false))
}

func apiError(t *testing.T, err error) *apierrors.APIError {
	t.Helper()
	var apiErr *apierrors.APIError
	require.True(t, stderrors.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr
}

func TestDecodeQuery(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name      string
		query     string
		wantErr   bool
		wantField string
		check     func(t *testing.T, q sampleQuery)
	}{
		{
			name:  "empty query keeps zero values",
			query: "",
			check: func(t *testing.T, q sampleQuery) {
				assert.Equal(t, sampleQuery{}, q)
			},
		},
		{
			name:  "all fields",
			query: "unit=day&n=5&flag=true&seed=42&Ignored=x",
			check: func(t *testing.T, q sampleQuery) {
				assert.Equal(t, "day", q.Unit)
				assert.Equal(t, 5, q.N)
				assert.True(t, q.Flag)
				require.NotNil(t, q.Seed)
				assert.Equal(t, int64(42), *q.Seed)
				assert.Empty(t, q.Ignored)
			},
		},
		{name: "bad oneof", query: "unit=week", wantErr: true, wantField: "unit"},
		{name: "above max", query: "n=11", wantErr: true, wantField: "n"},
		{name: "not an int", query: "n=five", wantErr: true, wantField: "n"},
		{name: "bad bool", query: "flag=perhaps", wantErr: true, wantField: "flag"},
		{name: "bad seed", query: "seed=1.5", wantErr: true, wantField: "seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			var q sampleQuery
			err := v.DecodeQuery(req, &q)

			if !tt.wantErr {
				require.NoError(t, err)
				tt.check(t, q)
				return
			}

			apiErr := apiError(t, err)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
			switch d := apiErr.Details.(type) {
			case apierrors.ValidationErrors:
				require.NotEmpty(t, d.Errors)
				assert.Equal(t, tt.wantField, d.Errors[0].Field)
			case apierrors.ValidationError:
				assert.Equal(t, tt.wantField, d.Field)
			default:
				t.Fatalf("unexpected details %T", apiErr.Details)
			}
		})
	}
}

func TestDecodeQuery_RejectsNonStruct(t *testing.T) {
	v := newTestValidator(t)
	var n int
	err := v.DecodeQuery(httptest.NewRequest(http.MethodGet, "/", nil), &n)
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
		wantPath string
	}{
		{name: "valid", body: `{"path":"orders.csv"}`, wantPath: "orders.csv"},
		{name: "missing field", body: `{}`, wantCode: "VALIDATION_FAILED"},
		{name: "unknown field", body: `{"path":"a.csv","extra":1}`, wantCode: "INVALID_REQUEST"},
		{name: "malformed", body: `{"path"`, wantCode: "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var body sampleBody
			err := v.DecodeJSON(req, &body)

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPath, body.Path)
				return
			}
			assert.Equal(t, tt.wantCode, apiError(t, err).ErrorCode)
		})
	}
}

func TestLimitBody(t *testing.T) {
	v := newTestValidator(t)
	h := v.LimitBody(http.HandlerFunc(okHandler))

	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
	}{
		{"get passes", http.MethodGet, "", http.StatusOK},
		{"valid json", http.MethodPost, `{"path":"a.csv"}`, http.StatusOK},
		{"empty body", http.MethodPost, "", http.StatusOK},
		{"invalid json", http.MethodPost, `{not json`, http.StatusBadRequest},
		{"too large", http.MethodPost, `{"path":"` + strings.Repeat("a", 1<<20) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/dataset", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	v := newTestValidator(t)

	type bounds struct {
		Count int    `json:"count" validate:"min=2"`
		Name  string `json:"name" validate:"required"`
		Kind  string `json:"kind" validate:"oneof=a b"`
	}

	err := v.Struct(bounds{Count: 1, Kind: "c"})
	details := apiError(t, err).Details.(apierrors.ValidationErrors)

	messages := map[string]string{}
	for _, e := range details.Errors {
		messages[e.Field] = e.Message
	}
	assert.Equal(t, "count must be at least 2", messages["count"])
	assert.Equal(t, "name is required", messages["name"])
	assert.Equal(t, "kind must be one of: a, b", messages["kind"])
}

package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_SubmitErrors(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantForm  bool
		wantField string
	}{
		{
			name: "field errors",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"tokens":"Not enough tokens"}`))
			},
			wantForm:  true,
			wantField: "tokens",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"Something went wrong."}`))
			},
		},
		{
			name: "redirect to login",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/auth?mode=login", http.StatusSeeOther)
			},
		},
		{
			name: "4xx without a field map",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad", http.StatusBadRequest)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client, err := NewAPIClient(srv.URL)
			require.NoError(t, err)

			_, err = client.Submit("prompt", 10)
			require.Error(t, err)

			var formErr *FormError
			assert.Equal(t, tt.wantForm, errors.As(err, &formErr))
			if tt.wantForm {
				assert.Contains(t, formErr.Fields, tt.wantField)
			}
		})
	}
}

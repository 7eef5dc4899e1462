package httputil

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	const payload = `{"data":{"products":[{"id":42,"salePriceU":129900}]}}`

	tests := []struct {
		name     string
		encoding string
		body     func() []byte
	}{
		{"plain", "", func() []byte { return []byte(payload) }},
		{"gzip", "gzip", func() []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write([]byte(payload))
			_ = zw.Close()
			return buf.Bytes()
		}},
		{"brotli", "br", func() []byte {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write([]byte(payload))
			_ = bw.Close()
			return buf.Bytes()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Write(tt.body())
			}))
			defer srv.Close()

			// a bare transport would transparently gunzip; ask for the encoding explicitly
			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			require.NoError(t, err)
			req.Header.Set("Accept-Encoding", "gzip, br")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			var out struct {
				Data struct {
					Products []struct {
						ID         int64 `json:"id"`
						SalePriceU int64 `json:"salePriceU"`
					} `json:"products"`
				} `json:"data"`
			}
			require.NoError(t, DecodeJSON(resp, &out))
			require.Len(t, out.Data.Products, 1)
			assert.Equal(t, int64(129900), out.Data.Products[0].SalePriceU)
		})
	}
}

func TestDecodeJSONBadGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write([]byte("not gzip"))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var v map[string]any
	assert.Error(t, DecodeJSON(resp, &v))
}

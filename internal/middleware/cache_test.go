package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/flight-reservation/internal/config"
)

func TestEncodeDecodePayload(t *testing.T) {
    header := http.Header{}
    header.Set("Content-Type", "application/json")
    header.Set("X-Custom", "value")
    body := []byte(`{"items":[]}`)

    enc, err := encodePayload(http.StatusOK, header, body)
    require.NoError(t, err)

    status, gotHeader, gotBody, ok := decodePayload(enc)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
    assert.Equal(t, "value", gotHeader.Get("X-Custom"))
    assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
    for _, bs := range [][]byte{nil, {}, {1, 2, 3}, []byte("not a payload")} {
        _, _, _, ok := decodePayload(bs)
        assert.False(t, ok)
    }
}

func TestCacheKeyDistinguishesPathAndQuery(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "cache"}
    e := echo.New()

    key := func(target string) string {
        req := httptest.NewRequest(http.MethodGet, target, nil)
        c := e.NewContext(req, httptest.NewRecorder())
        return cacheKeyFrom(cfg, c)
    }

    a := key("/v1/flights/1/seatmap")
    b := key("/v1/flights/2/seatmap")
    q1 := key("/v1/flights?from=istanbul")
    q2 := key("/v1/flights?from=berlin")

    assert.NotEqual(t, a, b)
    assert.NotEqual(t, q1, q2)
    assert.Equal(t, a, key("/v1/flights/1/seatmap"))
}

func TestNewRedisCachePassThroughWhenDisabled(t *testing.T) {
    mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil)
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/flights", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    called := false
    err := mw(func(c echo.Context) error {
        called = true
        return c.String(http.StatusOK, "ok")
    })(c)
    require.NoError(t, err)
    assert.True(t, called)
    assert.Equal(t, http.StatusOK, rec.Code)
}

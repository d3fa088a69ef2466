package router

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Suhaibinator/SNexus/pkg/common"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestExportAllMethods(t *testing.T) {
	handlers := ExportAllMethods(New[testSession]())

	if len(handlers) != len(SupportedMethods) {
		t.Fatalf("Expected %d entry points, got %d", len(SupportedMethods), len(handlers))
	}
	for _, method := range []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE"} {
		if _, ok := handlers[method]; !ok {
			t.Errorf("Expected an entry point for %s", method)
		}
	}
}

func TestExportedEntryPointRunsChain(t *testing.T) {
	r := New[testSession]()
	r.Use(func(req *common.Request[testSession], res *common.Response, next common.Next) (*common.Result, error) {
		res.SetHeader("X-Chain", "ran")
		return nil, next()
	})
	r.Get(func(req *common.Request[testSession], res *common.Response) (*common.Result, error) {
		return res.Send(map[string]string{"id": req.Param("id")})
	})

	handlers := ExportAllMethods(r)

	rr := httptest.NewRecorder()
	handlers[http.MethodGet](rr, httptest.NewRequest(http.MethodGet, "/users/42", nil),
		httprouter.Params{{Key: "id", Value: "42"}})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"id":"42"}`, rr.Body.String())
	assert.Equal(t, "ran", rr.Header().Get("X-Chain"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	// A method with no handler goes through the failure path
	rr = httptest.NewRecorder()
	handlers[http.MethodPost](rr, httptest.NewRequest(http.MethodPost, "/users/42", nil), nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Internal Server Error: No HTTP method is matched"))
}

func TestExportAllHTTPMethods(t *testing.T) {
	r := New[testSession]()
	handlers := ExportAllHTTPMethods(r, func(req *common.Request[testSession], res *common.Response) (*common.Result, error) {
		return res.Status(http.StatusCreated).Send(map[string]string{"method": req.Method()})
	})

	for _, method := range []string{http.MethodPost, http.MethodPatch} {
		rr := httptest.NewRecorder()
		handlers[method](rr, httptest.NewRequest(method, "/", nil), nil)

		assert.Equal(t, http.StatusCreated, rr.Code, method)
		assert.Equal(t, `{"method":"`+method+`"}`, rr.Body.String(), method)
	}
}

func TestNilResultEndsResponse(t *testing.T) {
	r := New[testSession]()
	r.Use(func(req *common.Request[testSession], res *common.Response, next common.Next) (*common.Result, error) {
		res.Status(http.StatusAccepted).SetHeader("X-Stopped", "yes")
		return nil, nil
	})
	r.Get(okHandler)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "yes", rr.Header().Get("X-Stopped"))
	assert.Empty(t, rr.Body.String())
}

func TestServeHTTPReadsParamsFromContext(t *testing.T) {
	r := New[testSession]().Get(func(req *common.Request[testSession], res *common.Response) (*common.Result, error) {
		return res.Send(map[string]string{"name": req.Param("name")})
	})

	raw := WithParams(httptest.NewRequest(http.MethodGet, "/hello/gopher", nil),
		httprouter.Params{{Key: "name", Value: "gopher"}})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, raw)

	assert.Equal(t, `{"name":"gopher"}`, rr.Body.String())
	assert.Equal(t, "gopher", GetParam(raw, "name"))
}

func TestGetParamsMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Nil(t, GetParams(req))
	assert.Empty(t, GetParam(req, "id"))
}

func TestServeErrorHandlerFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := NewRouter[testSession](RouterConfig{Logger: zap.New(core)})
	r.OnError(func(req *common.Request[testSession], res *common.Response, next common.Next) (*common.Result, error) {
		return nil, errors.New("handler broke")
	})
	r.Get(func(req *common.Request[testSession], res *common.Response) (*common.Result, error) {
		return nil, errors.New("original")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t,
		"Internal Server Error: handler broke\nAdd an onError middleware to the Router instance to handle errors gracefully",
		rr.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("Unhandled error handler failure").Len())
}

func TestNewContext(t *testing.T) {
	raw := httptest.NewRequest(http.MethodPost, "/items/7?sort=asc", strings.NewReader(`{"a":1}`))
	req, res := NewContext[testSession](raw, httprouter.Params{{Key: "id", Value: "7"}})

	assert.Equal(t, "7", req.Param("id"))
	assert.Equal(t, http.StatusOK, res.StatusCode())

	_, ok := req.Query()
	assert.False(t, ok, "query slot is only set by a parsing middleware")
	_, ok = req.Payload()
	assert.False(t, ok)
	_, ok = req.Session()
	assert.False(t, ok)

	body, err := io.ReadAll(req.Body())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(body))
}

package ota

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/muurk/wledflash/internal/logging"
	"github.com/muurk/wledflash/internal/wled"
)

func httpConfigurator() *Configurator {
	return &Configurator{
		Timeout: 2 * time.Second,
		Devices: func(addr string) Device { return wled.NewClientWithURL(addr) },
	}
}

func TestConfigure_AnyOKIsSuccess(t *testing.T) {
	bodies := []string{`{"success":true}`, ``, `OK`, `{"on":true}`}

	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		if !httpConfigurator().Configure(context.Background(), server.URL, wled.DefaultBaseline()) {
			t.Errorf("Configure() = false for 200 with body %q", body)
		}
		server.Close()
	}
}

func TestConfigure_SendsBaseline(t *testing.T) {
	var got struct {
		On  bool `json:"on"`
		Bri int  `json:"bri"`
		Seg []struct {
			Col [][]int `json:"col"`
		} `json:"seg"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/state" {
			t.Errorf("path = %s, want /json/state", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	baseline := wled.Baseline{Power: true, Brightness: 128, Color: wled.RGB{R: 255, G: 0, B: 10}}
	if !httpConfigurator().Configure(context.Background(), server.URL, baseline) {
		t.Fatal("Configure() = false, want true")
	}

	if !got.On || got.Bri != 128 {
		t.Errorf("on/bri = %v/%d, want true/128", got.On, got.Bri)
	}
	if len(got.Seg) != 1 || len(got.Seg[0].Col) != 1 {
		t.Fatalf("seg = %+v, want one segment with one colour", got.Seg)
	}
	if c := got.Seg[0].Col[0]; len(c) != 3 || c[0] != 255 || c[1] != 0 || c[2] != 10 {
		t.Errorf("col = %v, want [255 0 10]", c)
	}
}

func TestConfigure_Failures(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		if httpConfigurator().Configure(context.Background(), server.URL, wled.DefaultBaseline()) {
			t.Error("Configure() = true for HTTP 500")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		if httpConfigurator().Configure(context.Background(), addr, wled.DefaultBaseline()) {
			t.Error("Configure() = true for a closed port")
		}
	})

	t.Run("invalid baseline", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
		}))
		defer server.Close()

		bad := wled.Baseline{Power: true, Brightness: 400}
		if httpConfigurator().Configure(context.Background(), server.URL, bad) {
			t.Error("Configure() = true for brightness 400")
		}
		if requests.Load() != 0 {
			t.Errorf("server saw %d requests, want 0", requests.Load())
		}
	})
}

func TestConfigure_Idempotent(t *testing.T) {
	dev := &fakeDevice{stateResp: &wled.StateResponse{}}
	c := &Configurator{Timeout: time.Second, Devices: dev.factory()}

	for i := 0; i < 3; i++ {
		if !c.Configure(context.Background(), "192.168.1.40", wled.DefaultBaseline()) {
			t.Fatalf("Configure() call %d = false", i+1)
		}
	}

	first, _ := json.Marshal(dev.states[0])
	for i, s := range dev.states[1:] {
		again, _ := json.Marshal(s)
		if string(again) != string(first) {
			t.Errorf("payload %d = %s, want %s", i+2, again, first)
		}
	}
}

func TestConfigure_LogsErrorKind(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if httpConfigurator().Configure(context.Background(), server.URL, wled.DefaultBaseline()) {
		t.Fatal("Configure() = true for HTTP 503")
	}

	entries := logs.FilterMessage("Configuration failed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings, want 1", len(entries))
	}
	if kind := entries[0].ContextMap()["kind"]; kind != "http" {
		t.Errorf("kind = %v, want http", kind)
	}
}

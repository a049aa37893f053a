package httpapi_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/liminaltech/zk-sca/httpapi"
	"github.com/liminaltech/zk-sca/internal/config"
	"github.com/liminaltech/zk-sca/zkvm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func gzTar(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644, Format: tar.FormatUSTAR}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	tw.Close()
	gw.Close()
	return buf.Bytes()
}

const handlerManifest = `
[package]
name = "demo"
version = "0.1.0"

[dependencies]
regex = "1.10"
`

const handlerLock = `
version = 3

[[package]]
name = "demo"
version = "0.1.0"
dependencies = ["regex"]

[[package]]
name = "regex"
version = "1.10.2"
source = "registry+https://github.com/rust-lang/crates.io-index"
`

func testRouter() *gin.Engine {
	return httpapi.NewRouter(config.Config{
		Port:                "0",
		Environment:         "test",
		LogLevel:            "error",
		RateLimitPerSecond:  1000,
		RateLimitBurst:      1000,
		MaxRequestBodyBytes: 8 << 20,
	})
}

func TestProveAndVerifyRoundTrip(t *testing.T) {
	router := testRouter()

	archiveBytes := gzTar(t, map[string]string{
		"Cargo.toml": handlerManifest,
		"Cargo.lock": handlerLock,
	})

	permitted := map[string]interface{}{
		"resolvable_with": "Cargo",
		"dependencies": []map[string]interface{}{
			{"name": "regex", "license": "MIT", "min_safe_version": "1.0.0"},
		},
	}
	permittedJSON, err := json.Marshal(permitted)
	if err != nil {
		t.Fatalf("marshal permitted deps: %v", err)
	}

	proveBody, err := json.Marshal(map[string]interface{}{
		"archive_base64":  base64.StdEncoding.EncodeToString(archiveBytes),
		"manager_name":    "Cargo",
		"manager_version": "1.75.0",
		"permitted_deps":  json.RawMessage(permittedJSON),
	})
	if err != nil {
		t.Fatalf("marshal prove request: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/prove", bytes.NewReader(proveBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("prove returned %d: %s", w.Code, w.Body.String())
	}

	var proveResp struct {
		ReceiptBase64 string `json:"receipt_base64"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &proveResp); err != nil {
		t.Fatalf("unmarshal prove response: %v", err)
	}

	imageIDHex := hex.EncodeToString(zkvm.ProgramImageID[:])
	verifyBody, err := json.Marshal(map[string]interface{}{
		"receipt_base64":  proveResp.ReceiptBase64,
		"image_id_hex":    imageIDHex,
		"include_journal": true,
	})
	if err != nil {
		t.Fatalf("marshal verify request: %v", err)
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/v1/verify", bytes.NewReader(verifyBody))
	req2.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w2, req2)

	if w2.Code != http.StatusOK {
		t.Fatalf("verify returned %d: %s", w2.Code, w2.Body.String())
	}

	var verifyResp struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &verifyResp); err != nil {
		t.Fatalf("unmarshal verify response: %v", err)
	}
	if !verifyResp.Valid {
		t.Error("expected verify response to report valid=true")
	}
}

func TestProveRejectsMissingBody(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/prove", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

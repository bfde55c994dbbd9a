package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"knlm-go/internal/corpus"
)

func newTestController(t *testing.T) *ModelController {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registry, err := corpus.NewRegistry(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewModelController(registry, zap.NewNop())
}

func doJSON(t *testing.T, handler gin.HandlerFunc, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = req
	handler(ctx)
	return rec
}

func TestCreateSessionReturnsID(t *testing.T) {
	mc := newTestController(t)
	rec := doJSON(t, mc.CreateSession, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{Order: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var resp CreateSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("expected a non-empty session id")
	}
}

func TestCreateSessionRejectsZeroOrder(t *testing.T) {
	mc := newTestController(t)
	rec := doJSON(t, mc.CreateSession, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{Order: 0})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTrainThenOptimizeThenScore(t *testing.T) {
	mc := newTestController(t)

	createRec := doJSON(t, mc.CreateSession, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{Order: 2})
	var created CreateSessionResponse
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal create response: %v", err)
	}

	trainRec := doJSON(t, mc.Train, http.MethodPost, "/api/v1/train", TrainRequest{
		SessionID: created.SessionID,
		Sequence:  []uint32{1, 2, 3},
	})
	if trainRec.Code != http.StatusOK {
		t.Fatalf("train status = %d, want 200, body %s", trainRec.Code, trainRec.Body.String())
	}

	optimizeRec := doJSON(t, mc.Optimize, http.MethodPost, "/api/v1/optimize", SessionRequest{SessionID: created.SessionID})
	if optimizeRec.Code != http.StatusOK {
		t.Fatalf("optimize status = %d, want 200, body %s", optimizeRec.Code, optimizeRec.Body.String())
	}

	scoreRec := doJSON(t, mc.Score, http.MethodPost, "/api/v1/score", ScoreRequest{
		SessionID: created.SessionID,
		Sequence:  []uint32{1, 2, 3},
	})
	if scoreRec.Code != http.StatusOK {
		t.Fatalf("score status = %d, want 200, body %s", scoreRec.Code, scoreRec.Body.String())
	}
	var scoreResp ScoreResponse
	if err := json.Unmarshal(scoreRec.Body.Bytes(), &scoreResp); err != nil {
		t.Fatalf("unmarshal score response: %v", err)
	}
	if len(scoreResp.PerTokenLogLikelihood) != 3 {
		t.Fatalf("PerTokenLogLikelihood length = %d, want 3", len(scoreResp.PerTokenLogLikelihood))
	}
}

func TestTrainUnknownSessionReturnsNotFound(t *testing.T) {
	mc := newTestController(t)
	rec := doJSON(t, mc.Train, http.MethodPost, "/api/v1/train", TrainRequest{
		SessionID: "00000000-0000-0000-0000-000000000000",
		Sequence:  []uint32{1, 2},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestScoreRejectsMissingSequence(t *testing.T) {
	mc := newTestController(t)
	rec := doJSON(t, mc.Score, http.MethodPost, "/api/v1/score", map[string]string{"session_id": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

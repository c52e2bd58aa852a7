package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-course/internal/ai"
	"github.com/p-n-ai/pai-course/internal/comprehension"
)

func TestDocumentUploadAndAsk(t *testing.T) {
	h := newHarness(t, stubAI)
	token, _ := h.signUp("ada@example.com")

	rec := h.postMultipart("/api/doc-comprehension/upload", token, nil, []byte("The sky is blue."))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body)
	}
	sess := decode[comprehension.Session](t, rec)
	if sess.ID == "" || sess.Text != "The sky is blue." {
		t.Errorf("session = %+v", sess)
	}

	rec = h.postMultipart("/api/doc-comprehension/upload", token, nil, nil)
	if got := decode[comprehension.Session](t, rec); got.Text != comprehension.SampleText {
		t.Errorf("empty upload text = %q", got.Text)
	}

	rec = h.postJSON("/api/doc-comprehension/ask", token, map[string]string{
		"question": "What colour is the sky?", "session_id": sess.ID, "text": sess.Text,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := decode[map[string]string](t, rec)["answer"]; got != "It is in the text." {
		t.Errorf("answer = %q", got)
	}

	rec = h.postJSON("/api/doc-comprehension/ask", token, map[string]string{"question": "", "text": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank question status = %d, want 400", rec.Code)
	}
}

func TestVideoExtractAndAsk(t *testing.T) {
	h := newHarness(t, stubAI)
	token, _ := h.signUp("ada@example.com")

	rec := h.postJSON("/api/video-comprehension/extract", token, map[string]string{"url": "https://youtu.be/abc"})
	if rec.Code != http.StatusOK {
		t.Fatalf("extract status = %d, body = %s", rec.Code, rec.Body)
	}
	sess := decode[comprehension.Session](t, rec)
	if !strings.HasSuffix(sess.Text, "https://youtu.be/abc") {
		t.Errorf("transcript = %q", sess.Text)
	}

	rec = h.postJSON("/api/video-comprehension/extract", token, map[string]string{"url": "youtu.be/abc"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("relative url status = %d, want 400", rec.Code)
	}

	rec = h.postJSON("/api/video-comprehension/ask", token, map[string]string{
		"question": "What is it about?", "session_id": sess.ID, "text": sess.Text,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ask status = %d", rec.Code)
	}
	last := h.mock.Requests()[h.mock.Calls()-1]
	if !strings.HasPrefix(last.Messages[1].Content, "Transcript: ") {
		t.Errorf("prompt = %q", last.Messages[1].Content)
	}
}

func TestAsk_BudgetExceeded(t *testing.T) {
	h := newHarness(t, func(ai.CompletionRequest) (string, error) { return "", ai.ErrBudgetExceeded })
	token, _ := h.signUp("ada@example.com")

	rec := h.postJSON("/api/doc-comprehension/ask", token, map[string]string{"question": "q", "text": "t"})
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestAskSocket(t *testing.T) {
	h := newHarness(t, stubAI)
	token, _ := h.signUp("ada@example.com")

	srv := httptest.NewServer(h.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/comprehension/ws", &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer func() { _ = conn.CloseNow() }()

	type reply struct {
		Answer string `json:"answer"`
		Error  string `json:"error"`
	}

	frames := []struct {
		send       map[string]string
		wantAnswer string
		wantError  bool
	}{
		{map[string]string{"question": "Why?", "text": "Because.", "session_id": "s1"}, "It is in the text.", false},
		{map[string]string{"question": "", "text": "Because."}, "", true},
		{map[string]string{"question": "Again?", "text": "Yes.", "source": "video"}, "It is in the text.", false},
	}
	for i, f := range frames {
		if err := wsjson.Write(ctx, conn, f.send); err != nil {
			t.Fatalf("frame %d write: %v", i, err)
		}
		var got reply
		if err := wsjson.Read(ctx, conn, &got); err != nil {
			t.Fatalf("frame %d read: %v", i, err)
		}
		if got.Answer != f.wantAnswer || (got.Error != "") != f.wantError {
			t.Errorf("frame %d reply = %+v", i, got)
		}
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func TestAskSocket_RequiresToken(t *testing.T) {
	h := newHarness(t, stubAI)
	srv := httptest.NewServer(h.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/comprehension/ws", nil)
	if err == nil {
		t.Fatal("Dial() should fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}

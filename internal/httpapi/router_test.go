package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/ai"
	"github.com/chronicle-hq/chronicle/internal/config"
	"github.com/chronicle-hq/chronicle/internal/store/memstore"
)

type cannedProvider struct {
	responses []string
	calls     int
}

func (p *cannedProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	_ = messages
	i := p.calls
	p.calls++
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", fmt.Errorf("no canned response for call %d", i)
}

func newTestRouter(t *testing.T, prov ai.Provider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		SyncSampleSize:    50,
		SummaryWindowSize: 50,
		UploadDir:         t.TempDir(),
		UploadSecret:      "test-secret",
	}
	return NewRouter(memstore.New(), cfg, prov, nil, nil)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r *gin.Engine, method, path, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd *strings.Reader
	if body != "" {
		rd = strings.NewReader(body)
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: bad envelope %q: %v", method, path, w.Body.String(), err)
	}
	return w, env
}

func TestPing(t *testing.T) {
	r := newTestRouter(t, &cannedProvider{})
	w, env := do(t, r, http.MethodGet, "/ping", "")
	if w.Code != http.StatusOK || env.Code != 0 {
		t.Fatalf("ping failed: status=%d env=%+v", w.Code, env)
	}
}

func TestSignupSigninMe(t *testing.T) {
	r := newTestRouter(t, &cannedProvider{})

	w, env := do(t, r, http.MethodPost, "/auth/signup",
		`{"email":"alice@example.com","name":"alice","password":"hunter22"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("signup: status=%d env=%+v", w.Code, env)
	}
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("signup must set the session cookie")
	}

	// short password rejected
	w, _ = do(t, r, http.MethodPost, "/auth/signup",
		`{"email":"bob@example.com","password":"abc"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", w.Code)
	}

	// duplicate email rejected
	w, _ = do(t, r, http.MethodPost, "/auth/signup",
		`{"email":"alice@example.com","password":"hunter22"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w.Code)
	}

	// me with the cookie
	_, env = do(t, r, http.MethodGet, "/auth/me", "", cookie)
	var me struct {
		User *struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil || me.User == nil || me.User.Name != "alice" {
		t.Fatalf("unexpected me payload: %s", env.Data)
	}

	// anonymous me is ok, user null
	_, env = do(t, r, http.MethodGet, "/auth/me", "")
	if err := json.Unmarshal(env.Data, &me); err != nil || me.User != nil {
		t.Fatalf("anonymous me should carry user null: %s", env.Data)
	}

	// wrong password
	w, _ = do(t, r, http.MethodPost, "/auth/signin",
		`{"email":"alice@example.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}
}

func TestRoomAndMessageFlow(t *testing.T) {
	r := newTestRouter(t, &cannedProvider{})

	w, env := do(t, r, http.MethodPost, "/rooms", `{"name":"Go Performance","tags":["go","perf"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create room: status=%d env=%+v", w.Code, env)
	}
	var created struct {
		Room struct {
			ID string `json:"id"`
		} `json:"room"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	if created.Room.ID != "go-performance" {
		t.Fatalf("unexpected slug: %q", created.Room.ID)
	}

	// single-character name rejected
	w, _ = do(t, r, http.MethodPost, "/rooms", `{"name":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short name, got %d", w.Code)
	}

	// append two messages, then page
	for i := 0; i < 2; i++ {
		w, env = do(t, r, http.MethodPost, "/rooms/go-performance/messages",
			fmt.Sprintf(`{"text":"msg %d","author":"alice"}`, i))
		if w.Code != http.StatusOK {
			t.Fatalf("append: status=%d env=%+v", w.Code, env)
		}
	}
	w, env = do(t, r, http.MethodGet, "/rooms/go-performance/messages?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: status=%d", w.Code)
	}
	var page struct {
		Messages []struct {
			Seq  uint64 `json:"seq"`
			Text string `json:"text"`
		} `json:"messages"`
		NextCursor uint64 `json:"next_cursor"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Messages) != 2 || page.NextCursor != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}

	// unknown room is 404, messages into it too
	w, _ = do(t, r, http.MethodGet, "/rooms/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 room, got %d", w.Code)
	}
	w, _ = do(t, r, http.MethodPost, "/rooms/nope/messages", `{"text":"hi"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 append, got %d", w.Code)
	}
}

func TestCommentLifecycleMasksDeleted(t *testing.T) {
	r := newTestRouter(t, &cannedProvider{})

	do(t, r, http.MethodPost, "/rooms", `{"name":"General"}`)
	_, env := do(t, r, http.MethodPost, "/rooms/general/posts",
		`{"title":"Welcome","content":"Say hello here.","author":"alice"}`)
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	base := "/rooms/general/posts/" + created.Post.ID + "/comments"

	_, env = do(t, r, http.MethodPost, base, `{"content":"first!","author":"bob"}`)
	var c1 struct {
		Comment struct {
			ID string `json:"id"`
		} `json:"comment"`
	}
	if err := json.Unmarshal(env.Data, &c1); err != nil {
		t.Fatalf("decode comment: %v", err)
	}
	// a reply to it
	do(t, r, http.MethodPost, base, fmt.Sprintf(`{"content":"welcome bob","author":"carol","parent_id":%q}`, c1.Comment.ID))

	w, _ := do(t, r, http.MethodDelete, base+"/"+c1.Comment.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete comment: %d", w.Code)
	}

	_, env = do(t, r, http.MethodGet, base, "")
	var listed struct {
		Comments []struct {
			ID        string `json:"id"`
			Content   string `json:"content"`
			IsDeleted bool   `json:"is_deleted"`
		} `json:"comments"`
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decode comments: %v", err)
	}
	if len(listed.Comments) != 2 {
		t.Fatalf("deleted comment must stay listed, got %d", len(listed.Comments))
	}
	for _, c := range listed.Comments {
		if c.ID == c1.Comment.ID {
			if !c.IsDeleted || c.Content != "[deleted]" {
				t.Fatalf("deleted comment not masked: %+v", c)
			}
		}
	}

	// the post's live comment count dropped to 1
	_, env = do(t, r, http.MethodGet, "/rooms/general/posts/"+created.Post.ID, "")
	var detail struct {
		Post struct {
			Comments int64 `json:"comments"`
		} `json:"post"`
	}
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Post.Comments != 1 {
		t.Fatalf("expected comment count 1, got %d", detail.Post.Comments)
	}
}

func TestGeneratePostsErrorMapping(t *testing.T) {
	prov := &cannedProvider{responses: []string{"I had a look and it all seems fine."}}
	r := newTestRouter(t, prov)
	do(t, r, http.MethodPost, "/rooms", `{"name":"Quiet Room"}`)

	// no messages at all, never synced
	w, env := do(t, r, http.MethodPost, "/rooms/quiet-room/ai/generate-posts", `{"user":"alice"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(env.Message, "no messages") {
		t.Fatalf("expected no-messages 400, got status=%d env=%+v", w.Code, env)
	}

	// after a sync the same emptiness reads differently
	do(t, r, http.MethodPost, "/rooms/quiet-room/ai/record-sync", `{"user":"bob"}`)
	w, env = do(t, r, http.MethodPost, "/rooms/quiet-room/ai/generate-posts", `{"user":"alice"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(env.Message, "no new messages") {
		t.Fatalf("expected no-new-messages 400, got status=%d env=%+v", w.Code, env)
	}

	// unparseable judgment is an upstream failure
	do(t, r, http.MethodPost, "/rooms/quiet-room/messages", `{"text":"deep thoughts","author":"alice"}`)
	w, env = do(t, r, http.MethodPost, "/rooms/quiet-room/ai/generate-posts", `{"user":"alice"}`)
	if w.Code != http.StatusBadGateway || !strings.Contains(env.Message, "parse judgment response") {
		t.Fatalf("expected 502 with parse detail, got status=%d env=%+v", w.Code, env)
	}
}

func TestConfirmEndpointCreatesPostAndSyncs(t *testing.T) {
	prov := &cannedProvider{}
	r := newTestRouter(t, prov)
	do(t, r, http.MethodPost, "/rooms", `{"name":"Sync Room"}`)
	do(t, r, http.MethodPost, "/rooms/sync-room/messages", `{"text":"useful","author":"alice"}`)

	w, env := do(t, r, http.MethodPost, "/rooms/sync-room/ai/confirm",
		`{"user":"alice","title":"A reviewed title","content":"Reviewed content."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: status=%d env=%+v", w.Code, env)
	}

	_, env = do(t, r, http.MethodGet, "/rooms/sync-room/posts", "")
	var listed struct {
		Posts []struct {
			Title string `json:"title"`
		} `json:"posts"`
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil || len(listed.Posts) != 1 {
		t.Fatalf("expected one post: %s err=%v", env.Data, err)
	}

	// the cursor now covers alice's message
	w, env = do(t, r, http.MethodPost, "/rooms/sync-room/ai/generate-posts", `{"user":"alice"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(env.Message, "no new messages") {
		t.Fatalf("expected no-new-messages after confirm, got status=%d env=%+v", w.Code, env)
	}
}

func TestQualityAnalysisPreconditions(t *testing.T) {
	prov := &cannedProvider{responses: []string{
		`{"overallScore": 64, "scores": {"contentDepth": 60, "logicalThinking": 66, "discussionQuality": 62, "creativity": 65, "practicality": 67},
		  "strengths": [], "weaknesses": [], "recommendations": [], "summary": "ok"}`,
	}}
	r := newTestRouter(t, prov)
	do(t, r, http.MethodPost, "/rooms", `{"name":"Score Room"}`)

	w, _ := do(t, r, http.MethodPost, "/rooms/score-room/quality-analysis", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("zero posts must be a 400 precondition, got %d", w.Code)
	}

	do(t, r, http.MethodPost, "/rooms/score-room/posts", `{"title":"A post","content":"With content."}`)
	w, env := do(t, r, http.MethodPost, "/rooms/score-room/quality-analysis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("quality: status=%d env=%+v", w.Code, env)
	}
	var out struct {
		Report struct {
			OverallScore int `json:"overallScore"`
		} `json:"report"`
		PostCount int `json:"post_count"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil || out.Report.OverallScore != 64 || out.PostCount != 1 {
		t.Fatalf("unexpected quality payload: %s err=%v", env.Data, err)
	}
}

func TestUploadSignAndPut(t *testing.T) {
	r := newTestRouter(t, &cannedProvider{})

	_, env := do(t, r, http.MethodPost, "/uploads/sign", `{"filename":"pic.png"}`)
	var signed struct {
		UploadURL string `json:"upload_url"`
		FileURL   string `json:"file_url"`
	}
	if err := json.Unmarshal(env.Data, &signed); err != nil {
		t.Fatalf("decode sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, signed.UploadURL, strings.NewReader("binary-bytes"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("put: status=%d body=%s", w.Code, w.Body.String())
	}

	// the stored file is served back under /uploads/
	req = httptest.NewRequest(http.MethodGet, signed.FileURL, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "binary-bytes" {
		t.Fatalf("serve: status=%d body=%q", w.Code, w.Body.String())
	}

	// tampered token rejected
	req = httptest.NewRequest(http.MethodPut, "/uploads/put?token=bogus", strings.NewReader("x"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bogus token, got %d", w.Code)
	}
}

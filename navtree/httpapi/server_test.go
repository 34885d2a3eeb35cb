package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/auth"
	"github.com/arthur-debert/navtree/navtree/httpapi"
	"github.com/arthur-debert/navtree/navtree/testutil"
	"github.com/arthur-debert/navtree/types"
)

type harness struct {
	env    *testutil.Env
	site   *testutil.Site
	ts     *httptest.Server
	editor string
	reader string
}

func setup(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := testutil.NewEnv(t)
	site := testutil.BuildSite(t, env)

	authn, err := auth.NewAuthenticator("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	editor, err := authn.Issue(auth.User{ID: "u1", Name: "ed", Permissions: []string{auth.PermChangeNavTree}})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	reader, err := authn.Issue(auth.User{ID: "u2", Name: "rita"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	hub := httpapi.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	env.Service.SetNotifier(hub)

	srv := httpapi.NewServer(httpapi.Config{Site: "main"}, env.Service, authn, hub, httpapi.WithLogger(logger))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return &harness{env: env, site: site, ts: ts, editor: editor, reader: reader}
}

func (h *harness) do(t *testing.T, method, path, token, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, h.ts.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, data
}

func (h *harness) edit(t *testing.T, token string, form url.Values) (int, map[string]any) {
	t.Helper()
	resp, body := h.do(t, http.MethodPost, "/api/v1/trees/"+h.site.Tree.ID+"/edit", token,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decoding %s: %v", body, err)
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	h := setup(t)
	resp, body := h.do(t, http.MethodGet, "/healthz", "", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if !strings.Contains(string(body), `"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestAuthRequired(t *testing.T) {
	h := setup(t)
	for _, token := range []string{"", "garbage"} {
		resp, _ := h.do(t, http.MethodGet, "/api/v1/trees", token, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, resp.StatusCode)
		}
	}
}

func TestTrees(t *testing.T) {
	h := setup(t)

	resp, body := h.do(t, http.MethodPost, "/api/v1/trees", h.editor, "application/json",
		strings.NewReader(`{"name":"footer","types":["link"]}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, body)
	}
	var created types.Tree
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Name != "footer" || !cmp.Equal(created.Types, []string{"link"}) {
		t.Errorf("created = %+v", created)
	}

	resp, _ = h.do(t, http.MethodPost, "/api/v1/trees", h.editor, "application/json",
		strings.NewReader(`{"name":"footer"}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate name status = %d, want 400", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodPost, "/api/v1/trees", h.reader, "application/json",
		strings.NewReader(`{"name":"sidebar"}`))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("reader create status = %d, want 403", resp.StatusCode)
	}

	resp, body = h.do(t, http.MethodGet, "/api/v1/trees", h.reader, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var trees []types.Tree
	if err := json.Unmarshal(body, &trees); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var names []string
	for _, tr := range trees {
		names = append(names, tr.Name)
	}
	if diff := cmp.Diff([]string{"footer", "main"}, names); diff != "" {
		t.Errorf("tree names mismatch (-want +got):\n%s", diff)
	}
}

func TestListNodes(t *testing.T) {
	h := setup(t)
	resp, body := h.do(t, http.MethodGet, "/api/v1/trees/"+h.site.Tree.ID+"/nodes?parent_id="+h.site.About.ID, h.reader, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var nodes []types.Node
	if err := json.Unmarshal(body, &nodes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var labels []string
	for _, n := range nodes {
		labels = append(labels, n.Label)
	}
	if diff := cmp.Diff([]string{"About us", "Our team"}, labels); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}

	resp, _ = h.do(t, http.MethodGet, "/api/v1/trees/nope/nodes", h.reader, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown tree status = %d, want 404", resp.StatusCode)
	}
}

func TestEdit(t *testing.T) {
	h := setup(t)

	status, out := h.edit(t, h.editor, url.Values{
		"msg_id":  {"rename"},
		"node_id": {h.site.AboutUs.ID},
		"name":    {"Who we are"},
	})
	if status != http.StatusOK || out["status"] != "success" {
		t.Fatalf("rename = %d %v", status, out)
	}
	if want := "The node 'About us' has been renamed into 'Who we are'."; out["message"] != want {
		t.Errorf("message = %v, want %q", out["message"], want)
	}

	status, out = h.edit(t, h.reader, url.Values{"msg_id": {"rename"}, "node_id": {h.site.Home.ID}, "name": {"x"}})
	if status != http.StatusForbidden || out["error"] != "permission_denied" {
		t.Errorf("reader rename = %d %v", status, out)
	}

	status, out = h.edit(t, h.editor, url.Values{"msg_id": {"explode"}})
	if status != http.StatusOK || out["error"] != "unsupported_command" {
		t.Errorf("unknown command = %d %v", status, out)
	}

	resp, _ := h.do(t, http.MethodPost, "/api/v1/trees/"+h.site.Tree.ID+"/edit", h.editor,
		"application/x-www-form-urlencoded", strings.NewReader("node_id=1"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing msg_id status = %d, want 400", resp.StatusCode)
	}
}

func TestNavigation(t *testing.T) {
	h := setup(t)
	resp, body := h.do(t, http.MethodGet, "/api/v1/trees/"+h.site.Tree.ID+"/navigation?path=/about/", "", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	want := `<ul><li><a href="/">Home</a></li>` +
		`<li><a>About</a><ul><li class="active-node"><a href="/about/">About us</a></li></ul></li>` +
		`<li><a href="/contact/">/contact/</a></li></ul>`
	if diff := cmp.Diff(want, string(body)); diff != "" {
		t.Errorf("navigation mismatch (-want +got):\n%s", diff)
	}

	resp, body = h.do(t, http.MethodGet, "/api/v1/trees/"+h.site.Tree.ID+"/breadcrumb/"+h.site.Team.ID, "", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("breadcrumb status = %d", resp.StatusCode)
	}
	if want := `<li><a>About</a></li><li><a href="/team/">Our team</a></li>`; string(body) != want {
		t.Errorf("breadcrumb = %s, want %s", body, want)
	}

	resp, _ = h.do(t, http.MethodGet, "/api/v1/trees/"+h.site.Tree.ID+"/breadcrumb/nope", "", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown node status = %d, want 404", resp.StatusCode)
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
}

func TestWebsocketEvents(t *testing.T) {
	h := setup(t)
	base := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws/trees/" + h.site.Tree.ID

	if _, resp, err := websocket.DefaultDialer.Dial(base, nil); err == nil {
		t.Fatal("dial without token should fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("dial without token: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"?auth_token="+h.reader, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	var hello httpapi.Hello
	readJSON(t, conn, &hello)
	if hello.Type != httpapi.MsgSubscribed || hello.TreeID != h.site.Tree.ID {
		t.Fatalf("hello = %+v", hello)
	}

	if _, err := h.env.Service.ToggleVisibility(context.Background(), h.site.Tree.ID, h.site.Team.ID); err != nil {
		t.Fatalf("ToggleVisibility: %v", err)
	}
	var ev navtree.Event
	readJSON(t, conn, &ev)
	if ev.Type != navtree.EventNodeVisibility || ev.TreeID != h.site.Tree.ID {
		t.Errorf("event = %+v", ev)
	}
	if diff := cmp.Diff([]string{h.site.Team.ID}, ev.NodeIDs); diff != "" {
		t.Errorf("node ids mismatch (-want +got):\n%s", diff)
	}
}

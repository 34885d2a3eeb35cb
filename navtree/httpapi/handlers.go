package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arthur-debert/navtree/navtree/access"
	"github.com/arthur-debert/navtree/navtree/auth"
	"github.com/arthur-debert/navtree/navtree/dispatch"
	"github.com/arthur-debert/navtree/navtree/render"
	"github.com/arthur-debert/navtree/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": string(dispatch.StatusError), "message": message})
}

// writeServiceError maps a service error to a status code
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind, message := dispatch.Classify(err)
	status := http.StatusInternalServerError
	switch kind {
	case dispatch.KindNotFound:
		status = http.StatusNotFound
	case dispatch.KindValidation:
		status = http.StatusBadRequest
	case dispatch.KindPermissionDenied:
		status = http.StatusForbidden
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, dispatch.Result{Status: dispatch.StatusError, Error: kind, Message: message})
}

func writeHTML(w http.ResponseWriter, fragment string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(fragment))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listTrees(w http.ResponseWriter, r *http.Request) {
	trees, err := s.svc.ListTrees(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if trees == nil {
		trees = []types.Tree{}
	}
	writeJSON(w, http.StatusOK, trees)
}

type createTreeRequest struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

func (s *Server) createTree(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	var req createTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !s.authz.CanModify(user, types.Tree{Name: req.Name}) {
		s.writeServiceError(w, r, types.ErrPermissionDenied)
		return
	}
	tree, err := s.svc.CreateTree(r.Context(), strings.TrimSpace(req.Name), req.Types)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tree)
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.svc.ListChildren(r.Context(), chi.URLParam(r, "treeID"), r.URL.Query().Get("parent_id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if nodes == nil {
		nodes = []types.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

// edit answers the tree editor. The body is form encoded: msg_id names the
// command, the other fields are its payload.
func (s *Server) edit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	msgID := r.PostForm.Get("msg_id")
	if msgID == "" {
		writeError(w, http.StatusBadRequest, "msg_id is required")
		return
	}
	user, _ := auth.UserFrom(r.Context())
	res := s.dispatcher.Dispatch(r.Context(), user, chi.URLParam(r, "treeID"), msgID, r.PostForm)

	status := http.StatusOK
	if res.Error == dispatch.KindPermissionDenied {
		status = http.StatusForbidden
	}
	writeJSON(w, status, res)
}

// renderer snapshots the tree for the request's viewer
func (s *Server) renderer(r *http.Request) (*render.Renderer, error) {
	_, idx, err := s.svc.Snapshot(r.Context(), chi.URLParam(r, "treeID"))
	if err != nil {
		return nil, err
	}
	site := r.URL.Query().Get("site")
	if site == "" {
		site = s.cfg.Site
	}
	user, _ := auth.UserFrom(r.Context())
	checker := access.New(s.svc.Contents(), user.Viewer(site))
	return render.New(idx, checker, r.URL.Query().Get("path")), nil
}

func (s *Server) navigation(w http.ResponseWriter, r *http.Request) {
	rd, err := s.renderer(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeHTML(w, "<ul>"+rd.RootsAsNavigation(r.Context())+"</ul>")
}

func (s *Server) breadcrumb(w http.ResponseWriter, r *http.Request) {
	treeID, nodeID := chi.URLParam(r, "treeID"), chi.URLParam(r, "nodeID")
	node, err := s.svc.GetNode(r.Context(), treeID, nodeID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	rd, err := s.renderer(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeHTML(w, rd.Breadcrumb(r.Context(), node))
}

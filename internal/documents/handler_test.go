package documents_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/documents"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/routes"
)

const testUploadLimit = 1 << 10

func newTestServer(t *testing.T) (*httptest.Server, *harness) {
	t.Helper()
	h := newHarness(t)

	r := routes.New(discardLogger())
	r.Mount(routes.Group{
		Prefix:   "/api",
		Children: []routes.Group{h.sys.Handler(testUploadLimit).Routes()},
	})

	srv := httptest.NewServer(r.Build())
	t.Cleanup(srv.Close)
	return srv, h
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() failed: %v", err)
		}
	}
	if content != nil {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() failed: %v", err)
		}
		part.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart close failed: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func upload(t *testing.T, srv *httptest.Server, path string, fields map[string]string, content []byte) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, fields, "Report.pdf", content)

	resp, err := http.Post(srv.URL+path, contentType, body)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func do(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("NewRequest() failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_UploadAndDownload(t *testing.T) {
	srv, _ := newTestServer(t)
	content := pdfContent(2, "upload")

	resp := upload(t, srv, "/api/documents", map[string]string{"owner_id": "u1"}, content)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want 201", resp.StatusCode)
	}
	doc := decode[records.Record](t, resp)
	if doc.Name != "Report.pdf" {
		t.Errorf("Name = %q, want filename fallback", doc.Name)
	}

	dl := do(t, "GET", srv.URL+"/api/documents/"+doc.ID+"/download", nil)
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", dl.StatusCode)
	}
	if ct := dl.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := dl.Header.Get("Content-Disposition"); !strings.Contains(cd, "Report.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	got, _ := io.ReadAll(dl.Body)
	if !bytes.Equal(got, content) {
		t.Error("downloaded content mismatch")
	}
}

func TestHandler_VersionsFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	doc := decode[records.Record](t, upload(t, srv, "/api/documents", map[string]string{"owner_id": "u1", "name": "a.pdf"}, pdfContent(1, "v1")))

	resp := upload(t, srv, "/api/documents/"+doc.ID+"/versions", map[string]string{"user_id": "u2", "comment": "fix"}, pdfContent(3, "v2"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add version status = %d", resp.StatusCode)
	}
	v := decode[records.Version](t, resp)

	list := decode[[]records.Version](t, do(t, "GET", srv.URL+"/api/documents/"+doc.ID+"/versions", nil))
	if len(list) != 2 || list[1].VersionID != v.VersionID {
		t.Errorf("versions = %+v", list)
	}

	first := do(t, "GET", srv.URL+"/api/documents/"+doc.ID+"/versions/"+doc.Versions[0].VersionID, nil)
	data, _ := io.ReadAll(first.Body)
	if !bytes.Equal(data, pdfContent(1, "v1")) {
		t.Error("first version content mismatch")
	}
}

func TestHandler_UpdateAndPermissions(t *testing.T) {
	srv, _ := newTestServer(t)
	doc := decode[records.Record](t, upload(t, srv, "/api/documents", map[string]string{"owner_id": "u1"}, pdfContent(1, "a")))
	base := srv.URL + "/api/documents/" + doc.ID

	resp := do(t, "PUT", base, strings.NewReader(`{"name":"renamed.pdf","owner_id":"u9"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decode[records.Record](t, resp)
	if updated.Name != "renamed.pdf" || updated.OwnerID != "u1" {
		t.Errorf("updated = %s/%s", updated.Name, updated.OwnerID)
	}

	resp = do(t, "PUT", base+"/permissions", strings.NewReader(`[{"user_id":"u2","access_level":"comment"}]`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update permissions status = %d", resp.StatusCode)
	}

	tests := []struct {
		query string
		want  bool
	}{
		{"user_id=u2&level=comment", true},
		{"user_id=u2&level=edit", false},
		{"user_id=u1&level=manage", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := do(t, "GET", base+"/access?"+tt.query, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("access status = %d", resp.StatusCode)
			}
			if got := decode[documents.AccessResult](t, resp); got.Allowed != tt.want {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.want)
			}
		})
	}
}

func TestHandler_Errors(t *testing.T) {
	srv, _ := newTestServer(t)
	doc := decode[records.Record](t, upload(t, srv, "/api/documents", map[string]string{"owner_id": "u1"}, pdfContent(1, "a")))
	base := srv.URL + "/api/documents/"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"get missing", "GET", "missing", "", http.StatusNotFound},
		{"download missing", "GET", "missing/download", "", http.StatusNotFound},
		{"missing version", "GET", doc.ID + "/versions/nope", "", http.StatusNotFound},
		{"delete missing", "DELETE", "missing", "", http.StatusNotFound},
		{"bad patch json", "PUT", doc.ID, "{", http.StatusBadRequest},
		{"derived field", "PUT", doc.ID, `{"size":1}`, http.StatusBadRequest},
		{"bad level", "PUT", doc.ID + "/permissions", `[{"user_id":"u2","access_level":"owner"}]`, http.StatusBadRequest},
		{"access without user", "GET", doc.ID + "/access?level=view", "", http.StatusBadRequest},
		{"access bad level", "GET", doc.ID + "/access?user_id=u2&level=admin", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			if resp := do(t, tt.method, base+tt.path, body); resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestHandler_UploadRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name    string
		fields  map[string]string
		content []byte
		want    int
	}{
		{"too large", map[string]string{"owner_id": "u1"}, pdfContent(1, strings.Repeat("x", testUploadLimit)), http.StatusRequestEntityTooLarge},
		{"not a pdf", map[string]string{"owner_id": "u1"}, []byte("plain text"), http.StatusBadRequest},
		{"missing owner", nil, pdfContent(1, "a"), http.StatusBadRequest},
		{"missing file", map[string]string{"owner_id": "u1"}, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := upload(t, srv, "/api/documents", tt.fields, tt.content); resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestHandler_DeleteAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	a := decode[records.Record](t, upload(t, srv, "/api/documents", map[string]string{"owner_id": "u1"}, pdfContent(1, "a")))
	upload(t, srv, "/api/documents", map[string]string{"owner_id": "u1", "folder_id": "reports"}, pdfContent(1, "b"))
	upload(t, srv, "/api/documents", map[string]string{"owner_id": "u2"}, pdfContent(1, "c"))

	list := decode[[]records.Record](t, do(t, "GET", srv.URL+"/api/documents?owner_id=u1&folder_id=root", nil))
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("owner+root list = %d docs", len(list))
	}

	if resp := do(t, "DELETE", srv.URL+"/api/documents/"+a.ID, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if resp := do(t, "GET", srv.URL+"/api/documents/"+a.ID, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}
}

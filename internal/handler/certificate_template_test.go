package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service/layouteditor"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCertificateTemplateService struct {
	ListFunc         func(ctx context.Context) ([]*service.CertificateTemplateDTO, error)
	GetFunc          func(ctx context.Context, id uint) (*service.CertificateTemplateDTO, error)
	CreateFunc       func(ctx context.Context, req service.CreateCertificateTemplateRequest) (*service.CertificateTemplateDTO, error)
	UpdateFunc       func(ctx context.Context, id uint, req service.UpdateCertificateTemplateRequest) (*service.CertificateTemplateDTO, error)
	DeleteFunc       func(ctx context.Context, id uint) error
	ToggleActiveFunc func(ctx context.Context, id uint) (*service.CertificateTemplateDTO, error)
	EditLayoutFunc   func(ctx context.Context, id uint, cmds []layouteditor.Command) (*service.CertificateTemplateDTO, error)
	PreviewFunc      func(ctx context.Context, id uint) (*renderer.Artifact, error)
	GenerateFunc     func(ctx context.Context, id uint, data map[string]string) (*renderer.Artifact, error)
}

func (m *mockCertificateTemplateService) List(ctx context.Context) ([]*service.CertificateTemplateDTO, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockCertificateTemplateService) Get(ctx context.Context, id uint) (*service.CertificateTemplateDTO, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, service.ErrTemplateNotFound
}

func (m *mockCertificateTemplateService) Create(ctx context.Context, req service.CreateCertificateTemplateRequest) (*service.CertificateTemplateDTO, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return &service.CertificateTemplateDTO{ID: 1, Name: req.Name}, nil
}

func (m *mockCertificateTemplateService) Update(ctx context.Context, id uint, req service.UpdateCertificateTemplateRequest) (*service.CertificateTemplateDTO, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, req)
	}
	return &service.CertificateTemplateDTO{ID: id}, nil
}

func (m *mockCertificateTemplateService) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockCertificateTemplateService) ToggleActive(ctx context.Context, id uint) (*service.CertificateTemplateDTO, error) {
	if m.ToggleActiveFunc != nil {
		return m.ToggleActiveFunc(ctx, id)
	}
	return &service.CertificateTemplateDTO{ID: id, IsActive: true}, nil
}

func (m *mockCertificateTemplateService) EditLayout(ctx context.Context, id uint, cmds []layouteditor.Command) (*service.CertificateTemplateDTO, error) {
	if m.EditLayoutFunc != nil {
		return m.EditLayoutFunc(ctx, id, cmds)
	}
	return &service.CertificateTemplateDTO{ID: id}, nil
}

func (m *mockCertificateTemplateService) Preview(ctx context.Context, id uint) (*renderer.Artifact, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, id)
	}
	return &renderer.Artifact{}, nil
}

func (m *mockCertificateTemplateService) Generate(ctx context.Context, id uint, data map[string]string) (*renderer.Artifact, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, id, data)
	}
	return &renderer.Artifact{}, nil
}

func setupRouter(svc service.CertificateTemplateService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewCertificateTemplateHandler(svc).RegisterRoutes(r.Group("/api"))
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestListTemplates(t *testing.T) {
	svc := &mockCertificateTemplateService{
		ListFunc: func(ctx context.Context) ([]*service.CertificateTemplateDTO, error) {
			return []*service.CertificateTemplateDTO{{ID: 1, Name: "Graduation"}}, nil
		},
	}
	w := doJSON(setupRouter(svc), http.MethodGet, "/api/templates", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Graduation", data[0].(map[string]any)["name"])
}

func TestGetTemplate_NotFoundAndInvalidID(t *testing.T) {
	r := setupRouter(&mockCertificateTemplateService{})

	w := doJSON(r, http.MethodGet, "/api/templates/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/templates/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTemplate_JSON(t *testing.T) {
	var got service.CreateCertificateTemplateRequest
	svc := &mockCertificateTemplateService{
		CreateFunc: func(ctx context.Context, req service.CreateCertificateTemplateRequest) (*service.CertificateTemplateDTO, error) {
			got = req
			return &service.CertificateTemplateDTO{ID: 1, Name: req.Name}, nil
		},
	}
	body := `{"name":"Graduation","is_active":true,"layout":[{"key":"recipient_name","x":"50","y":40,"font_size":"32"}]}`
	w := doJSON(setupRouter(svc), http.MethodPost, "/api/templates", body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Graduation", got.Name)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.Background)
	require.Len(t, got.Layout, 1)
	assert.Equal(t, 50.0, got.Layout[0].X)
	assert.Equal(t, 40.0, got.Layout[0].Y)
	assert.Equal(t, 32, got.Layout[0].FontSize)
}

func TestCreateTemplate_ValidationErrors(t *testing.T) {
	svc := &mockCertificateTemplateService{
		CreateFunc: func(ctx context.Context, req service.CreateCertificateTemplateRequest) (*service.CertificateTemplateDTO, error) {
			return nil, &service.ValidationError{Fields: map[string]string{"name": "name is required"}}
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/templates", `{"description":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "validation failed", body["error"])
	assert.Equal(t, "name is required", body["errors"].(map[string]any)["name"])

	w = doJSON(r, http.MethodPost, "/api/templates", `{"name":"`+strings.Repeat("a", 300)+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeBody(t, w)["errors"].(map[string]any), "name")

	w = doJSON(r, http.MethodPost, "/api/templates", `{"name":"ok","layout":{"not":"an array"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeBody(t, w)["errors"].(map[string]any), "layout")
}

func TestCreateTemplate_Multipart(t *testing.T) {
	var got service.CreateCertificateTemplateRequest
	var uploaded []byte
	svc := &mockCertificateTemplateService{
		CreateFunc: func(ctx context.Context, req service.CreateCertificateTemplateRequest) (*service.CertificateTemplateDTO, error) {
			got = req
			if req.Background != nil {
				uploaded, _ = io.ReadAll(req.Background.Reader)
			}
			return &service.CertificateTemplateDTO{ID: 1, Name: req.Name}, nil
		},
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Graduation"))
	require.NoError(t, mw.WriteField("is_active", "true"))
	require.NoError(t, mw.WriteField("layout", `[{"key":"course_name","x":"50","y":"60"}]`))
	fw, err := mw.CreateFormFile("background", "bg.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake-image-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/templates", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Graduation", got.Name)
	assert.True(t, got.IsActive)
	require.Len(t, got.Layout, 1)
	assert.Equal(t, 60.0, got.Layout[0].Y)
	require.NotNil(t, got.Background)
	assert.Equal(t, "bg.png", got.Background.Filename)
	assert.Equal(t, "fake-image-bytes", string(uploaded))
}

func TestUpdateTemplate_Partial(t *testing.T) {
	var got service.UpdateCertificateTemplateRequest
	svc := &mockCertificateTemplateService{
		UpdateFunc: func(ctx context.Context, id uint, req service.UpdateCertificateTemplateRequest) (*service.CertificateTemplateDTO, error) {
			got = req
			return &service.CertificateTemplateDTO{ID: id}, nil
		},
	}
	w := doJSON(setupRouter(svc), http.MethodPut, "/api/templates/3", `{"description":"new"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, "new", *got.Description)
	assert.Nil(t, got.Layout)
	assert.Nil(t, got.IsActive)
}

func TestDeleteAndToggle(t *testing.T) {
	svc := &mockCertificateTemplateService{
		DeleteFunc: func(ctx context.Context, id uint) error {
			if id == 9 {
				return service.ErrTemplateNotFound
			}
			return nil
		},
	}
	r := setupRouter(svc)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/api/templates/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, "/api/templates/9", "").Code)

	w := doJSON(r, http.MethodPatch, "/api/templates/1/active", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["data"].(map[string]any)["is_active"])
}

func TestEditLayout(t *testing.T) {
	var count int
	svc := &mockCertificateTemplateService{
		EditLayoutFunc: func(ctx context.Context, id uint, cmds []layouteditor.Command) (*service.CertificateTemplateDTO, error) {
			count = len(cmds)
			return &service.CertificateTemplateDTO{ID: id}, nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/templates/1/layout", `[{"op":"add"},{"op":"set","index":0,"attribute":"x","value":"12"}]`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, count)

	w = doJSON(r, http.MethodPost, "/api/templates/1/layout", `[{"op":"explode"}]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreview(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		success bool
	}{
		{name: "success", status: http.StatusOK, success: true},
		{name: "not found", err: service.ErrTemplateNotFound, status: http.StatusNotFound},
		{name: "asset missing", err: renderer.ErrAssetMissing, status: http.StatusUnprocessableEntity},
		{name: "render error", err: &renderer.RenderError{Op: "encode", Err: errors.New("boom")}, status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockCertificateTemplateService{
				PreviewFunc: func(ctx context.Context, id uint) (*renderer.Artifact, error) {
					if tc.err != nil {
						return nil, tc.err
					}
					return &renderer.Artifact{URL: "/files/certificates/previews/a.png"}, nil
				},
			}
			w := doJSON(setupRouter(svc), http.MethodPost, "/api/templates/1/preview", "")

			assert.Equal(t, tc.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tc.success, body["success"])
			if tc.success {
				assert.Equal(t, "/files/certificates/previews/a.png", body["url"])
			} else {
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	var got map[string]string
	svc := &mockCertificateTemplateService{
		GenerateFunc: func(ctx context.Context, id uint, data map[string]string) (*renderer.Artifact, error) {
			if id == 2 {
				return nil, service.ErrTemplateInactive
			}
			got = data
			return &renderer.Artifact{Ref: "certificates/issued/a.png"}, nil
		},
	}
	r := setupRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/templates/1/generate", `{"data":{"recipient_name":"Ana"}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Ana", got["recipient_name"])

	w = doJSON(r, http.MethodPost, "/api/templates/2/generate", `{"data":{}}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

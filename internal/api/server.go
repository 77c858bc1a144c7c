// Package api is the HTTP boundary of the employee contact service.
package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/model"
)

// Ingester runs an uploaded document through parsing and persistence.
type Ingester interface {
	IngestContent(ctx context.Context, content []byte, contentType, filename string) (int, error)
}

// Querier serves employee reads.
type Querier interface {
	FindAll(ctx context.Context, page, pageSize int) (*model.Page, error)
	FindByName(ctx context.Context, name string) ([]model.Employee, error)
}

// Options configures the router.
type Options struct {
	Logger         *zap.Logger
	MaxBodyBytes   int64
	RateLimitRPS   float64 // <= 0 disables rate limiting
	RateLimitBurst int
	// LimitStats receives every rate limit decision; nil disables recording.
	LimitStats     LimitStats
	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

const (
	defaultMaxBodyBytes = 10 << 20
	defaultPageSize     = 10
	uploadField         = "file"
)

// CreateResponse is the body of a successful upload.
type CreateResponse struct {
	Count int `json:"count"`
}

type handler struct {
	ingester Ingester
	query    Querier
	log      *zap.Logger
	maxBody  int64
}

// NewRouter builds the HTTP handler for the employee API.
func NewRouter(ing Ingester, q Querier, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{ingester: ing, query: q, log: log, maxBody: maxBody}

	r := chi.NewRouter()
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusNotFound, "Not Found", "No route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported on "+r.URL.Path)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/employee", func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(RateLimit(opts.RateLimitRPS, opts.RateLimitBurst, nil, opts.LimitStats, log))
		}
		r.Get("/", h.listEmployees)
		r.Post("/", h.createEmployees)
		r.Get("/{name}", h.findByName)
	})

	return r
}

func (h *handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 0)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	pageSize, err := intParam(r, "pageSize", defaultPageSize)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	result, err := h.query.FindAll(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) findByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// chi routes on RawPath when the request carried one, leaving params escaped.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			writeError(w, r, h.log, &model.InvalidArgumentError{Name: "name", Reason: "malformed path segment"})
			return
		}
		name = unescaped
	}

	employees, err := h.query.FindByName(r.Context(), name)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// createEmployees accepts a multipart upload (part "file") or a raw body.
// The part's or request's Content-Type and the filename steer format
// selection; without them the content is sniffed.
func (h *handler) createEmployees(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var (
		content     []byte
		contentType = r.Header.Get("Content-Type")
		filename    string
		err         error
	)

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "multipart/form-data" {
		content, contentType, filename, err = h.readUpload(r)
		if errors.Is(err, http.ErrMissingFile) {
			writeStatus(w, r, http.StatusBadRequest, "Bad Request", "File cannot be null")
			return
		}
	} else {
		content, err = io.ReadAll(r.Body)
	}
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.log.Debug("upload received",
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.String("content_type", contentType),
		zap.String("filename", filename),
		zap.Int("bytes", len(content)),
	)

	n, err := h.ingester.IngestContent(r.Context(), content, contentType, filename)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateResponse{Count: n})
}

func (h *handler) readUpload(r *http.Request) ([]byte, string, string, error) {
	if err := r.ParseMultipartForm(h.maxBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", "", err
		}
		return nil, "", "", &model.InvalidArgumentError{Name: "upload", Reason: err.Error()}
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, "", "", err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, "", "", err
	}
	return content, header.Header.Get("Content-Type"), header.Filename, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &model.InvalidArgumentError{Name: name, Reason: "must be an integer, got " + strconv.Quote(raw)}
	}
	return v, nil
}

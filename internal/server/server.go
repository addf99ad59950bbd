package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tartampluch/go-nlcep/internal/config"
	"github.com/tartampluch/go-nlcep/internal/engine"
	"github.com/tartampluch/go-nlcep/internal/wire"
)

// Translator localizes failure messages and negotiates the response
// language. *i18n.Translator implements it.
type Translator interface {
	wire.Localizer
	Match(prefs ...string) string
}

// ParseRequest is the input accepted by the parse endpoints, either as query
// parameters (GET) or as a JSON body (POST).
type ParseRequest struct {
	Text string `json:"text" validate:"required,max=1024"`
	Now  string `json:"now,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Lang string `json:"lang,omitempty" validate:"omitempty,bcp47_language_tag"`
}

// ParseServer exposes the parser over HTTP.
type ParseServer struct {
	Listen     string
	Location   *time.Location
	Clock      engine.Clock
	Translator Translator
	Logger     *slog.Logger

	parser   *engine.Parser
	validate *validator.Validate
	served   atomic.Uint64
}

// NewParseServer creates a server resolving relative dates in loc. A nil
// translator renders failure messages from the error text.
func NewParseServer(listen string, loc *time.Location, tr Translator, logger *slog.Logger) *ParseServer {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(config.LogKeyComponent, config.CompServer)

	validate := validator.New()
	// Report JSON field names rather than Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})

	return &ParseServer{
		Listen:     listen,
		Location:   loc,
		Clock:      engine.RealClock{},
		Translator: tr,
		Logger:     logger,
		parser:     &engine.Parser{Logger: logger},
		validate:   validate,
	}
}

// Handler returns the routed handler wrapped in recovery and access logging.
func (s *ParseServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteParse, s.handleParse)
	mux.HandleFunc(config.RouteParseICS, s.handleParseICS)
	mux.HandleFunc(config.RouteHealth, s.handleHealth)
	return s.recoverer(s.accessLog(mux))
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *ParseServer) Start(ctx context.Context) error {
	if s.Listen == "" {
		return errors.New(config.ErrListenRequired)
	}

	ln, err := net.Listen("tcp", s.Listen)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on an existing listener until ctx is cancelled.
func (s *ParseServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		s.Logger.Info(config.MsgServerListen, config.LogKeyListen, ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.Logger.Info(config.MsgServerStop)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// handleParse answers with a wire.Result: 200 for an event, 422 for a parse
// failure and 400 for a malformed request.
func (s *ParseServer) handleParse(w http.ResponseWriter, r *http.Request) {
	req, lang, ok := s.readRequest(w, r)
	if !ok {
		return
	}

	ev, err := s.parse(req)
	res := wire.FromParse(ev, err, s.Translator, lang)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, res)
}

// handleParseICS answers with a one-event VCALENDAR, or with the same JSON
// failures as handleParse.
func (s *ParseServer) handleParseICS(w http.ResponseWriter, r *http.Request) {
	req, lang, ok := s.readRequest(w, r)
	if !ok {
		return
	}

	now, _ := s.reference(req)
	ev, err := s.parser.ParseAt(req.Text, now)
	if err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, wire.FromParse(ev, err, s.Translator, lang))
		return
	}

	data, err := engine.EncodeICS([]engine.ResolvedEvent{ev}, now.Location(), now)
	if err != nil {
		s.Logger.Error(config.ErrICalEncode, config.LogKeyError, err)
		http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
		return
	}

	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderETag, etag)
	if match := r.Header.Get(config.HeaderIfNoneMatch); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if _, err := w.Write(data); err != nil {
		s.Logger.Error(config.ErrWriteResp, config.LogKeyError, err)
	}
}

func (s *ParseServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, http.MethodGet)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		config.HealthKeyStatus:  config.HTTPMsgOK,
		config.HealthKeyVersion: config.Version,
		config.HealthKeyServed:  s.served.Load(),
	})
}

// readRequest decodes and validates the request. On failure it has already
// written the response.
func (s *ParseServer) readRequest(w http.ResponseWriter, r *http.Request) (ParseRequest, string, bool) {
	lang := s.negotiate("", r)

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return ParseRequest{}, lang, false
	}

	req, err := s.decode(w, r)
	if err == nil {
		err = s.validate.Struct(req)
	}
	if err == nil {
		if _, err = s.reference(req); err != nil {
			err = errors.New(config.ErrInstantParse)
		}
	}
	if err != nil {
		f := wire.NewRequestFailure(validationReason(err), s.Translator, lang)
		s.writeJSON(w, http.StatusBadRequest, wire.Result{Error: &f})
		return ParseRequest{}, lang, false
	}

	return req, s.negotiate(req.Lang, r), true
}

func (s *ParseServer) decode(w http.ResponseWriter, r *http.Request) (ParseRequest, error) {
	q := r.URL.Query()
	req := ParseRequest{
		Text: q.Get(config.ParamText),
		Now:  q.Get(config.ParamNow),
		Lang: q.Get(config.ParamLang),
	}
	if r.Method == http.MethodGet {
		return req, nil
	}

	body := http.MaxBytesReader(w, r.Body, config.MaxRequestBody)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(config.HeaderContentType))
	if mediaType == "application/json" {
		var in ParseRequest
		if err := json.NewDecoder(body).Decode(&in); err != nil {
			return ParseRequest{}, err
		}
		return in, nil
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return ParseRequest{}, err
	}
	req.Text = string(raw)
	return req, nil
}

// reference returns the instant relative phrases are resolved against.
func (s *ParseServer) reference(req ParseRequest) (time.Time, error) {
	if req.Now != "" {
		return time.Parse(config.FormatInstant, req.Now)
	}
	clock := s.Clock
	if clock == nil {
		clock = engine.RealClock{}
	}
	return clock.Now().In(s.Location), nil
}

func (s *ParseServer) parse(req ParseRequest) (engine.ResolvedEvent, error) {
	now, _ := s.reference(req)
	return s.parser.ParseAt(req.Text, now)
}

// negotiate prefers an explicit language, then Accept-Language.
func (s *ParseServer) negotiate(explicit string, r *http.Request) string {
	if s.Translator == nil {
		return config.DefaultLanguage
	}
	return s.Translator.Match(explicit, r.Header.Get(config.HeaderAcceptLanguage))
}

func (s *ParseServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlNone)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error(config.ErrWriteResp, config.LogKeyError, err)
	}
}

// validationReason turns decoding and validation errors into a short reason
// such as "text: required".
func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf(config.FormatValidation, verrs[0].Field(), verrs[0].Tag())
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return config.ErrBodyTooLarge
	}
	return err.Error()
}

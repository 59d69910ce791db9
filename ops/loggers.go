package ops

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/evan-idocoding/actuator/settings"
)

// Canonical level names, in increasing severity.
const (
	LevelTrace = "TRACE"
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
	LevelOff   = "OFF"
)

// Levels lists every level name the loggers endpoint accepts.
var Levels = []string{LevelOff, LevelFatal, LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace}

// RootLogger is the name that also receives Logging:LogLevel:Default.
const RootLogger = "root"

// LogLevelKey is the configuration section read by ApplyConfiguredLevels.
const LogLevelKey = "Logging:LogLevel"

// ErrUnknownLogger is returned for a logger name that was never registered.
var ErrUnknownLogger = errors.New("ops: unknown logger")

// ErrInvalidLevel is returned for a level name outside Levels.
var ErrInvalidLevel = errors.New("ops: invalid level")

// LevelController reads and changes the level of one logging backend.
type LevelController interface {
	// Level returns the effective level as one of Levels.
	Level() string
	// SetLevel sets the level. level is one of Levels.
	SetLevel(level string) error
}

// ParseLevel normalizes s to one of Levels ("warning" and "err" are accepted too).
func ParseLevel(s string) (string, error) {
	l := strings.ToUpper(strings.TrimSpace(s))
	switch l {
	case "WARNING":
		l = LevelWarn
	case "ERR":
		l = LevelError
	case "NONE", "DISABLED":
		l = LevelOff
	}
	for _, v := range Levels {
		if l == v {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w %q (want one of: %s)", ErrInvalidLevel, s, strings.Join(Levels, ", "))
}

// --- slog ---

const (
	slogLevelTrace = slog.LevelDebug - 4
	slogLevelFatal = slog.LevelError + 4
	slogLevelOff   = slog.Level(1 << 20)
)

type slogController struct{ lv *slog.LevelVar }

// SlogLevel adapts a *slog.LevelVar.
//
// TRACE and FATAL map to levels four below DEBUG and four above ERROR.
func SlogLevel(lv *slog.LevelVar) LevelController {
	if lv == nil {
		panic("ops: nil slog.LevelVar")
	}
	return slogController{lv: lv}
}

func (c slogController) Level() string {
	l := c.lv.Level()
	switch {
	case l < slog.LevelDebug:
		return LevelTrace
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	case l < slogLevelFatal:
		return LevelError
	case l < slogLevelOff:
		return LevelFatal
	default:
		return LevelOff
	}
}

func (c slogController) SetLevel(level string) error {
	var l slog.Level
	switch level {
	case LevelTrace:
		l = slogLevelTrace
	case LevelDebug:
		l = slog.LevelDebug
	case LevelInfo:
		l = slog.LevelInfo
	case LevelWarn:
		l = slog.LevelWarn
	case LevelError:
		l = slog.LevelError
	case LevelFatal:
		l = slogLevelFatal
	case LevelOff:
		l = slogLevelOff
	default:
		return fmt.Errorf("%w %q", ErrInvalidLevel, level)
	}
	c.lv.Set(l)
	return nil
}

// --- zerolog ---

type zerologController struct{}

// ZerologGlobalLevel adapts zerolog's process-wide level (zerolog.SetGlobalLevel).
func ZerologGlobalLevel() LevelController { return zerologController{} }

func (zerologController) Level() string {
	switch l := zerolog.GlobalLevel(); {
	case l <= zerolog.TraceLevel:
		return LevelTrace
	case l == zerolog.DebugLevel:
		return LevelDebug
	case l == zerolog.InfoLevel:
		return LevelInfo
	case l == zerolog.WarnLevel:
		return LevelWarn
	case l == zerolog.ErrorLevel:
		return LevelError
	case l == zerolog.FatalLevel || l == zerolog.PanicLevel:
		return LevelFatal
	default:
		return LevelOff
	}
}

func (zerologController) SetLevel(level string) error {
	var l zerolog.Level
	switch level {
	case LevelTrace:
		l = zerolog.TraceLevel
	case LevelDebug:
		l = zerolog.DebugLevel
	case LevelInfo:
		l = zerolog.InfoLevel
	case LevelWarn:
		l = zerolog.WarnLevel
	case LevelError:
		l = zerolog.ErrorLevel
	case LevelFatal:
		l = zerolog.FatalLevel
	case LevelOff:
		l = zerolog.Disabled
	default:
		return fmt.Errorf("%w %q", ErrInvalidLevel, level)
	}
	zerolog.SetGlobalLevel(l)
	return nil
}

// --- registry ---

// Loggers is a named set of level controllers.
//
// It is safe for concurrent use.
type Loggers struct {
	mu         sync.RWMutex
	ctrl       map[string]LevelController
	configured map[string]string // name -> level set through configuration or the endpoint
}

// NewLoggers creates an empty set.
func NewLoggers() *Loggers {
	return &Loggers{
		ctrl:       make(map[string]LevelController),
		configured: make(map[string]string),
	}
}

// Register adds c under name (case-insensitive, stored lowercase).
//
// Empty names, nil controllers and duplicate names are assembly errors and panic.
func (l *Loggers) Register(name string, c LevelController) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		panic("ops: empty logger name")
	}
	if c == nil {
		panic("ops: nil LevelController for logger " + name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.ctrl[name]; dup {
		panic("ops: duplicated logger " + name)
	}
	l.ctrl[name] = c
}

// Names returns the registered names, sorted.
func (l *Loggers) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.ctrl))
	for n := range l.ctrl {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LoggerLevels describes one logger.
type LoggerLevels struct {
	ConfiguredLevel string `json:"configuredLevel,omitempty"`
	EffectiveLevel  string `json:"effectiveLevel"`
}

// Get returns the levels of name.
func (l *Loggers) Get(name string) (LoggerLevels, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.ctrl[name]
	if !ok {
		return LoggerLevels{}, fmt.Errorf("%w %q", ErrUnknownLogger, name)
	}
	return LoggerLevels{ConfiguredLevel: l.configured[name], EffectiveLevel: c.Level()}, nil
}

// Set changes the level of name. level is parsed with ParseLevel.
func (l *Loggers) Set(name, level string) (LoggerLevels, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.ctrl[name]
	if !ok {
		return LoggerLevels{}, fmt.Errorf("%w %q", ErrUnknownLogger, name)
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return LoggerLevels{}, err
	}
	if err := c.SetLevel(lvl); err != nil {
		return LoggerLevels{}, err
	}
	l.configured[name] = lvl
	return LoggerLevels{ConfiguredLevel: lvl, EffectiveLevel: c.Level()}, nil
}

// ApplyConfiguredLevels sets levels from the Logging:LogLevel section of root.
//
// Keys match logger names case-insensitively; "Default" targets RootLogger. Keys that
// name no registered logger are ignored. Invalid levels are skipped and reported in the
// joined error; the other entries still apply.
func ApplyConfiguredLevels(l *Loggers, root settings.Node) error {
	section := root.LookupNode(LogLevelKey)
	var errs []error
	for _, k := range section.Keys() {
		name := k
		if strings.EqualFold(name, "default") {
			name = RootLogger
		}
		s, err := settings.String(LogLevelKey+":"+k, section[k])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := l.Set(name, s); err != nil {
			if errors.Is(err, ErrUnknownLogger) {
				continue
			}
			errs = append(errs, fmt.Errorf("ops: %s:%s: %w", LogLevelKey, k, err))
		}
	}
	return errors.Join(errs...)
}

// --- handler ---

type loggersResponse struct {
	Levels  []string                `json:"levels"`
	Loggers map[string]LoggerLevels `json:"loggers"`
}

func (resp loggersResponse) text(b *strings.Builder) {
	names := make([]string, 0, len(resp.Loggers))
	for n := range resp.Loggers {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		loggerText(b, n, resp.Loggers[n])
	}
}

type loggerResponse struct {
	name string
	LoggerLevels
}

func (resp loggerResponse) text(b *strings.Builder) { loggerText(b, resp.name, resp.LoggerLevels) }

func loggerText(b *strings.Builder, name string, lv LoggerLevels) {
	writeKV(b, name, "effective_level", lv.EffectiveLevel)
	if lv.ConfiguredLevel != "" {
		writeKV(b, name, "configured_level", lv.ConfiguredLevel)
	}
}

type setLevelRequest struct {
	ConfiguredLevel string `json:"configuredLevel"`
}

// LoggersHandler returns the loggers endpoint. It expects to be mounted as a subtree
// with the mount prefix stripped:
//
//	GET  /         all loggers and the accepted levels
//	GET  /{name}   one logger
//	POST /{name}   set the level (?level=debug or JSON {"configuredLevel":"DEBUG"})
//
// An unknown logger is 404; an invalid level is 400.
func LoggersHandler(l *Loggers, opts ...Option) http.Handler {
	if l == nil {
		panic("ops: nil Loggers")
	}
	cfg := applyOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		name := strings.Trim(r.URL.Path, "/")
		if name == "" {
			if !readOnly(w, r, format) {
				return
			}
			resp := loggersResponse{Levels: Levels, Loggers: make(map[string]LoggerLevels)}
			for _, n := range l.Names() {
				if lv, err := l.Get(n); err == nil {
					resp.Loggers[n] = lv
				}
			}
			write(w, r, format, http.StatusOK, resp)
			return
		}
		if strings.Contains(name, "/") {
			writeError(w, r, format, http.StatusNotFound, "not found")
			return
		}
		if !allowMethods(w, r, format, http.MethodGet, http.MethodHead, http.MethodPost) {
			return
		}

		if r.Method != http.MethodPost {
			lv, err := l.Get(name)
			if err != nil {
				writeError(w, r, format, http.StatusNotFound, err.Error())
				return
			}
			write(w, r, format, http.StatusOK, loggerResponse{name: strings.ToLower(name), LoggerLevels: lv})
			return
		}

		level, err := requestedLevel(r)
		if err != nil {
			writeError(w, r, format, http.StatusBadRequest, err.Error())
			return
		}
		lv, err := l.Set(name, level)
		switch {
		case errors.Is(err, ErrUnknownLogger):
			writeError(w, r, format, http.StatusNotFound, err.Error())
		case err != nil:
			writeError(w, r, format, http.StatusBadRequest, err.Error())
		default:
			write(w, r, format, http.StatusOK, loggerResponse{name: strings.ToLower(name), LoggerLevels: lv})
		}
	})
}

const maxSetLevelBody = 4 << 10

func requestedLevel(r *http.Request) (string, error) {
	if lv := r.URL.Query().Get("level"); lv != "" {
		return lv, nil
	}
	if r.Body == nil {
		return "", errors.New("ops: missing level")
	}
	var req setLevelRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxSetLevelBody)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("ops: invalid request body: %w", err)
	}
	if req.ConfiguredLevel == "" {
		return "", errors.New("ops: missing level")
	}
	return req.ConfiguredLevel, nil
}

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"cine/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// New constructs a slog logger from the options. Console and JSON output
// share one level gate; source locations are attached at debug level or when
// Development is set.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))

	sink, err := openSink(opts.OutputPaths, opts.ErrorOutputPaths)
	if err != nil {
		return nil, err
	}

	withSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	switch normalizeFormat(opts.Format) {
	case "json":
		return slog.New(jsonHandler(sink, levelVar, withSource)), nil
	case "console":
		return slog.New(&consoleHandler{out: sink, level: levelVar, withSource: withSource}), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

// NewFromConfig builds the standard daemon logger: stdout and stderr plus
// cine.log inside the configured log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	opts := Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg == nil {
		return New(opts)
	}

	opts.Level = cfg.Logging.Level
	opts.Format = cfg.Logging.Format
	if cfg.Paths.LogDir != "" {
		if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		logPath := filepath.Join(cfg.Paths.LogDir, "cine.log")
		opts.OutputPaths = append(opts.OutputPaths, logPath)
		opts.ErrorOutputPaths = append(opts.ErrorOutputPaths, logPath)
	}
	return New(opts)
}

func parseLevel(value string) slog.Level {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(value))]; ok {
		return level
	}
	return slog.LevelInfo
}

func normalizeFormat(value string) string {
	format := strings.ToLower(strings.TrimSpace(value))
	if format == "" {
		return "console"
	}
	return format
}

// openSink combines output and error paths into a single writer. "stdout"
// and "stderr" name the process streams; every other path is opened once in
// append mode, creating parent directories as needed.
func openSink(outputs, errorOutputs []string) (io.Writer, error) {
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	if len(errorOutputs) == 0 {
		errorOutputs = []string{"stderr"}
	}

	var writers []io.Writer
	opened := make(map[string]bool)
	for _, path := range append(append([]string{}, outputs...), errorOutputs...) {
		path = strings.TrimSpace(path)
		if path == "" || opened[path] {
			continue
		}
		opened[path] = true

		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if dir := filepath.Dir(path); dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create log directory: %w", err)
				}
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log output %s: %w", path, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func jsonHandler(w io.Writer, level *slog.LevelVar, withSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   withSource,
		ReplaceAttr: rewriteCoreKeys,
	})
}

// rewriteCoreKeys renames slog's built-in keys to the ts/level/msg wire form
// and compacts source locations to file:line.
func rewriteCoreKeys(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		attr.Key = "level"
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "msg"
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
		}
	}
	return attr
}

// consoleHandler renders one line per record: RFC3339 timestamp, level
// label, optional component prefix, message, then k=v attributes. The
// component attribute becomes the prefix instead of a pair.
type consoleHandler struct {
	mu         sync.Mutex
	out        io.Writer
	level      *slog.LevelVar
	withSource bool
	group      string
	attrs      []slog.Attr
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.fork()
	next.attrs = append(next.attrs, attrs...)
	return next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	next := h.fork()
	if name != "" {
		next.group = joinKey(next.group, name)
	}
	return next
}

func (h *consoleHandler) fork() *consoleHandler {
	return &consoleHandler{
		out:        h.out,
		level:      h.level,
		withSource: h.withSource,
		group:      h.group,
		attrs:      append([]slog.Attr(nil), h.attrs...),
	}
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var line consoleLine
	for _, attr := range h.attrs {
		line.walk(h.group, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.walk(h.group, attr)
		return true
	})

	var b strings.Builder
	b.Grow(96 + line.pairs.Len())
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelTag(record.Level))
	b.WriteByte(' ')
	if line.component != "" {
		b.WriteString(line.component)
		b.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	if h.withSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteString(line.pairs.String())
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

// consoleLine accumulates rendered k=v pairs and captures the first
// top-level component attribute.
type consoleLine struct {
	pairs     strings.Builder
	component string
}

func (l *consoleLine) walk(prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = joinKey(prefix, attr.Key)
		}
		for _, nested := range attr.Value.Group() {
			l.walk(next, nested)
		}
		return
	}

	key := joinKey(prefix, attr.Key)
	if key == "" {
		return
	}
	if key == FieldComponent {
		if l.component == "" {
			l.component = plainString(attr.Value)
		}
		return
	}
	l.pairs.WriteByte(' ')
	l.pairs.WriteString(key)
	l.pairs.WriteByte('=')
	l.pairs.WriteString(renderValue(attr.Value))
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func plainString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func renderValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return quoteIfNeeded(v.String())
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

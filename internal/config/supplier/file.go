package supplier

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/typedconf/internal/config/notify"
	"github.com/dshills/typedconf/internal/config/parser"
	"github.com/dshills/typedconf/internal/config/telemetry"
	"github.com/dshills/typedconf/internal/config/watcher"
)

// File is a supplier backed by a config file. It reloads when the file or
// any file it includes changes, and when its parent supplier changes.
type File struct {
	base

	path   string
	parser *parser.Parser
	parent Supplier

	reloadMu sync.Mutex
	files    []string

	watcher   *watcher.Watcher
	parentSub *notify.Subscription
}

// NewFile parses path and returns a supplier holding the result. The
// initial parse error is returned as is; later reload errors are logged.
func NewFile(p *parser.Parser, path string, opts ...Option) (*File, error) {
	o := newOptions(path, opts)
	f := &File{path: path, parser: p, parent: o.parent}
	f.init(o)

	if err := f.Reload(); err != nil {
		f.close()
		return nil, err
	}

	if o.watch {
		f.watcher = watcher.New(append([]watcher.Option{
			watcher.WithErrorHandler(func(err error) {
				f.log.Warn().Err(err).Msg("file watcher error")
			}),
		}, o.watchOpts...)...)
		if err := f.watcher.Set(f.Files()); err != nil {
			f.close()
			_ = f.watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
		f.watcher.OnChange(f.handleFileChange)
		f.watcher.Start()
	}

	if f.parent != nil {
		f.parentSub = f.parent.AddListener(func(Update) { _ = f.Reload() })
	}
	return f, nil
}

// Path returns the config file path.
func (f *File) Path() string { return f.path }

// Files returns the files that contributed to the current record.
func (f *File) Files() []string {
	f.reloadMu.Lock()
	defer f.reloadMu.Unlock()
	return append([]string(nil), f.files...)
}

// Reload parses the file again and sets the result. On failure the current
// record is kept and the error is logged and returned.
func (f *File) Reload() error {
	f.reloadMu.Lock()
	defer f.reloadMu.Unlock()

	log := f.log.With().Str("file", f.path).Str("reload_id", uuid.NewString()).Logger()
	start := time.Now()

	res, err := f.parse()
	if err != nil {
		f.collector.ObserveReload(f.name, telemetry.ResultError, time.Since(start))
		log.Error().Err(err).Msg("reload failed; keeping previous config")
		return err
	}
	f.files = res.Files

	if f.watcher != nil {
		if err := f.watcher.Set(res.Files); err != nil {
			log.Warn().Err(err).Msg("update watched files")
		}
	}

	result := telemetry.ResultUnchanged
	if f.set(res.Message) {
		result = telemetry.ResultChanged
	}
	f.collector.ObserveReload(f.name, result, time.Since(start))
	log.Debug().Str("result", result).Int("files", len(res.Files)).Msg("config loaded")
	return nil
}

func (f *File) parse() (*parser.Result, error) {
	if f.parent == nil {
		return f.parser.ParseFile(f.path, nil)
	}
	parent, err := f.parent.Get()
	if err != nil {
		return nil, err
	}
	return f.parser.ParseFile(f.path, parent)
}

func (f *File) handleFileChange(event watcher.Event) {
	f.log.Debug().Str("path", event.Path).Stringer("op", event.Op).Msg("config file changed")
	_ = f.Reload()
}

// Close stops watching and releases the listeners.
func (f *File) Close() error {
	f.parentSub.Unsubscribe()
	var err error
	if f.watcher != nil {
		err = f.watcher.Close()
	}
	f.close()
	return err
}

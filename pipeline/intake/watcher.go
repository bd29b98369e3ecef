package intake

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

// Watcher observa sample_sources/ con fsnotify y avisa cuando aparece un
// PDF nuevo. Los eventos del sistema de archivos pueden perderse, por lo
// que el watcher solo acelera la detección: el barrido periódico del
// runner sigue siendo la fuente de verdad.
type Watcher struct {
	fsw    *fsnotify.Watcher
	dir    string
	logger *utils.PipelineLogger

	// Events recibe el nombre de cada PDF nuevo detectado
	Events chan string
}

// NewWatcher crea un watcher sobre el directorio de muestras
func NewWatcher(dir string, logger *utils.PipelineLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		fsw:    fsw,
		dir:    dir,
		logger: logger,
		Events: make(chan string, 64),
	}, nil
}

// Run procesa eventos hasta que el contexto se cancele.
// Se aplica un pequeño debounce por archivo: los editores y las copias
// generan varios eventos Write seguidos para el mismo documento.
func (w *Watcher) Run(ctx context.Context) {
	lastSeen := make(map[string]time.Time)
	const debounce = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}

			name := filepath.Base(event.Name)
			if !strings.EqualFold(filepath.Ext(name), ".pdf") {
				continue
			}

			now := time.Now()
			if prev, ok := lastSeen[name]; ok && now.Sub(prev) < debounce {
				continue
			}
			lastSeen[name] = now

			w.logger.Debug("[watcher] Evento %s para %s", event.Op, name)

			select {
			case w.Events <- name:
			default:
				// Canal lleno: el barrido periódico lo recogerá
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("[watcher] Error de fsnotify: %v", err)
		}
	}
}

// Close libera el watcher
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Package widget is a headless model of the image upload widget: it tracks
// drag and drop, keeps a local preview of the chosen file, and drives one
// upload at a time against the upload endpoint.
package widget

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// State is the widget's current mode.
type State int

const (
	Idle State = iota
	DragOver
	Uploading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DragOver:
		return "drag-over"
	case Uploading:
		return "uploading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureMessage is shown to the user when an upload fails.
const FailureMessage = "Failed to upload image. Please try again."

var (
	// ErrBusy is returned when a file arrives while an upload is running.
	ErrBusy = errors.New("widget: upload already in progress")
	// ErrClosed is returned for events after Close.
	ErrClosed = errors.New("widget: closed")
)

// File is a file chosen by the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader sends a file to the server and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
}

// PreviewStore hands out revocable references used to display a file locally.
type PreviewStore interface {
	Create(f File) string
	Revoke(ref string)
}

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

// Snapshot is a point-in-time view of the widget for rendering.
type Snapshot struct {
	State    State
	FileName string
	Preview  string
	URL      string
	Err      error
}

// Widget is safe for concurrent use. At most one upload is outstanding;
// files offered while one runs are rejected with ErrBusy.
type Widget struct {
	uploader Uploader
	previews PreviewStore
	notifier Notifier
	observer func(Snapshot)
	log      *zap.Logger

	mu       sync.Mutex
	state    State
	resting  State // state to return to when a drag ends
	fileName string
	preview  string
	url      string
	err      error
	closed   bool
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	seq      uint64 // bumped on every state change

	emitMu  sync.Mutex
	emitted uint64 // seq of the last snapshot handed to observer
}

// Option configures a Widget.
type Option func(*Widget)

// WithNotifier sets where failure messages go.
func WithNotifier(n Notifier) Option {
	return func(w *Widget) { w.notifier = n }
}

// WithObserver registers fn to receive a Snapshot after every state change.
// fn is called without the widget lock held, one call at a time and in
// change order; a snapshot overtaken by a newer one is skipped. fn may call
// Snapshot but must not send events to the widget.
func WithObserver(fn func(Snapshot)) Option {
	return func(w *Widget) { w.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Widget) { w.log = log }
}

// New creates an idle Widget.
func New(uploader Uploader, previews PreviewStore, opts ...Option) *Widget {
	w := &Widget{
		uploader: uploader,
		previews: previews,
		notifier: NotifierFunc(func(string) {}),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot returns the current view.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// changedLocked records a state change and returns its sequence number with
// the new view.
func (w *Widget) changedLocked() (uint64, Snapshot) {
	w.seq++
	return w.seq, w.snapshotLocked()
}

func (w *Widget) snapshotLocked() Snapshot {
	return Snapshot{
		State:    w.state,
		FileName: w.fileName,
		Preview:  w.preview,
		URL:      w.url,
		Err:      w.err,
	}
}

// DragEnter marks a drag entering the drop zone.
func (w *Widget) DragEnter() error { return w.dragActive() }

// DragOver marks a drag moving over the drop zone.
func (w *Widget) DragOver() error { return w.dragActive() }

func (w *Widget) dragActive() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state == DragOver || w.state == Uploading {
		w.mu.Unlock()
		return nil
	}
	w.resting = w.state
	w.state = DragOver
	seq, snap := w.changedLocked()
	w.mu.Unlock()

	w.emit(seq, snap)
	return nil
}

// DragLeave marks a drag leaving the drop zone.
func (w *Widget) DragLeave() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state != DragOver {
		w.mu.Unlock()
		return nil
	}
	w.state = w.resting
	seq, snap := w.changedLocked()
	w.mu.Unlock()

	w.emit(seq, snap)
	return nil
}

// Drop accepts dropped files. Only the first is used.
func (w *Widget) Drop(files []File) error {
	return w.accept(files)
}

// Select accepts files chosen through the file picker. Only the first is used.
func (w *Widget) Select(files []File) error {
	return w.accept(files)
}

func (w *Widget) accept(files []File) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state == Uploading {
		w.mu.Unlock()
		return ErrBusy
	}
	if len(files) == 0 {
		if w.state != DragOver {
			w.mu.Unlock()
			return nil
		}
		w.state = w.resting
		seq, snap := w.changedLocked()
		w.mu.Unlock()
		w.emit(seq, snap)
		return nil
	}

	f := files[0]
	if w.preview != "" {
		w.previews.Revoke(w.preview)
	}
	w.preview = w.previews.Create(f)
	w.fileName = f.Name
	w.url = ""
	w.err = nil
	w.state = Uploading

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.inflight.Add(1)
	seq, snap := w.changedLocked()
	w.mu.Unlock()

	w.emit(seq, snap)
	go w.run(ctx, cancel, f)
	return nil
}

func (w *Widget) run(ctx context.Context, cancel context.CancelFunc, f File) {
	defer w.inflight.Done()
	defer cancel()

	url, err := w.uploader.Upload(ctx, f)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.cancel = nil
	if err != nil {
		w.state = Failed
		w.err = err
	} else {
		w.state = Ready
		w.url = url
	}
	seq, snap := w.changedLocked()
	w.mu.Unlock()

	if err != nil {
		w.log.Warn("image upload failed", zap.String("file_name", f.Name), zap.Error(err))
		w.notifier.Notify(FailureMessage)
	}
	w.emit(seq, snap)
}

// Wait blocks until no upload is outstanding.
func (w *Widget) Wait() {
	w.inflight.Wait()
}

// Close cancels any running upload and revokes the preview. It is safe to
// call more than once.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.preview != "" {
		w.previews.Revoke(w.preview)
		w.preview = ""
	}
	w.mu.Unlock()

	w.inflight.Wait()
}

// emit delivers s unless a later change has already been delivered.
func (w *Widget) emit(seq uint64, s Snapshot) {
	if w.observer == nil {
		return
	}
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	if seq <= w.emitted {
		return
	}
	w.emitted = seq
	w.observer(s)
}

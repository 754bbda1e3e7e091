package processing

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ssdetect/internal/models"
)

// RemoteModel delegates inference to a detection server over a websocket. Each Infer sends
// one JPEG frame as a binary message and waits for one JSON tensors message back.
type RemoteModel struct {
	serverURL string
	timeout   time.Duration
	logger    *zap.SugaredLogger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewRemoteModel(host, path string, timeout time.Duration, logger *zap.SugaredLogger) *RemoteModel {
	if path == "" {
		path = "/ws"
	}
	u := url.URL{Scheme: "ws", Host: host, Path: path}
	return newRemoteModelURL(u.String(), timeout, logger)
}

func newRemoteModelURL(serverURL string, timeout time.Duration, logger *zap.SugaredLogger) *RemoteModel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteModel{
		serverURL: serverURL,
		timeout:   timeout,
		logger:    logger,
	}
}

func (d *RemoteModel) Name() string {
	return "remote:" + d.serverURL
}

// Load dials the detection server. An existing connection is replaced.
func (d *RemoteModel) Load(ctx context.Context) error {
	d.logger.Infow("connecting to detector server", "url", d.serverURL)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.serverURL, nil)
	if err != nil {
		return errors.Wrapf(err, "connect to %s", d.serverURL)
	}

	d.mu.Lock()
	old := d.conn
	d.conn = conn
	d.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	d.logger.Info("connected to detection server")
	return nil
}

func (d *RemoteModel) Infer(ctx context.Context, img image.Image) ([]models.RawCandidate, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, errors.Wrap(err, "jpeg encode")
	}

	// one request in flight per connection; gorilla connections allow a single writer and reader
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil, errors.Wrap(ErrDisconnected, "not connected to detection server")
	}

	deadline := time.Now().Add(d.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = d.conn.SetWriteDeadline(deadline)
	_ = d.conn.SetReadDeadline(deadline)

	if err := d.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		d.dropLocked()
		return nil, errors.Wrapf(ErrDisconnected, "send frame: %v", err)
	}

	_, message, err := d.conn.ReadMessage()
	if err != nil {
		d.dropLocked()
		return nil, errors.Wrapf(ErrDisconnected, "read detections: %v", err)
	}

	t, err := decodeTensors(message)
	if err != nil {
		return nil, err
	}
	return t.candidates(), nil
}

// dropLocked closes a broken connection; Infer reports ErrDisconnected until Load is called again.
func (d *RemoteModel) dropLocked() {
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
	d.logger.Warn("connection to detection server lost")
}

func (d *RemoteModel) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	_ = d.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := d.conn.Close()
	d.conn = nil
	return err
}

package handler

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/kulaginds/bmp-html5/internal/bmp"
	"github.com/kulaginds/bmp-html5/internal/config"
	"github.com/kulaginds/bmp-html5/internal/logging"
)

const (
	webSocketReadBufferSize  = 8192
	webSocketWriteBufferSize = 8192 * 2
)

// frameMeta is the JSON frame sent ahead of each RGBA frame so the browser
// can size its canvas before blitting.
type frameMeta struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BitsPerPixel int    `json:"bitsPerPixel"`
	Dialect      string `json:"dialect"`
	Compression  string `json:"compression"`
	Error        string `json:"error,omitempty"`
}

// View upgrades the connection to a websocket and serves decode requests on
// it: every binary message is a complete BMP file, answered with a JSON meta
// frame followed by the raw RGBA pixels. Decode failures answer with an
// error meta frame and keep the connection open.
func View(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  webSocketReadBufferSize,
		WriteBufferSize: webSocketWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return isAllowedOrigin(r.Header.Get("Origin"))
		},
	}
	protocol := r.Header.Get("Sec-Websocket-Protocol")

	wsConn, err := upgrader.Upgrade(w, r, http.Header{
		"Sec-Websocket-Protocol": {protocol},
	})
	if err != nil {
		log.Println(fmt.Errorf("upgrade websocket: %w", err))

		return
	}

	defer func() {
		if err = wsConn.Close(); err != nil {
			log.Println(fmt.Errorf("error closing websocket: %w", err))
		}
	}()

	cfg := activeConfig()
	if cfg.Decoder.MaxInputBytes > 0 {
		wsConn.SetReadLimit(cfg.Decoder.MaxInputBytes)
	}

	for {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			if strings.HasSuffix(err.Error(), "use of closed network connection") {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}

			log.Println(fmt.Errorf("error reading message from ws: %w", err))

			return
		}

		if msgType != websocket.BinaryMessage {
			continue
		}

		if err = serveFrame(wsConn, cfg, data); err != nil {
			log.Println(fmt.Errorf("failed sending frame to ws: %w", err))

			return
		}
	}
}

// serveFrame decodes one uploaded file and writes the meta/pixel frame pair.
// A decode failure produces only an error meta frame; write failures end the
// connection.
func serveFrame(wsConn *websocket.Conn, cfg *config.Config, data []byte) error {
	img, err := bmp.DecodeBytes(data)
	if err == nil {
		err = checkDimensions(cfg, img.Grid.Width, img.Grid.Height)
	}
	if err != nil {
		return wsConn.WriteJSON(frameMeta{Error: err.Error()})
	}

	logging.Debug("decoded %dx%d %d bpp %s from %d bytes",
		img.Grid.Width, img.Grid.Height, img.Header.BitsPerPixel, img.Dialect, len(data))

	meta := frameMeta{
		Width:        img.Grid.Width,
		Height:       img.Grid.Height,
		BitsPerPixel: img.Header.BitsPerPixel,
		Dialect:      img.Dialect.String(),
		Compression:  img.Header.Compression.String(),
	}
	if err = wsConn.WriteJSON(meta); err != nil {
		return err
	}

	return wsConn.WriteMessage(websocket.BinaryMessage, img.Grid.Pix)
}

func checkDimensions(cfg *config.Config, w, h int) error {
	maxW, maxH := cfg.Decoder.MaxWidth, cfg.Decoder.MaxHeight
	if maxW > 0 && w > maxW || maxH > 0 && h > maxH {
		return fmt.Errorf("image %dx%d exceeds the configured limit %dx%d", w, h, maxW, maxH)
	}

	return nil
}

// activeConfig returns the config loaded by the server, falling back to a
// fresh env load when the handler runs standalone (as in tests).
func activeConfig() *config.Config {
	cfg := config.GetGlobalConfig()
	if cfg != nil {
		return cfg
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		cfg = &config.Config{}
	}

	return cfg
}

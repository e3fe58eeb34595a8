package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/overlay3d/internal/render"
	"github.com/ayusman/overlay3d/internal/server/api"
)

// DefaultFrameInterval paces the preview stream at about 2 frames per second.
const DefaultFrameInterval = 500 * time.Millisecond

// StreamHandler serves sample previews as an MJPEG stream for browsing a
// dataset in a browser. The stream ends after the last requested sample.
type StreamHandler struct {
	dataset  api.Dataset
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler over d. A non-positive
// interval selects DefaultFrameInterval.
func NewStreamHandler(d api.Dataset, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &StreamHandler{dataset: d, interval: interval}
}

// ServeHTTP streams MJPEG frames to connected clients.
// Accepts the same start and count parameters as the feed.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	samples := h.dataset.Samples()
	start, count, err := parseRange(r, len(samples))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for i, s := range samples[start : start+count] {
		if i > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(h.interval):
			}
		}

		frame, err := render.Sample(h.dataset, h.dataset.Classes(), s.Index)
		if err != nil {
			log.Printf("stream: skipping sample %s: %v", s.ID, err)
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
		frame.Close()
		if err != nil {
			log.Printf("stream: failed to encode sample %s: %v", s.ID, err)
			continue
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}

	fmt.Fprintf(w, "--frame--\r\n")
}

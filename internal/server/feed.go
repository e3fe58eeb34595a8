package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/ayusman/overlay3d/internal/dataset"
	"github.com/ayusman/overlay3d/internal/server/api"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FeedMessage is one sample of the feed. Either the mask summary or the
// error fields are set.
type FeedMessage struct {
	Index     int                `json:"index"`
	ID        string             `json:"id"`
	Shape     *[3]int            `json:"shape,omitempty"`
	ClassIDs  []int              `json:"class_ids,omitempty"`
	Instances []dataset.Instance `json:"instances,omitempty"`
	Error     string             `json:"error,omitempty"`
	Code      string             `json:"code,omitempty"`
}

// FeedHandler streams decoded samples to a trainer over a WebSocket, one
// message per sample in index order, then closes the connection.
type FeedHandler struct {
	dataset api.Dataset
}

// NewFeedHandler creates a new FeedHandler over d.
func NewFeedHandler(d api.Dataset) *FeedHandler {
	return &FeedHandler{dataset: d}
}

// ServeHTTP handles WebSocket upgrade requests.
// Query parameters: start (default 0) and count (default all remaining).
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	samples := h.dataset.Samples()

	start, count, err := parseRange(r, len(samples))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	for _, s := range samples[start : start+count] {
		if err := r.Context().Err(); err != nil {
			return
		}

		if err := conn.WriteJSON(h.message(s)); err != nil {
			log.Printf("feed write error at sample %d: %v", s.Index, err)
			return
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "end of feed")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		log.Printf("feed close error: %v", err)
	}
}

func (h *FeedHandler) message(s dataset.Sample) FeedMessage {
	msg := FeedMessage{Index: s.Index, ID: s.ID}

	set, err := h.dataset.Masks(s.Index)
	if err != nil {
		msg.Error = err.Error()
		msg.Code = api.ErrorCode(err)
		return msg
	}

	shape := set.Shape()
	msg.Shape = &shape
	msg.ClassIDs = set.ClassIDs
	msg.Instances = set.Instances
	return msg
}

type rangeError string

func (e rangeError) Error() string { return string(e) }

// parseRange reads start and count from the query and clamps count to the
// samples remaining after start.
func parseRange(r *http.Request, n int) (start, count int, err error) {
	q := r.URL.Query()

	if v := q.Get("start"); v != "" {
		start, err = strconv.Atoi(v)
		if err != nil || start < 0 || start > n {
			return 0, 0, rangeError("invalid start")
		}
	}

	count = n - start
	if v := q.Get("count"); v != "" {
		c, err := strconv.Atoi(v)
		if err != nil || c < 0 {
			return 0, 0, rangeError("invalid count")
		}
		count = min(c, count)
	}

	return start, count, nil
}

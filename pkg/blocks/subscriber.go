package blocks

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	tipQueueMaxSize   = 16
	reconnectInterval = 5 * time.Second
)

// Tip is emitted whenever the subscribed endpoint announces a new chain tip.
type Tip struct {
	Height uint32 `json:"height"`
	Hash   string `json:"hash"`
}

// Service is the interface of the block-tip subscriber, one of the sync
// trigger sources of the daemon.
type Service interface {
	Start()
	Stop()
	TipChannel() chan Tip
}

type subscriber struct {
	wsURL   string
	tipChan chan Tip
	quit    chan struct{}
	mutex   *sync.Mutex
	started bool
}

// NewService returns a block subscriber ready to watch the given websocket
// endpoint. Use Start and Stop methods to manage it.
func NewService(wsURL string) Service {
	return &subscriber{
		wsURL:   wsURL,
		tipChan: make(chan Tip, tipQueueMaxSize),
		quit:    make(chan struct{}),
		mutex:   &sync.Mutex{},
	}
}

// Start connects and keeps reading tip announcements, reconnecting with a
// fixed pause on any connection error, until Stop is called.
func (s *subscriber) Start() {
	s.mutex.Lock()
	if s.started {
		s.mutex.Unlock()
		return
	}
	s.started = true
	s.mutex.Unlock()

	go s.run()
}

// Stop stops the subscriber and closes the tip channel.
func (s *subscriber) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started {
		return
	}
	s.started = false
	close(s.quit)
}

// TipChannel returns the channel new chain tips are delivered on.
func (s *subscriber) TipChannel() chan Tip {
	return s.tipChan
}

func (s *subscriber) run() {
	defer close(s.tipChan)

	for {
		select {
		case <-s.quit:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(s.wsURL, nil)
		if err != nil {
			log.WithError(err).Warn("blocks: connecting to tip endpoint")
			if !s.pause() {
				return
			}
			continue
		}

		s.readLoop(conn)
		conn.Close()

		if !s.pause() {
			return
		}
	}
}

func (s *subscriber) readLoop(conn *websocket.Conn) {
	for {
		select {
		case <-s.quit:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).Warn("blocks: reading tip announcement")
			return
		}

		var tip Tip
		if err := json.Unmarshal(message, &tip); err != nil {
			log.WithError(err).Warn("blocks: parsing tip announcement")
			continue
		}

		select {
		case s.tipChan <- tip:
		default:
			// Slow consumer, drop the announcement. The next sync pass reads
			// the height from the check-in anyway.
		}
	}
}

func (s *subscriber) pause() bool {
	select {
	case <-s.quit:
		return false
	case <-time.After(reconnectInterval):
		return true
	}
}

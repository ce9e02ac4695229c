package livemap

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"formulagame/pkg/caster"
	"formulagame/pkg/game"
	"formulagame/pkg/layout"
	"formulagame/pkg/pubsub"
	"formulagame/pkg/resources"
)

const boardID = "live"

var upgrader = websocket.Upgrader{} // use default options

// Frame is one websocket message. Repaint frames carry a fresh snapshot.
type Frame struct {
	Topic    string         `json:"topic"`
	Event    *game.Event    `json:"event,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
}

// Snapshotter is the part of the game manager the live map reads.
type Snapshotter interface {
	Snapshot() game.Snapshot
}

type LiveMap struct {
	game      Snapshotter
	ps        *pubsub.PubSub[game.Event]
	resources *resources.Manager
	caster    caster.ChannelCaster[Frame]
	mu        sync.Mutex
}

func NewLiveMap(r *mux.Router, g Snapshotter, ps *pubsub.PubSub[game.Event], res *resources.Manager) *LiveMap {
	lm := &LiveMap{
		game:      g,
		ps:        ps,
		resources: res,
		caster:    caster.JSONChannelCaster[Frame]{},
	}

	lm.addHandlers(r)
	return lm
}

// subscribe merges every game topic into one channel until done is closed.
func (lm *LiveMap) subscribe(done <-chan struct{}) <-chan game.Event {
	merged := make(chan game.Event)
	var wg sync.WaitGroup
	for _, topic := range game.Topics {
		ch := lm.ps.Subscribe(topic)
		wg.Add(1)
		go func(topic string, ch <-chan game.Event) {
			defer wg.Done()
			defer lm.ps.Unsubscribe(topic, ch)
			for {
				select {
				case <-done:
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- ev:
					case <-done:
						return
					}
				}
			}
		}(topic, ch)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()
	return merged
}

func (lm *LiveMap) frame(ev *game.Event) Frame {
	if ev == nil {
		s := lm.game.Snapshot()
		return Frame{Topic: "snapshot", Snapshot: &s}
	}
	f := Frame{Topic: ev.Topic, Event: ev}
	if ev.Topic == game.TopicRepaint {
		s := lm.game.Snapshot()
		f.Snapshot = &s
	}
	return f
}

func (lm *LiveMap) write(c *websocket.Conn, mt int, f Frame) error {
	msg, err := lm.caster.To(f)
	if err != nil {
		return err
	}
	return c.WriteMessage(mt, []byte(msg))
}

func (lm *LiveMap) websocketHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Print("upgrade:", err)
			return
		}
		defer c.Close()
		mt, message, err := c.ReadMessage()
		if err != nil {
			log.Println("read:", err)
			return
		}
		log.Printf("recv: %s (%d)", message, mt)

		done := make(chan struct{})
		defer close(done)
		events := lm.subscribe(done)

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := lm.write(c, mt, lm.frame(nil)); err != nil {
			log.Println("write:", err)
			return
		}
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := lm.write(c, mt, lm.frame(&ev)); err != nil {
					log.Println("write:", err)
					return
				}
			case <-gone:
				log.Print("websocket closed\n")
				return
			case <-r.Context().Done():
				log.Print("websocket closed\n")
				return
			}
		}
	}
}

// boardHandler renders the current board as svg and serves it.
func (lm *LiveMap) boardHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		lm.mu.Lock()
		defer lm.mu.Unlock()
		res, err := lm.resources.BuildRaceSVG(boardID, lm.game.Snapshot())
		if err != nil {
			log.Printf("Error building live board: %s\n", err)
			http.Error(w, "board not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, res.FilePath())
	}
}

type Data struct {
	WebSocketURL string
	BoardURL     string
	Width        int
	Height       int
}

func (lm *LiveMap) livemapHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		lm.mu.Lock()
		res, err := lm.resources.BuildRaceSVG(boardID, lm.game.Snapshot())
		lm.mu.Unlock()
		if err != nil {
			fmt.Fprintf(w, "The board could not be drawn")
			return
		}
		meta, err := layout.ReadSvgMetadata(res.FilePath())
		if err != nil {
			log.Printf("Error reading svg metadata: %s\n", err)
			fmt.Fprintf(w, "The board could not be drawn")
			return
		}
		e := Data{
			WebSocketURL: "ws://" + r.Host + "/livemap",
			BoardURL:     "http://" + r.Host + "/live/board.svg",
			Width:        int(meta.Width),
			Height:       int(meta.Height),
		}
		if err := homeTemplate.Execute(w, e); err != nil {
			log.Printf("Error rendering live page: %s\n", err)
		}
	}
}

func (lm *LiveMap) addHandlers(r *mux.Router) {
	r.HandleFunc("/livemap", lm.websocketHandler())
	r.HandleFunc("/live", lm.livemapHandler())
	r.HandleFunc("/live/board.svg", lm.boardHandler())
}

var homeTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Formula LiveMap</title>
</head>
<body>
  <div id="svgContainer" style="width: {{ .Width }}px; height: {{ .Height }}px"></div>
  <p id="hint"></p>

  <script>
    const boardUrl = '{{ .BoardURL }}';
    const wsUrl = '{{ .WebSocketURL }}';

    const svgContainer = document.getElementById('svgContainer');
    const hint = document.getElementById('hint');

    const socket = new WebSocket(wsUrl);

    socket.addEventListener('open', (event) => {
      socket.send("start");
    });

    socket.addEventListener('message', (event) => {
      const frame = JSON.parse(event.data);
      switch (frame.topic) {
        case 'snapshot':
        case 'repaint':
          downloadAndDisplaySVG(boardUrl);
          break;
        case 'hint':
          hint.textContent = frame.event.hint;
          break;
        case 'crash':
          hint.textContent = 'Crash at speed ' + frame.event.speed;
          break;
        case 'winner':
          hint.textContent = frame.event.message;
          break;
      }
    });

    socket.addEventListener('close', (event) => {
      console.log('WebSocket connection closed:', event);
    });

    socket.addEventListener('error', (event) => {
      console.error('WebSocket connection error:', event);
    });

    async function downloadAndDisplaySVG(url) {
      try {
        const response = await fetch(url, {cache: 'no-store'});

        if (!response.ok) {
          throw new Error(` + "`Failed to fetch SVG: ${response.statusText}`" + `);
        }

        svgContainer.innerHTML = await response.text();
      } catch (error) {
        console.error(error.message);
      }
    }
  </script>
</body>
</html>
`))

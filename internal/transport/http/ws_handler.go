package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"quiz-session/internal/app"
	"quiz-session/internal/domain"
	"quiz-session/internal/infra/memory"
	"quiz-session/internal/view"

	"github.com/gorilla/websocket"
)

// ViewOptions configures the decorative parts of the browser view.
type ViewOptions struct {
	Countdown int
	Tick      time.Duration
}

// WSHandler gives every websocket connection its own quiz session.
type WSHandler struct {
	quizzes  app.QuizRepository
	source   string
	sessions *memory.SessionStore
	opts     ViewOptions
	upgrader websocket.Upgrader
}

func NewWSHandler(quizzes app.QuizRepository, source string, sessions *memory.SessionStore, opts ViewOptions) *WSHandler {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	return &WSHandler{
		quizzes:  quizzes,
		source:   source,
		sessions: sessions,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID domain.QuestionID `json:"questionId"`
	Option     string            `json:"option"`
}

type countdownPayload struct {
	Value int `json:"value"`
}

type resultPayload struct {
	domain.SubmitResult
	Outcome view.Outcome `json:"outcome,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a fresh session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := app.NewSession(h.quizzes, h.source, nil)
	h.sessions.Add(session)
	defer h.sessions.Remove(session.ID())
	log.Printf("session %s: connected from %s", session.ID(), r.RemoteAddr)

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	out := newOutbox(16)
	updatesDone := make(chan struct{})
	var background sync.WaitGroup
	emit := out.emit

	go func() {
		defer close(out.writerDone)
		for msg := range out.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("session %s: ws write error: %v", session.ID(), err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case st, ok := <-updates:
				if !ok {
					return
				}
				emit(outboundMessage[any]{Type: "state", Payload: newStateView(st)})
			case <-out.closed:
				return
			}
		}
	}()

	runBackground := func(fn func()) {
		background.Add(1)
		go func() {
			defer background.Done()
			fn()
		}()
	}

	runBackground(func() { session.Load(ctx) })

	var countdownCancel context.CancelFunc
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(errorMessage("invalid select payload"))
				continue
			}
			if err := session.SelectAnswer(payload.QuestionID, payload.Option); err != nil {
				emit(errorMessage(err.Error()))
			}
		case "submit":
			result, err := session.Submit()
			if err != nil {
				emit(errorMessage(err.Error()))
				continue
			}
			payload := resultPayload{SubmitResult: result}
			if result.Completed {
				payload.Outcome = view.OutcomeFor(*result.Summary)
			}
			emit(outboundMessage[any]{Type: "result", Payload: payload})
		case "restart":
			runBackground(func() { session.Restart(ctx) })
		case "start":
			if countdownCancel != nil {
				countdownCancel()
			}
			var countdownCtx context.Context
			countdownCtx, countdownCancel = context.WithCancel(ctx)
			runBackground(func() {
				err := view.Countdown(countdownCtx, h.opts.Countdown, h.opts.Tick, func(n int) {
					emit(outboundMessage[any]{Type: "countdown", Payload: countdownPayload{Value: n}})
				})
				if err == nil {
					emit(outboundMessage[any]{Type: "countdown", Payload: countdownPayload{Value: 0}})
				}
			})
		default:
			emit(errorMessage("unsupported message type"))
		}
	}

	if countdownCancel != nil {
		countdownCancel()
	}
	close(out.closed)
	cancel()
	background.Wait()
	<-updatesDone
	close(out.send)
	<-out.writerDone
	log.Printf("session %s: disconnected", session.ID())
}

// outbox queues messages for the connection's single writer goroutine.
type outbox struct {
	send       chan outboundMessage[any]
	closed     chan struct{}
	writerDone chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{
		send:       make(chan outboundMessage[any], size),
		closed:     make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// emit never blocks once the connection is closing or the writer has stopped.
func (o *outbox) emit(msg outboundMessage[any]) {
	select {
	case o.send <- msg:
	case <-o.closed:
	case <-o.writerDone:
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

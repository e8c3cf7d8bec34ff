package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quizpal-service/internal/auth"
	"quizpal-service/internal/domain"
	"github.com/gorilla/websocket"
)

var playUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type wsAnswerPayload struct {
	Selected string `json:"selected"`
}

type wsQuestionPayload struct {
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Score    int          `json:"score"`
	Question questionView `json:"question"`
}

type wsFinishedPayload struct {
	domain.SessionResult
	Attempt domain.AttemptResult `json:"attempt"`
}

// ServePlay drives one full quiz playthrough over a websocket. The client
// authenticates with a token query parameter, receives questions one at a
// time, and steers with "answer" and "advance" messages. A dropped connection
// mid-play abandons the session with nothing persisted; the score is only
// written on the final advance, via the reconciliation service.
func (a *API) ServePlay(w http.ResponseWriter, r *http.Request) {
	claims, err := a.playClaims(r)
	if err != nil {
		http.Error(w, "invalid auth token", http.StatusUnauthorized)
		return
	}
	categoryID := r.URL.Query().Get("categoryId")
	difficulty := r.URL.Query().Get("difficulty")
	if categoryID == "" {
		http.Error(w, "missing categoryId", http.StatusBadRequest)
		return
	}

	conn, err := playUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := a.sessions.Start(r.Context(), claims.Subject, categoryID, difficulty)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "aborted", Payload: errorPayload{Error: playErrorMessage(err)}})
		return
	}
	defer a.sessions.Abandon(session.ID())

	// The protocol is strictly request/response per connection, so writes
	// happen only from this goroutine and need no writer pump.
	if !a.sendCurrent(conn, session) {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload wsAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Selected == "" {
				_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Error: "select an option first"}})
				continue
			}
			correct, err := session.SubmitAnswer(payload.Selected)
			if err != nil {
				_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Error: playErrorMessage(err)}})
				continue
			}
			_ = conn.WriteJSON(outboundMessage{Type: "answerResult", Payload: answerResult{Correct: correct, Score: session.Score()}})
		case "advance":
			if finished := session.Advance(); !finished {
				if !a.sendCurrent(conn, session) {
					return
				}
				continue
			}
			result, _ := session.Result()
			attempt, err := a.scores.RecordAttempt(r.Context(), claims.UserRef(), result.CategoryID, result.Difficulty, result.Score)
			if err != nil {
				_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Error: "could not save score"}})
				return
			}
			_ = conn.WriteJSON(outboundMessage{Type: "finished", Payload: wsFinishedPayload{SessionResult: result, Attempt: attempt}})
			return
		case "quit":
			return
		default:
			_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Error: "unsupported message type"}})
		}
	}
}

func (a *API) playClaims(r *http.Request) (*auth.Claims, error) {
	return a.authMW.ParseRequestToken(r)
}

func (a *API) sendCurrent(conn *websocket.Conn, session sessionReader) bool {
	q, err := session.Current()
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Error: playErrorMessage(err)}})
		return false
	}
	index, total := session.Progress()
	err = conn.WriteJSON(outboundMessage{Type: "question", Payload: wsQuestionPayload{
		Index:    index,
		Total:    total,
		Score:    session.Score(),
		Question: viewOf(q),
	}})
	return err == nil
}

type sessionReader interface {
	Current() (domain.Question, error)
	Progress() (int, int)
	Score() int
}

func playErrorMessage(err error) string {
	switch err {
	case domain.ErrNoQuestions:
		return "no questions for this category and difficulty"
	case domain.ErrAnswerLocked:
		return "this question was already answered"
	case domain.ErrSessionFinished:
		return "quiz session already finished"
	default:
		return "could not load questions"
	}
}

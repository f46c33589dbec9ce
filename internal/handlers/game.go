package handlers

import (
	"net/http"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/bingo/internal/config"
	"github.com/vancomm/bingo/internal/game"
)

type GameHandler struct {
	logger  logrus.FieldLogger
	engine  *game.Engine
	ws      *config.WebSocket
	decoder *schema.Decoder
}

func NewGameHandler(
	logger logrus.FieldLogger,
	engine *game.Engine,
	ws *config.WebSocket,
) *GameHandler {
	return &GameHandler{
		logger:  logger.WithField("component", "handlers"),
		engine:  engine,
		ws:      ws,
		decoder: newDecoder(),
	}
}

func (g GameHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := g.decoder.Decode(dst, r.URL.Query()); err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return false
	}
	if v, ok := dst.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			sendError(w, g.logger, http.StatusBadRequest, err)
			return false
		}
	}
	return true
}

func (g GameHandler) cardID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !g.engine.HasCard(id) {
		sendError(w, g.logger, http.StatusNotFound, ErrUnknownCard)
		return "", false
	}
	return id, true
}

func (g GameHandler) respond(w http.ResponseWriter, applied bool, number *int) {
	sendJSONOrLog(w, g.logger, ActionDTO{
		Applied: applied,
		Number:  number,
		State:   g.engine.State(),
	})
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	sendJSONOrLog(w, g.logger, g.engine.State())
}

func (g GameHandler) Draw(w http.ResponseWriter, r *http.Request) {
	n, ok := g.engine.DrawNumber(r.Context())
	if !ok {
		g.respond(w, false, nil)
		return
	}
	g.respond(w, true, &n)
}

func (g GameHandler) Reset(w http.ResponseWriter, r *http.Request) {
	g.engine.ResetGame(r.Context())
	g.respond(w, true, nil)
}

func (g GameHandler) SetMaxNumber(w http.ResponseWriter, r *http.Request) {
	var dto MaxNumberDTO
	if !g.decode(w, r, &dto) {
		return
	}
	g.engine.SetMaxNumber(dto.MaxNumber)
	g.respond(w, true, nil)
}

func (g GameHandler) SetCardCount(w http.ResponseWriter, r *http.Request) {
	var dto CardCountDTO
	if !g.decode(w, r, &dto) {
		return
	}
	g.engine.SetCardCount(dto.Count)
	g.respond(w, true, nil)
}

func (g GameHandler) ToggleMark(w http.ResponseWriter, r *http.Request) {
	id, ok := g.cardID(w, r)
	if !ok {
		return
	}
	var dto CellDTO
	if !g.decode(w, r, &dto) {
		return
	}
	applied := g.engine.ToggleCardMark(id, dto.Row, dto.Col)
	g.respond(w, applied, nil)
}

func (g GameHandler) ToggleExpanded(w http.ResponseWriter, r *http.Request) {
	id, ok := g.cardID(w, r)
	if !ok {
		return
	}
	applied := g.engine.ToggleCardExpanded(id)
	g.respond(w, applied, nil)
}

func (g GameHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := g.cardID(w, r)
	if !ok {
		return
	}
	var dto PositionDTO
	if !g.decode(w, r, &dto) {
		return
	}
	applied := g.engine.UpdateCardPosition(id, dto.Position())
	g.respond(w, applied, nil)
}

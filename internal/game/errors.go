package game

import "errors"

// Request-scoped rejections. None of them changes room state.
var (
	ErrValidation     = errors.New("invalid request")
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrAlreadyStarted = errors.New("game already started")
	ErrAlreadySeated  = errors.New("player already seated")
	ErrNotHost        = errors.New("only the host can start the game")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameNotStarted = errors.New("game not started")
	ErrTileNotInHand  = errors.New("tile not in hand")
	ErrInvalidMove    = errors.New("invalid move")
	ErrPoolEmpty      = errors.New("no tiles left to draw")
)

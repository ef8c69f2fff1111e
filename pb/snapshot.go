package pb

import (
	"errors"
	"fmt"
	"strings"
	"tetrisengine/tetris"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	emptyCell  = '.'
	pieceCell  = '#'
	sessionKey = "session_id"
	actionKey  = "action"
)

// NewCommand builds the request of SessionService.Command.
func NewCommand(id string, a tetris.Action) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		sessionKey: structpb.NewStringValue(id),
		actionKey:  structpb.NewStringValue(string(a)),
	}}
}

// ParseCommand returns the session id and the action of a Command request.
func ParseCommand(s *structpb.Struct) (string, tetris.Action, error) {
	id := s.GetFields()[sessionKey].GetStringValue()
	if id == "" {
		return "", "", errors.New("missing session_id")
	}
	a, err := tetris.ParseAction(s.GetFields()[actionKey].GetStringValue())
	if err != nil {
		return "", "", err
	}
	return id, a, nil
}

// FromTetris encodes a snapshot.
func FromTetris(t *tetris.Tetris) *structpb.Struct {
	rows := make([]*structpb.Value, len(t.Stack))
	for y, r := range t.Stack {
		var sb strings.Builder
		for _, c := range r {
			if c == "" {
				sb.WriteByte(emptyCell)
				continue
			}
			sb.WriteString(string(c))
		}
		rows[y] = structpb.NewStringValue(sb.String())
	}

	piece := structpb.NewNullValue()
	if t.Tetromino != nil {
		grid := make([]*structpb.Value, len(t.Tetromino.Grid))
		for y, r := range t.Tetromino.Grid {
			var sb strings.Builder
			for _, c := range r {
				if c {
					sb.WriteByte(pieceCell)
				} else {
					sb.WriteByte(emptyCell)
				}
			}
			grid[y] = structpb.NewStringValue(sb.String())
		}
		piece = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"shape": structpb.NewStringValue(string(t.Tetromino.Shape)),
			"x":     structpb.NewNumberValue(float64(t.X)),
			"y":     structpb.NewNumberValue(float64(t.Y)),
			"grid":  structpb.NewListValue(&structpb.ListValue{Values: grid}),
		}})
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"score":       structpb.NewNumberValue(float64(t.Score)),
		"level":       structpb.NewNumberValue(float64(t.Level)),
		"lines":       structpb.NewNumberValue(float64(t.LinesClear)),
		"interval_ms": structpb.NewNumberValue(float64(t.Interval.Milliseconds())),
		"paused":      structpb.NewBoolValue(t.Paused),
		"game_over":   structpb.NewBoolValue(t.GameOver),
		"board":       structpb.NewListValue(&structpb.ListValue{Values: rows}),
		"piece":       piece,
	}}
}

// ToTetris decodes a snapshot produced by FromTetris.
func ToTetris(s *structpb.Struct) (*tetris.Tetris, error) {
	f := s.GetFields()
	rows := f["board"].GetListValue().GetValues()
	if len(rows) != tetris.Height {
		return nil, fmt.Errorf("board has %d rows, want %d", len(rows), tetris.Height)
	}
	stack := make(tetris.Board, tetris.Height)
	for y, r := range rows {
		line := r.GetStringValue()
		if len(line) != tetris.Width {
			return nil, fmt.Errorf("board row %d has %d cells, want %d", y, len(line), tetris.Width)
		}
		stack[y] = make([]tetris.Shape, tetris.Width)
		for x := range line {
			if line[x] != emptyCell {
				stack[y][x] = tetris.Shape(line[x : x+1])
			}
		}
	}

	t := &tetris.Tetris{
		Stack:      stack,
		Score:      int(f["score"].GetNumberValue()),
		Level:      int(f["level"].GetNumberValue()),
		LinesClear: int(f["lines"].GetNumberValue()),
		Interval:   time.Duration(f["interval_ms"].GetNumberValue()) * time.Millisecond,
		Paused:     f["paused"].GetBoolValue(),
		GameOver:   f["game_over"].GetBoolValue(),
	}

	p := f["piece"].GetStructValue()
	if p == nil {
		return t, nil
	}
	pf := p.GetFields()
	lines := pf["grid"].GetListValue().GetValues()
	if len(lines) == 0 {
		return nil, errors.New("piece has an empty grid")
	}
	grid := make(tetris.Grid, len(lines))
	for y, l := range lines {
		line := l.GetStringValue()
		grid[y] = make([]bool, len(line))
		for x := range line {
			grid[y][x] = line[x] == pieceCell
		}
	}
	t.Tetromino = &tetris.Tetromino{Grid: grid, Shape: tetris.Shape(pf["shape"].GetStringValue())}
	t.X = int(pf["x"].GetNumberValue())
	t.Y = int(pf["y"].GetNumberValue())
	return t, nil
}

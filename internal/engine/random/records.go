package random

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Point on the board.
type Point struct {
	Row, Col int8
}

// Game is the record of one self-play game.
type Game struct {
	BoardSize int
	Moves     []Point

	// Winner is +1 if the first player (black) won, -1 if the second player (white) won.
	Winner int8

	// Resigned is set if the game ended by resignation.
	Resigned bool
}

// Example is one board position to learn from.
type Example struct {
	BoardSize  int
	MoveNumber int

	// Board from the point of view of the player to move: +1 for its stones, -1 for the opponent's.
	Board []int8

	// Move played, as index row*BoardSize+col.
	Move int

	// Value is +1 if the player to move won the game, -1 otherwise.
	Value float32
}

// Examples extracts one example per move of the game.
func (g *Game) Examples() []Example {
	n := g.BoardSize
	board := make([]int8, n*n)
	examples := make([]Example, 0, len(g.Moves))
	color := int8(1)
	for moveIdx, move := range g.Moves {
		view := make([]int8, len(board))
		for ii, stone := range board {
			view[ii] = stone * color
		}
		idx := int(move.Row)*n + int(move.Col)
		examples = append(examples, Example{
			BoardSize:  n,
			MoveNumber: moveIdx,
			Board:      view,
			Move:       idx,
			Value:      float32(g.Winner * color),
		})
		board[idx] = color
		color = -color
	}
	return examples
}

// SGF returns a minimal SGF transcript of the game.
func (g *Game) SGF() string {
	var sb strings.Builder
	result := "B+"
	if g.Winner < 0 {
		result = "W+"
	}
	if g.Resigned {
		result += "R"
	}
	fmt.Fprintf(&sb, "(;GM[1]FF[4]SZ[%d]RE[%s]", g.BoardSize, result)
	for ii, move := range g.Moves {
		player := 'B'
		if ii%2 == 1 {
			player = 'W'
		}
		fmt.Fprintf(&sb, ";%c[%c%c]", player, 'a'+rune(move.Col), 'a'+rune(move.Row))
	}
	sb.WriteString(")\n")
	return sb.String()
}

// encode v with gob and compress it with zstd.
func (e *Engine) encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errors.Wrapf(err, "failed to encode %T", v)
	}
	return e.encoder.EncodeAll(buf.Bytes(), nil), nil
}

// decode data compressed with zstd and encoded with gob into v.
func (e *Engine) decode(data []byte, v any) error {
	raw, err := e.decoder.DecodeAll(data, nil)
	if err != nil {
		return errors.Wrap(err, "failed to decompress")
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return errors.Wrapf(err, "failed to decode %T", v)
	}
	return nil
}

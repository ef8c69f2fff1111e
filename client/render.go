package client

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"tetrisengine/tetris"
	"text/template"
)

const (
	// ASCII colors.
	Cyan    = "36"
	Blue    = "34"
	Orange  = "38;5;214"
	Yellow  = "33"
	Green   = "32"
	Red     = "31"
	Magenta = "35"

	resetPos = "\033[H" // Reset cursor position to 0,0
)

//go:embed "layout.tmpl"
var layout string

var colorMap = map[tetris.Shape]string{
	tetris.I: Cyan,
	tetris.J: Blue,
	tetris.L: Orange,
	tetris.O: Yellow,
	tetris.S: Green,
	tetris.Z: Red,
	tetris.T: Magenta,
}

var help = []string{
	"(a/d) move  (w) rotate",
	"(s) down  (space) drop",
	"(p) pause  (r) reset",
	"(esc) quit",
}

type templateData struct {
	Local *tetris.Tetris
}

type render struct {
	writer   io.Writer
	logger   *slog.Logger
	template *template.Template
}

func newRender(l *slog.Logger) (*render, error) {
	tmp, err := loadTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &render{
		writer:   os.Stdout,
		logger:   l,
		template: tmp,
	}, nil
}

func (r *render) local(t *tetris.Tetris) {
	fmt.Fprint(r.writer, resetPos)
	if err := r.template.Execute(r.writer, &templateData{Local: t}); err != nil {
		r.logger.Error("unable to execute template in local()", slog.String("error", err.Error()))
	}
}

func loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"rows": rows,
		"side": side,
	}

	// we use the console raw so new lines don't automatically transform into carriage return
	// to fix that we add a carriage return to every new line in the layout.
	l := strings.ReplaceAll(layout, "\n", "\r\n")
	l = strings.ReplaceAll(l, "Terminal Tetris", "\033[1mTerminal Tetris\033[0m")
	return template.New("layout").Funcs(funcMap).Parse(l)
}

func cell(s tetris.Shape) string {
	c, ok := colorMap[s]
	if !ok {
		return "  "
	}
	return fmt.Sprintf("\x1b[7m\x1b[%sm[]\x1b[0m", c)
}

// rows renders the stack with the active tetromino on top, one string per row.
func rows(t *tetris.Tetris) []string {
	grid := [tetris.Height][tetris.Width]tetris.Shape{}
	if t != nil {
		for y := range t.Stack {
			copy(grid[y][:], t.Stack[y])
		}
		if t.Tetromino != nil {
			for iy, r := range t.Tetromino.Grid {
				for ix, c := range r {
					y, x := t.Y+iy, t.X+ix
					// cells above the board aren't visible.
					if c && y >= 0 && y < tetris.Height && x >= 0 && x < tetris.Width {
						grid[y][x] = t.Tetromino.Shape
					}
				}
			}
		}
	}

	rendered := make([]string, tetris.Height)
	for y := range grid {
		var sb strings.Builder
		for _, s := range grid[y] {
			sb.WriteString(cell(s))
		}
		rendered[y] = sb.String()
	}
	return rendered
}

// side returns the text shown to the right of row i.
func side(i int, t *tetris.Tetris) string {
	if t == nil {
		return ""
	}
	switch {
	case i == 1:
		return fmt.Sprintf("  Score: %d", t.Score)
	case i == 2:
		return fmt.Sprintf("  Level: %d", t.Level)
	case i == 3:
		return fmt.Sprintf("  Lines: %d", t.LinesClear)
	case i == 5 && t.GameOver:
		return "  GAME OVER"
	case i == 5 && t.Paused:
		return "  PAUSED"
	case i >= 8 && i-8 < len(help):
		return "  " + help[i-8]
	}
	return ""
}

// Package app wires the editor together: configuration, the document
// schema, the plugin stack, script loading, and the terminal run loop.
package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/command"
	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/decoration"
	"github.com/dshills/inkwell/internal/doc"
	"github.com/dshills/inkwell/internal/history"
	"github.com/dshills/inkwell/internal/scripting"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/view"
)

// highlightScript ships with the editor: it marks TODO notes so writers
// can spot unfinished passages.
const highlightScript = `
local function highlight(blocks)
  local decos = {}
  for _, b in ipairs(blocks) do
    local s, e = string.find(b.text, "TODO", 1, true)
    while s do
      decos[#decos+1] = {from = b.start + s - 1, to = b.start + e, attrs = {class = "todo"}}
      s, e = string.find(b.text, "TODO", e + 1, true)
    end
  end
  return decos
end
function init(blocks) return highlight(blocks) end
function apply(tx) return highlight(tx.blocks) end
`

// App owns the running editor.
type App struct {
	cfg     config.Config
	logger  *log.Logger
	logFile *os.File

	state   *state.EditorState
	views   *view.Registry
	host    *scripting.Host
	screen  tcell.Screen
	watcher *config.Watcher
	ownsTTY bool
}

// New builds the application from options: configuration, logging, the
// plugin stack, and the initial editor state.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}
	if err := a.initLogging(); err != nil {
		return nil, err
	}

	a.host = scripting.NewHost(a.logger)
	plugins := []*state.Plugin{
		history.New(
			history.WithDepth(cfg.History.Depth),
			history.WithNewGroupDelay(cfg.History.NewGroupDelay()),
		),
	}
	builtin, err := a.host.LoadSource("todo-highlight.lua", highlightScript)
	if err != nil {
		a.host.Close()
		return nil, err
	}
	plugins = append(plugins, builtin)
	if cfg.Scripting.Enabled {
		loaded, err := a.host.LoadDir(cfg.Scripting.Dir)
		if err != nil {
			a.logger.Printf("app: loading scripts: %v", err)
		}
		plugins = append(plugins, loaded...)
	}

	schema, err := StorySchema()
	if err != nil {
		a.host.Close()
		return nil, err
	}
	initial, err := starterDoc(schema)
	if err != nil {
		a.host.Close()
		return nil, err
	}
	sel := state.TextSelection(2, 2)
	st, err := state.New(state.Config{Schema: schema, Doc: initial, Selection: &sel, Plugins: plugins})
	if err != nil {
		a.host.Close()
		return nil, err
	}
	a.state = st

	a.views = view.NewRegistry()
	a.views.Register("mention", func(n *doc.Node) string {
		return fmt.Sprintf("@%v", n.Attrs["ref"])
	})

	a.screen = opts.Screen
	if a.screen == nil {
		a.screen, err = tcell.NewScreen()
		if err != nil {
			a.host.Close()
			return nil, fmt.Errorf("app: creating screen: %w", err)
		}
		a.ownsTTY = true
	}
	if err := a.screen.Init(); err != nil {
		a.host.Close()
		return nil, fmt.Errorf("app: initializing screen: %w", err)
	}

	if opts.ConfigPath != "" {
		a.watcher, err = config.NewWatcher(opts.ConfigPath, 200*time.Millisecond, a.postReload, a.logger)
		if err != nil {
			a.logger.Printf("app: config watching disabled: %v", err)
		}
	}
	return a, nil
}

func (a *App) initLogging() error {
	if a.cfg.Logging.File == "" {
		// The terminal owns stderr while the UI runs.
		a.logger = log.New(io.Discard, "", 0)
		return nil
	}
	f, err := os.OpenFile(a.cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("app: opening log file: %w", err)
	}
	a.logFile = f
	a.logger = log.New(f, "", log.LstdFlags)
	return nil
}

func starterDoc(schema *doc.Schema) (*doc.Node, error) {
	title, err := schema.Text("Untitled Story")
	if err != nil {
		return nil, err
	}
	heading, err := schema.Node("heading", map[string]any{"level": 1}, title)
	if err != nil {
		return nil, err
	}
	body, err := schema.Text("TODO start writing")
	if err != nil {
		return nil, err
	}
	para, err := schema.Node("paragraph", nil, body)
	if err != nil {
		return nil, err
	}
	return schema.Node("doc", nil, heading, para)
}

// State returns the current editor state.
func (a *App) State() *state.EditorState { return a.state }

// postReload hands a freshly loaded config to the run loop.
func (a *App) postReload(cfg config.Config) {
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(cfg))
}

// Shutdown releases the terminal and every loaded script. Safe to call
// more than once.
func (a *App) Shutdown() {
	if a.watcher != nil {
		_ = a.watcher.Close()
		a.watcher = nil
	}
	if a.screen != nil {
		a.screen.Fini()
		a.screen = nil
	}
	if a.host != nil {
		a.host.Close()
		a.host = nil
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// Run drives the event loop until the user quits or the screen closes.
func (a *App) Run() error {
	for {
		a.draw()
		switch ev := a.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if err := a.handleKey(ev); err != nil {
				return err
			}
		case *tcell.EventResize:
			a.screen.Sync()
		case *tcell.EventInterrupt:
			if cfg, ok := ev.Data().(config.Config); ok {
				a.cfg = cfg
			}
		case nil:
			return nil
		}
	}
}

func (a *App) dispatch(tr *state.Transaction) {
	next, err := a.state.Apply(tr)
	if err != nil {
		a.logger.Printf("app: apply: %v", err)
		return
	}
	a.state = next
}

func (a *App) handleKey(ev *tcell.EventKey) error {
	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyEscape:
		return ErrQuit
	case tcell.KeyCtrlZ:
		history.Undo(a.state, a.dispatch)
	case tcell.KeyCtrlY:
		history.Redo(a.state, a.dispatch)
	case tcell.KeyEnter:
		command.SplitBlock(a.state, a.dispatch)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.deleteBackward()
	case tcell.KeyLeft:
		a.moveCursor(-1)
	case tcell.KeyRight:
		a.moveCursor(1)
	case tcell.KeyRune:
		command.InsertText(string(ev.Rune()))(a.state, a.dispatch)
	}
	return nil
}

// deleteBackward removes the selection, or the grapheme cluster before the
// cursor, or joins with the previous block at a block start.
func (a *App) deleteBackward() {
	sel := a.state.Selection
	if !sel.Empty() {
		command.DeleteSelection(a.state, a.dispatch)
		return
	}
	r, err := a.state.Doc.Resolve(sel.From())
	if err != nil {
		return
	}
	off := r.ParentOffset()
	if off == 0 {
		command.JoinBackward(a.state, a.dispatch)
		return
	}
	text := r.Parent().TextContent()
	from := sel.From() - (off - view.PrevBoundary(text, off))
	tr := a.state.Tr()
	if err := tr.Delete(from, sel.From()); err != nil {
		a.logger.Printf("app: delete: %v", err)
		return
	}
	a.dispatch(tr)
}

// moveCursor moves the cursor one grapheme cluster, hopping across block
// boundaries at block edges.
func (a *App) moveCursor(dir int) {
	pos := a.state.Selection.Head
	r, err := a.state.Doc.Resolve(pos)
	if err != nil {
		return
	}
	text := r.Parent().TextContent()
	off := r.ParentOffset()

	var target int
	if dir < 0 {
		if off == 0 {
			target = pos - 2
		} else {
			target = pos - (off - view.PrevBoundary(text, off))
		}
	} else {
		if off == r.Parent().Content.Size {
			target = pos + 2
		} else {
			target = pos + (view.NextBoundary(text, off) - off)
		}
	}

	tr := a.state.Tr()
	if err := tr.SetSelection(state.TextSelection(target, target)); err != nil {
		return
	}
	a.dispatch(tr)
}

func (a *App) draw() {
	a.screen.Clear()
	pass := decoration.NewRenderPass(a.state.Decorations(), a.logger)

	d := a.state.Doc
	pos, row := 0, 0
	for i := 0; i < d.ChildCount(); i++ {
		block := d.Child(i)
		x := 0
		for _, sp := range view.RenderBlock(block, pos+1, pass, a.views) {
			x = a.drawSpan(x, row, sp, block)
		}
		pos += block.NodeSize()
		row++
	}
	pass.Finish()

	a.drawStatus(row + 1)
	a.placeCursor()
	a.screen.Show()
}

func (a *App) drawSpan(x, y int, sp view.Span, block *doc.Node) int {
	if sp.IsWidget() {
		a.screen.SetContent(x, y, '◆', nil, tcell.StyleDefault.Foreground(tcell.ColorFuchsia))
		return x + 1
	}
	st := tcell.StyleDefault
	if block.Type.Name == "heading" {
		st = st.Bold(true).Underline(true)
	}
	for _, m := range sp.Marks {
		switch m.Type.Name {
		case "strong":
			st = st.Bold(true)
		case "em":
			st = st.Italic(true)
		case "translation":
			st = st.Foreground(tcell.ColorAqua)
		}
	}
	if sp.Attrs["class"] == "todo" {
		st = st.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack)
	}
	for _, r := range sp.Text {
		a.screen.SetContent(x, y, r, nil, st)
		x += view.Width(string(r))
	}
	return x
}

func (a *App) drawStatus(y int) {
	sel := a.state.Selection
	status := fmt.Sprintf(" pos %d  undo %d  redo %d  ^Z undo  ^Y redo  ^Q quit",
		sel.Head, history.UndoDepth(a.state), history.RedoDepth(a.state))
	st := tcell.StyleDefault.Reverse(true)
	w, _ := a.screen.Size()
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(status) {
			r = rune(status[x])
		}
		a.screen.SetContent(x, y, r, nil, st)
	}
}

func (a *App) placeCursor() {
	r, err := a.state.Doc.Resolve(a.state.Selection.Head)
	if err != nil || r.Depth() == 0 {
		a.screen.HideCursor()
		return
	}
	row := r.Index(0)
	text := r.Parent().TextContent()
	off := r.ParentOffset()
	if off > len(text) {
		off = len(text)
	}
	a.screen.ShowCursor(view.Width(text[:off]), row)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-shellwords"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
)

var chatCmd = &cobra.Command{
	Use:     "chat [room_id]",
	Aliases: []string{"vim"},
	Short:   "Opens a room in a full-screen chat interface",
	Long: `Opens a room with live messages, typing indicators and the list of
members online. Type at the bottom and press Enter to send.

Commands inside the chat:
  /upload PATH [CAPTION]  send a file (multimedia rooms)
  /rm MESSAGE_ID          delete a message
  /leave                  give up membership and close
  /quit                   close (Ctrl+C does the same)`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: roomCompletionFunc,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := roomArg(args, 0)
		if err != nil {
			return err
		}
		if err := runChatUI(vc, roomID); err != nil {
			return fmt.Errorf("chat UI error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

type chatUI struct {
	app      *tview.Application
	header   *tview.TextView
	messages *tview.TextView
	status   *tview.TextView
	input    *tview.InputField

	session *usecase.Session
	typing  *typingFeed
	roomID  int64
	leave   atomic.Bool
}

// typingFeed runs typing notifications on one goroutine so a stop always
// follows the keystrokes queued before it.
type typingFeed struct {
	notifier *usecase.TypingNotifier
	ops      chan func()
	quit     chan struct{}
	once     sync.Once
}

func newTypingFeed(n *usecase.TypingNotifier) *typingFeed {
	f := &typingFeed{notifier: n, ops: make(chan func(), 16), quit: make(chan struct{})}
	go f.run()
	return f
}

func (f *typingFeed) run() {
	for {
		select {
		case op := <-f.ops:
			op()
		case <-f.quit:
			return
		}
	}
}

// Keystroke never blocks the caller. With a full backlog the key is
// dropped, since a pending keystroke has the same effect.
func (f *typingFeed) Keystroke() {
	select {
	case f.ops <- func() { f.notifier.Keystroke(context.Background()) }:
	default:
	}
}

// Stop waits until every queued keystroke has run and the typing state
// has ended.
func (f *typingFeed) Stop(ctx context.Context) {
	done := make(chan struct{})
	select {
	case f.ops <- func() { f.notifier.Stop(ctx); close(done) }:
	case <-f.quit:
		return
	case <-ctx.Done():
		return
	}
	select {
	case <-done:
	case <-f.quit:
	case <-ctx.Done():
	}
}

func (f *typingFeed) Close() {
	f.once.Do(func() { close(f.quit) })
}

func runChatUI(a *application, roomID int64) error {
	cred, err := a.uc.WhoAmI(context.Background())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopMetrics := a.serveMetrics()
	defer stopMetrics()

	s := a.newSession(ctx)
	if err := s.Enter(ctx, roomID); err != nil {
		_ = s.Close(context.Background())
		return err
	}

	ui := &chatUI{
		app:     tview.NewApplication(),
		session: s,
		typing:  newTypingFeed(usecase.NewTypingNotifier(s, a.cfg.TypingQuiet)),
		roomID:  roomID,
	}
	ui.build(cred.DisplayName)

	watchCtx, stopWatch := context.WithCancel(ctx)
	go ui.watch(watchCtx)

	runErr := ui.app.Run()
	stopWatch()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	ui.typing.Stop(closeCtx)
	ui.typing.Close()
	if err := s.Close(closeCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error leaving room: %v\n", err)
	}
	if ui.leave.Load() {
		if err := a.uc.LeaveRoom(closeCtx, roomID); err != nil {
			fmt.Fprintf(os.Stderr, "Error giving up membership: %v\n", err)
		} else if roomID == cfg.CurrentRoom {
			_ = setCurrentRoom(0)
		}
	}
	return runErr
}

func (ui *chatUI) build(userName string) {
	ui.header = tview.NewTextView().SetDynamicColors(true)
	ui.messages = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()
	ui.status = tview.NewTextView().SetDynamicColors(true)
	ui.input = tview.NewInputField().
		SetLabel(tview.Escape(userName) + " ❯❯ ").
		SetFieldWidth(0)

	ui.input.SetChangedFunc(func(text string) {
		if text != "" && !strings.HasPrefix(text, "/") {
			ui.typing.Keystroke()
		}
	})
	ui.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(ui.input.GetText())
		ui.input.SetText("")
		if text == "" {
			return
		}
		go ui.submit(text)
	})

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.header, 1, 0, false).
		AddItem(ui.messages, 0, 1, false).
		AddItem(ui.status, 1, 0, false).
		AddItem(ui.input, 1, 0, true)

	ui.app.SetRoot(flex, true).SetFocus(ui.input)
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			ui.app.Stop()
			return nil
		}
		return event
	})
	ui.render(ui.session.View())
}

// watch redraws on every view change and shows notices in the status line.
func (ui *chatUI) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-ui.session.Updates():
			ui.app.QueueUpdateDraw(func() { ui.render(v) })
		case n := <-ui.session.Notices():
			ui.app.QueueUpdateDraw(func() { ui.showNotice(n) })
		}
	}
}

func (ui *chatUI) render(v usecase.View) {
	name := v.Room.Name
	if name == "" {
		name = fmt.Sprintf("room %d", ui.roomID)
	}
	stateColor := "yellow"
	if v.State == domain.StateJoined {
		stateColor = "green"
	}
	ui.header.SetText(fmt.Sprintf("[::b]%s[::-]  [%s]%s[-]  %d/%d  online: %s",
		tview.Escape(name), stateColor, v.State, v.Room.CurrentUsers, v.Room.MaxUsers,
		tview.Escape(strings.Join(v.Presence, ", "))))

	var b strings.Builder
	if !v.Loaded {
		b.WriteString("[gray]loading...[-]\n")
	}
	for _, m := range v.Messages {
		b.WriteString(formatMessage(m, true))
		b.WriteByte('\n')
	}
	ui.messages.SetText(b.String())
	ui.messages.ScrollToEnd()

	if v.TypingText != "" {
		ui.status.SetText("[gray::i]" + tview.Escape(v.TypingText) + "[-:-:-]")
	} else {
		ui.status.SetText("")
	}
}

func (ui *chatUI) showNotice(n usecase.Notice) {
	color := "white"
	switch n.Level {
	case usecase.NoticeWarn:
		color = "yellow"
	case usecase.NoticeError:
		color = "red"
	}
	ui.status.SetText(fmt.Sprintf("[%s]%s[-]", color, tview.Escape(formatNotice(n))))
}

func (ui *chatUI) submit(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if !strings.HasPrefix(text, "/") {
		ui.typing.Stop(ctx)
		// Failures surface as notices.
		_ = ui.session.SendMessage(ctx, text)
		return
	}

	args, err := shellwords.Parse(text)
	if err != nil || len(args) == 0 {
		ui.flash("invalid command")
		return
	}
	switch args[0] {
	case "/quit", "/q":
		ui.app.Stop()
	case "/leave":
		ui.leave.Store(true)
		ui.app.Stop()
	case "/rm":
		if len(args) != 2 {
			ui.flash("usage: /rm MESSAGE_ID")
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			ui.flash("invalid message id")
			return
		}
		_ = ui.session.DeleteMessage(ctx, domain.MessageID(id))
	case "/upload":
		if len(args) < 2 {
			ui.flash("usage: /upload PATH [CAPTION]")
			return
		}
		ui.upload(ctx, args[1], strings.Join(args[2:], " "))
	default:
		ui.flash("unknown command " + args[0])
	}
}

func (ui *chatUI) upload(ctx context.Context, path, caption string) {
	f, err := os.Open(path)
	if err != nil {
		ui.flash(err.Error())
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		ui.flash(err.Error())
		return
	}
	_ = ui.session.SendFile(ctx, usecase.FileUpload{
		Name:    filepath.Base(path),
		Size:    info.Size(),
		Caption: caption,
		Content: f,
	})
}

func (ui *chatUI) flash(msg string) {
	ui.app.QueueUpdateDraw(func() {
		ui.status.SetText("[red]" + tview.Escape(msg) + "[-]")
	})
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Dias221467/teachmate/internal/app"
	"github.com/Dias221467/teachmate/internal/config"
	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/viewmodel"
	"github.com/Dias221467/teachmate/pkg/logger"
)

const usage = `Commands:
  login <email> <password>          register <username> <email> <password>
  logout                            me
  threads | strangers | groups      open <threadId>
  show                              send <text>
  dm <userId> <text>                retry <clientId>
  search <query>                    add <userId>
  friends                           requests
  accept <requestId>                reject <requestId>
  notifications                     read <id> | read all
  vote <pollId> <optionId>          unvote <pollId> <optionId>
  schedules                         join <scheduleId> | leave <scheduleId>
  lang <code>                       status
  help                              quit`

type cli struct {
	app *app.App
	out io.Writer
}

func main() {
	cfg := config.LoadConfig()
	logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger.Component("teachmate"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Log.WithError(err).Warn("Shutdown incomplete")
		}
	}()

	c := &cli{app: a, out: os.Stdout}
	a.Store.OnToast(func(t store.Toast) {
		fmt.Fprintf(c.out, "[%s] %s\n", t.Level, t.Message)
	})

	switch err := a.Start(ctx); {
	case errors.Is(err, app.ErrLoginRequired):
		fmt.Fprintln(c.out, "Not signed in. Use: login <email> <password>")
	case err != nil:
		fmt.Fprintln(os.Stderr, "could not restore session:", err)
	default:
		fmt.Fprintf(c.out, "Welcome back, %s\n", a.Store.State().User.Username)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := c.exec(ctx, line); quit {
				return
			}
		}
	}
}

func (c *cli) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(c.out, usage)
		return false
	case "login":
		if len(args) != 2 {
			return c.usage("login <email> <password>")
		}
		u, err := c.app.Login(ctx, args[0], args[1])
		c.report(err, "Signed in as "+username(u))
		return false
	case "register":
		if len(args) != 3 {
			return c.usage("register <username> <email> <password>")
		}
		u, err := c.app.Register(ctx, models.RegisterInput{Username: args[0], Email: args[1], Password: args[2]})
		c.report(err, "Welcome, "+username(u))
		return false
	case "lang":
		if len(args) != 1 {
			return c.usage("lang <code>")
		}
		c.report(c.app.Users.SetLanguage(args[0]), "Language set to "+args[0])
		return false
	}

	if err := c.app.RequireAuth(); err != nil {
		fmt.Fprintln(c.out, "Please sign in first.")
		return false
	}

	st := c.app.Store.State()
	me := st.User.ID

	switch cmd {
	case "logout":
		c.app.Logout()
	case "me":
		v := viewmodel.MapUser(*st.User)
		fmt.Fprintf(c.out, "%s (@%s) %s\n", v.DisplayName, v.Handle, v.Subtitle)
	case "threads":
		c.printThreads(me, st.Threads)
	case "strangers":
		c.printThreads(me, st.StrangerThreads)
	case "groups":
		c.printThreads(me, st.Groups)
	case "open":
		if len(args) != 1 {
			return c.usage("open <threadId>")
		}
		c.app.Chat.Open(args[0])
	case "show":
		c.printTranscript(st)
	case "send":
		if st.ActiveThreadID == "" {
			fmt.Fprintln(c.out, "Open a thread first.")
			break
		}
		_, err := c.app.Chat.Send(ctx, st.ActiveThreadID, strings.Join(args, " "), nil)
		c.report(err, "")
	case "dm":
		if len(args) < 2 {
			return c.usage("dm <userId> <text>")
		}
		_, err := c.app.Chat.SendToUser(ctx, args[0], strings.Join(args[1:], " "), nil)
		c.report(err, "")
	case "retry":
		if len(args) != 1 {
			return c.usage("retry <clientId>")
		}
		_, err := c.app.Chat.Retry(ctx, args[0])
		c.report(err, "")
	case "search":
		users, err := c.app.Users.Search(ctx, strings.Join(args, " "))
		if c.report(err, "") {
			c.printUsers(users)
		}
	case "add":
		if len(args) != 1 {
			return c.usage("add <userId>")
		}
		c.report(c.app.Friends.SendRequest(ctx, args[0]), "")
	case "friends":
		c.printUsers(st.Friends)
	case "requests":
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for _, r := range viewmodel.MapFriendRequests(st.FriendRequests) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Requester.DisplayName, r.SentAt.Format(time.Kitchen))
		}
		_ = w.Flush()
	case "accept", "reject":
		if len(args) != 1 {
			return c.usage(cmd + " <requestId>")
		}
		if cmd == "accept" {
			c.report(c.app.Friends.Accept(ctx, args[0]), "")
		} else {
			c.report(c.app.Friends.Reject(ctx, args[0]), "")
		}
	case "notifications":
		list, unread := viewmodel.MapNotifications(st.Notifications)
		fmt.Fprintf(c.out, "%d unread\n", unread)
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for _, n := range list {
			mark := " "
			if !n.Read {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, n.ID, n.Title, n.Body)
		}
		_ = w.Flush()
	case "read":
		if len(args) != 1 {
			return c.usage("read <id> | read all")
		}
		if args[0] == "all" {
			c.report(c.app.Notifications.MarkAllRead(ctx), "")
		} else {
			c.report(c.app.Notifications.MarkRead(ctx, args[0]), "")
		}
	case "vote", "unvote":
		if len(args) != 2 {
			return c.usage(cmd + " <pollId> <optionId>")
		}
		var err error
		if cmd == "vote" {
			_, err = c.app.Polls.Vote(ctx, args[0], args[1])
		} else {
			_, err = c.app.Polls.RemoveVote(ctx, args[0], args[1])
		}
		c.report(err, "")
	case "schedules":
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for _, s := range st.Schedules {
			v := viewmodel.MapSchedule(me, s)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d going\n", v.ID, v.Title, v.StartsAt.Local().Format("Mon 02 Jan 15:04"), v.ParticipantCount)
		}
		_ = w.Flush()
	case "join", "leave":
		if len(args) != 1 {
			return c.usage(cmd + " <scheduleId>")
		}
		var err error
		if cmd == "join" {
			_, err = c.app.Schedules.Join(ctx, args[0])
		} else {
			_, err = c.app.Schedules.Leave(ctx, args[0])
		}
		c.report(err, "")
	case "status":
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for r, s := range c.app.Sync.Status() {
			fmt.Fprintf(w, "%s\tenabled=%t\tfailures=%d\tupdated=%s\n", r, s.Enabled, s.Failures, s.UpdatedAt.Format(time.TimeOnly))
		}
		_ = w.Flush()
	default:
		fmt.Fprintf(c.out, "Unknown command %q, try help\n", cmd)
	}
	return false
}

func (c *cli) usage(form string) bool {
	fmt.Fprintln(c.out, "usage:", form)
	return false
}

// report prints err, or ok when err is nil and ok is not empty. Failures of
// mutations are already shown as toasts.
func (c *cli) report(err error, ok string) bool {
	if err != nil {
		fmt.Fprintln(c.out, "error:", err)
		return false
	}
	if ok != "" {
		fmt.Fprintln(c.out, ok)
	}
	return true
}

func (c *cli) printThreads(me string, threads []models.Thread) {
	views, err := viewmodel.MapThreads(me, threads)
	if err != nil {
		fmt.Fprintln(c.out, "warning:", err)
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, v := range views {
		unread := ""
		if v.Unread > 0 {
			unread = fmt.Sprintf("(%d)", v.Unread)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.Title, unread, v.LastMessage)
	}
	_ = w.Flush()
}

func (c *cli) printUsers(users []models.User) {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, v := range viewmodel.MapUsers(users) {
		online := ""
		if v.Online {
			online = "online"
		}
		fmt.Fprintf(w, "%s\t%s\t@%s\t%s\t%s\n", v.ID, v.DisplayName, v.Handle, v.Subtitle, online)
	}
	_ = w.Flush()
}

func (c *cli) printTranscript(st store.State) {
	if st.ActiveThread == nil {
		fmt.Fprintln(c.out, "No thread open.")
		return
	}
	items := viewmodel.MergeTranscript(viewmodel.TranscriptInput{
		CurrentUserID: st.User.ID,
		Detail:        *st.ActiveThread,
		Pending:       st.PendingFor(st.ActiveThreadID),
		Polls:         st.ThreadPolls,
		Schedules:     st.ThreadSchedules,
		Now:           time.Now(),
	})
	for _, it := range items {
		at := it.At.Local().Format("15:04")
		switch it.Kind {
		case viewmodel.KindMessage, viewmodel.KindPending:
			m := it.Message
			state := ""
			switch {
			case m.Failed:
				state = " [failed, retry " + m.ClientID + "]"
			case it.Kind == viewmodel.KindPending:
				state = " [sending]"
			}
			fmt.Fprintf(c.out, "%s %s: %s%s\n", at, m.Sender.DisplayName, m.Content, state)
			for _, a := range m.Attachments {
				fmt.Fprintf(c.out, "      [file] %s %s\n", a.FileName, a.URL)
			}
		case viewmodel.KindPoll:
			p := it.Poll
			fmt.Fprintf(c.out, "%s poll %s: %s\n", at, p.ID, p.Question)
			for _, o := range p.Options {
				mine := ""
				if o.VotedByMe {
					mine = " *"
				}
				fmt.Fprintf(c.out, "      %s %s (%d)%s\n", o.ID, o.Text, o.Votes, mine)
			}
		case viewmodel.KindSchedule:
			s := it.Schedule
			fmt.Fprintf(c.out, "%s schedule %s: %s at %s\n", at, s.ID, s.Title, s.StartsAt.Local().Format("Mon 15:04"))
		}
	}
}

func username(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

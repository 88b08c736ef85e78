// Package bot turns chat commands into engine calls and engine results into
// chat replies. It is independent of any concrete chat transport.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/jwebster45206/fairytale-engine/internal/engine"
	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

type handlerFunc func(ctx context.Context, user, args string) Reply

type command struct {
	names   []string
	usage   string
	help    string
	limited bool
	handle  handlerFunc
}

// fieldAccessor backs a get_<name>/set_<name> command pair.
type fieldAccessor struct {
	name  string
	label string
	get   func(ctx context.Context, user string) (string, error)
	set   func(ctx context.Context, user, args string) (string, error)
}

// Router dispatches commands through a table built once in NewRouter.
type Router struct {
	engine   *engine.Engine
	logger   *slog.Logger
	botName  string
	commands []command
	dispatch map[string]*command
}

// NewRouter builds the command table. botName, when set, is accepted as an
// @-suffix on commands.
func NewRouter(e *engine.Engine, botName string, logger *slog.Logger) *Router {
	r := &Router{
		engine:  e,
		logger:  logger,
		botName: strings.TrimPrefix(botName, "@"),
	}

	r.commands = []command{
		{names: []string{"start"}, help: "show the welcome message", handle: r.start},
		{names: []string{"help"}, help: "list all commands", handle: r.help},
		{names: []string{"randomize"}, help: "pick a random topic, moral and author and begin", limited: true, handle: r.randomize},
		{names: []string{"begin"}, help: "start a new story with the current settings", limited: true, handle: r.begin},
		{names: []string{"continue", "next", "generate_next_story_part"}, help: "generate the next part of the story", limited: true, handle: r.advance},
		{names: []string{"reset"}, help: "reset the current story and start over", handle: r.reset},
		{names: []string{"upgrade"}, help: "switch to the premium plan", handle: r.tier(profile.TierPremium, "Upgraded to the premium plan.")},
		{names: []string{"downgrade"}, help: "switch to the default plan", handle: r.tier(profile.TierDefault, "Downgraded to the default plan.")},
		{names: []string{"archive"}, usage: "[n]", help: "list archived stories or fetch the n-th one", handle: r.archive},
	}

	for _, f := range []engine.Field{engine.FieldTopic, engine.FieldMoral, engine.FieldAuthor} {
		r.commands = append(r.commands, command{
			names:  []string{"set_random_" + string(f)},
			help:   "set a random " + string(f),
			handle: r.setRandom(f),
		})
	}

	for _, acc := range r.fieldAccessors() {
		r.commands = append(r.commands,
			command{names: []string{"get_" + acc.name}, help: "show your " + acc.label, handle: r.getter(acc)},
			command{names: []string{"set_" + acc.name}, usage: "<value>", help: "set your " + acc.label, handle: r.setter(acc)},
		)
	}

	r.dispatch = make(map[string]*command)
	for i := range r.commands {
		for _, name := range r.commands[i].names {
			r.dispatch[name] = &r.commands[i]
		}
	}
	return r
}

func (r *Router) fieldAccessors() []fieldAccessor {
	param := func(f engine.Field) fieldAccessor {
		return fieldAccessor{
			name:  string(f),
			label: string(f),
			get: func(ctx context.Context, user string) (string, error) {
				return r.engine.Param(ctx, user, f)
			},
			set: func(ctx context.Context, user, args string) (string, error) {
				return r.engine.SetParam(ctx, user, f, args)
			},
		}
	}
	number := func(name, label string, get func(context.Context, string) (int, error), set func(context.Context, string, int) error) fieldAccessor {
		return fieldAccessor{
			name:  name,
			label: label,
			get: func(ctx context.Context, user string) (string, error) {
				n, err := get(ctx, user)
				return strconv.Itoa(n), err
			},
			set: func(ctx context.Context, user, args string) (string, error) {
				n, err := strconv.Atoi(args)
				if err != nil {
					return "", errInvalidNumber
				}
				return strconv.Itoa(n), set(ctx, user, n)
			},
		}
	}

	return []fieldAccessor{
		param(engine.FieldTopic),
		param(engine.FieldMoral),
		param(engine.FieldAuthor),
		number("user_limit", "usage limit", r.engine.UsageLimit, r.engine.SetUsageLimit),
		number("user_usage", "usage count", r.engine.UsageCount, r.engine.SetUsageCount),
	}
}

var errInvalidNumber = errors.New("value is not a number")

// Commands returns every registered command name in sorted order.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.dispatch))
	for name := range r.dispatch {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parse splits "/cmd@bot args" into the command name and its arguments.
// The slash and the bot suffix are optional.
func (r *Router) parse(input string) (string, string, bool) {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "/")
	if input == "" {
		return "", "", false
	}

	name, args, _ := strings.Cut(input, " ")
	if i := strings.Index(name, "@"); i >= 0 {
		if r.botName != "" && !strings.EqualFold(name[i+1:], r.botName) {
			return "", "", false
		}
		name = name[:i]
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// Handle executes one command for the request's user.
func (r *Router) Handle(ctx context.Context, req Request) Reply {
	name, args, ok := r.parse(req.Text)
	if !ok {
		return text(UnknownMessage)
	}
	cmd, ok := r.dispatch[name]
	if !ok {
		r.logger.Debug("unknown command", "user_id", req.UserID, "command", name)
		return text(UnknownMessage)
	}

	r.logger.Debug("handling command", "user_id", req.UserID, "chat_id", req.ChatID, "command", name)

	if cmd.limited {
		if reply, blocked := r.checkLimit(ctx, req.UserID); blocked {
			return reply
		}
	}
	return cmd.handle(ctx, req.UserID, args)
}

func (r *Router) checkLimit(ctx context.Context, user string) (Reply, bool) {
	p, err := r.engine.Profile(ctx, user)
	if err != nil {
		return r.failure(user, err), true
	}
	if p.LimitReached() {
		return text(fmt.Sprintf("You have reached your usage limit of %d story parts. Use /upgrade to keep going.", p.Settings.UsageLimit)), true
	}
	return Reply{}, false
}

// failure maps an error to user-facing text. Raw error detail is only logged.
func (r *Router) failure(user string, err error) Reply {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		return text(verr.UserMessage())
	case errors.Is(err, engine.ErrMissingParameters):
		return text(engine.GuidanceMessage)
	case errors.Is(err, errInvalidNumber), errors.Is(err, engine.ErrInvalidUsageValue):
		return text("Please provide a non-negative whole number.")
	}
	r.logger.Error("command failed", "user_id", user, "error", err)
	return text(FailureMessage)
}

func (r *Router) start(ctx context.Context, user, args string) Reply {
	return text(startMessage)
}

func (r *Router) help(ctx context.Context, user, args string) Reply {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range r.commands {
		names := make([]string, len(cmd.names))
		for i, n := range cmd.names {
			names[i] = "/" + n
		}
		b.WriteString(strings.Join(names, ", "))
		if cmd.usage != "" {
			b.WriteString(" " + cmd.usage)
		}
		b.WriteString(" - " + cmd.help + "\n")
	}
	return text(b.String())
}

func (r *Router) advance(ctx context.Context, user, args string) Reply {
	res, err := r.engine.Advance(ctx, user)
	if err != nil {
		reply := r.failure(user, err)
		reply.Typing = true
		return reply
	}
	if res.Guidance || res.Complete {
		return text(res.Text)
	}
	return Reply{Messages: []string{res.Text + ContinueHint}, Typing: true}
}

func (r *Router) begin(ctx context.Context, user, args string) Reply {
	p, err := r.engine.Profile(ctx, user)
	if err != nil {
		return r.failure(user, err)
	}
	if !p.Params.Complete() {
		return text(engine.GuidanceMessage)
	}
	if _, err := r.engine.GenerateStructure(ctx, user); err != nil {
		reply := r.failure(user, err)
		reply.Typing = true
		return reply
	}
	return r.advance(ctx, user, args)
}

func (r *Router) randomize(ctx context.Context, user, args string) Reply {
	res, err := r.engine.Randomize(ctx, user)
	chosen := fmt.Sprintf("Moral set to %s\nTopic set to %s\nAuthor set to %s",
		res.Params.Moral, res.Params.Topic, res.Params.Author)
	if err != nil {
		reply := r.failure(user, err)
		if res.Params.Complete() {
			reply.Messages = append([]string{chosen}, reply.Messages...)
		}
		reply.Typing = true
		return reply
	}

	stage := r.advance(ctx, user, args)
	stage.Messages = append([]string{chosen, GeneratingMessage}, stage.Messages...)
	stage.Typing = true
	return stage
}

func (r *Router) reset(ctx context.Context, user, args string) Reply {
	if _, err := r.engine.Reset(ctx, user); err != nil {
		return r.failure(user, err)
	}
	return text("Story reset.")
}

func (r *Router) tier(tier profile.Tier, done string) handlerFunc {
	return func(ctx context.Context, user, args string) Reply {
		if _, err := r.engine.ApplyTier(ctx, user, tier); err != nil {
			return r.failure(user, err)
		}
		return text(done)
	}
}

func (r *Router) archive(ctx context.Context, user, args string) Reply {
	if n, err := strconv.Atoi(args); err == nil {
		story, err := r.engine.ArchivedStory(ctx, user, n)
		if errors.Is(err, engine.ErrArchiveIndex) {
			return text(fmt.Sprintf("There is no story number %d in your archive.", n))
		}
		if err != nil {
			return r.failure(user, err)
		}
		return Reply{
			Messages:   []string{},
			Attachment: &Attachment{Filename: fmt.Sprintf("story_%d.txt", n), Content: story.Text()},
		}
	}

	list, err := r.engine.Archive(ctx, user)
	if err != nil {
		return r.failure(user, err)
	}
	return text(fmt.Sprintf("Your archive contains %d stories. Use /archive i to view the i-th story.", len(list)))
}

func (r *Router) setRandom(f engine.Field) handlerFunc {
	return func(ctx context.Context, user, args string) Reply {
		value, err := r.engine.SetRandomParam(ctx, user, f)
		if err != nil {
			return r.failure(user, err)
		}
		return text(fmt.Sprintf("Random %s set to %s", f, value))
	}
}

func (r *Router) getter(acc fieldAccessor) handlerFunc {
	return func(ctx context.Context, user, args string) Reply {
		value, err := acc.get(ctx, user)
		if err != nil {
			return r.failure(user, err)
		}
		if value == "" {
			return text(fmt.Sprintf("Your %s is not set. Use /set_%s to set it.", acc.label, acc.name))
		}
		return text(fmt.Sprintf("Your %s: %s", acc.label, value))
	}
}

func (r *Router) setter(acc fieldAccessor) handlerFunc {
	return func(ctx context.Context, user, args string) Reply {
		if args == "" {
			return text(fmt.Sprintf("Usage: /set_%s <value>", acc.name))
		}
		value, err := acc.set(ctx, user, args)
		if err != nil {
			return r.failure(user, err)
		}
		return text(fmt.Sprintf("%s set to %s", capitalize(acc.label), value))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

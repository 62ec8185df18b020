package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

// ErrNotCommand is returned when the text does not start with a recognized
// trigger. Callers treat it as "ordinary chat, ignore".
var ErrNotCommand = errors.New("not a ledger command")

// Code classifies a ParseError so callers can phrase a stable user-facing
// message per failure mode.
type Code string

const (
	// MissingName: a trigger that needs a customer name got none.
	MissingName Code = "missing_name"
	// TooFewTokens: a sale command without enough arguments.
	TooFewTokens Code = "too_few_tokens"
	// InvalidMagnitude: the trailing kW token is not a non-negative number.
	InvalidMagnitude Code = "invalid_magnitude"
	// MissingActors: #soldfor without two resolvable mentions in order.
	MissingActors Code = "missing_actors"
	// MissingTarget: nothing follows a trigger that needs a customer or id.
	MissingTarget Code = "missing_target"
)

// ParseError reports malformed command input. It is user-correctable by
// definition — typos are routine, not exceptional — and is never logged as
// a bug.
type ParseError struct {
	Code    Code
	Trigger string
	Usage   string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s command (%s); usage: %s", e.Trigger, e.Code, e.Usage)
}

// rule binds a trigger token to its handler. Rules are evaluated in order,
// so longer triggers sharing a prefix with shorter ones must come first.
type rule struct {
	trigger string
	parse   func(*parser) (Intent, error)
}

// rules is the ordered trigger table. `#soldfor` before `#sold`,
// `#canceled` before `#cancel`.
var rules = []rule{
	{"#set", (*parser).parseSet},
	{"#soldfor", (*parser).parseSoldFor},
	{"#sold", (*parser).parseSold},
	{"#nosale", (*parser).parseNoSale},
	{"#canceled", (*parser).parseCancel},
	{"#cancel", (*parser).parseCancel},
	{"#delete", (*parser).parseDelete},
	{"#clearleaderboard", (*parser).parseClearAll},
}

// parser carries one invocation's token stream and mention table.
type parser struct {
	trigger  string
	args     []string // tokens after the trigger
	mentions []domain.Actor
}

// Parse interprets rawText as a hashtag command. mentions is the event's
// resolved mention list, in the order the platform reported them; mention
// tokens in the text (`<@id>` / `<@!id>`) are matched against it by id.
//
// Returns ErrNotCommand when rawText does not start with a known trigger,
// a *ParseError when it does but the arguments are malformed, and an Intent
// otherwise. Triggers are case-insensitive.
func Parse(rawText string, mentions []domain.Actor) (Intent, error) {
	tokens := strings.Fields(rawText)
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], "#") {
		return nil, ErrNotCommand
	}
	head := strings.ToLower(tokens[0])
	for _, r := range rules {
		if head == r.trigger {
			p := &parser{trigger: r.trigger, args: tokens[1:], mentions: mentions}
			return r.parse(p)
		}
	}
	return nil, ErrNotCommand
}

// fail builds the typed parse error for this invocation's trigger.
func (p *parser) fail(code Code, usage string) error {
	return &ParseError{Code: code, Trigger: p.trigger, Usage: usage}
}

// mentionID extracts the actor id from a `<@123>` or `<@!123>` token,
// returning "" when the token is not a mention.
func mentionID(tok string) string {
	if !strings.HasPrefix(tok, "<@") || !strings.HasSuffix(tok, ">") {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(tok, "<@"), ">")
	id = strings.TrimPrefix(id, "!")
	if id == "" {
		return ""
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

// resolveMention maps a mention token to the event's actor list. A mention
// token whose id the platform did not resolve yields a zero actor.
func (p *parser) resolveMention(tok string) domain.Actor {
	id := mentionID(tok)
	if id == "" {
		return domain.Actor{}
	}
	for _, a := range p.mentions {
		if a.ID == id {
			return a
		}
	}
	return domain.Actor{}
}

// parseMagnitude parses the trailing kW token: any non-negative float.
func parseMagnitude(tok string) (float64, bool) {
	kw, err := strconv.ParseFloat(tok, 64)
	if err != nil || kw < 0 {
		return 0, false
	}
	return kw, true
}

// #set First Last
func (p *parser) parseSet() (Intent, error) {
	if len(p.args) == 0 {
		return nil, p.fail(MissingName, "#set Customer Name")
	}
	return SetAppointment{CustomerName: strings.Join(p.args, " ")}, nil
}

// #sold [@Setter] [Customer Name] kW
func (p *parser) parseSold() (Intent, error) {
	const usage = "#sold [@Setter] [Customer Name] kW"
	if len(p.args) < 2 {
		return nil, p.fail(TooFewTokens, usage)
	}
	kw, ok := parseMagnitude(p.args[len(p.args)-1])
	if !ok {
		return nil, p.fail(InvalidMagnitude, usage)
	}
	rest := p.args[:len(p.args)-1]

	var setter domain.Actor
	if len(rest) > 0 {
		if a := p.resolveMention(rest[0]); !a.Zero() {
			setter = a
			rest = rest[1:]
		}
	}
	return RecordSale{
		Setter:       setter,
		CustomerName: strings.Join(rest, " "),
		KW:           kw,
	}, nil
}

// #soldfor @Closer @Setter [Customer Name] kW
func (p *parser) parseSoldFor() (Intent, error) {
	const usage = "#soldfor @Closer @Setter [Customer Name] kW"
	if len(p.args) < 3 {
		return nil, p.fail(MissingActors, usage)
	}
	closer := p.resolveMention(p.args[0])
	setter := p.resolveMention(p.args[1])
	if closer.Zero() || setter.Zero() {
		return nil, p.fail(MissingActors, usage)
	}
	kw, ok := parseMagnitude(p.args[len(p.args)-1])
	if !ok {
		return nil, p.fail(InvalidMagnitude, usage)
	}
	return RecordSaleFor{
		Closer:       closer,
		Setter:       setter,
		CustomerName: strings.Join(p.args[2:len(p.args)-1], " "),
		KW:           kw,
	}, nil
}

// #nosale Customer Name
func (p *parser) parseNoSale() (Intent, error) {
	if len(p.args) == 0 {
		return nil, p.fail(MissingTarget, "#nosale Customer Name")
	}
	return MarkNoSale{CustomerName: strings.Join(p.args, " ")}, nil
}

// #cancel Customer Name (also matches the historical #canceled spelling)
func (p *parser) parseCancel() (Intent, error) {
	if len(p.args) == 0 {
		return nil, p.fail(MissingTarget, "#cancel Customer Name")
	}
	return Cancel{CustomerName: strings.Join(p.args, " ")}, nil
}

// #delete <deal id | Customer Name>
func (p *parser) parseDelete() (Intent, error) {
	if len(p.args) == 0 {
		return nil, p.fail(MissingTarget, "#delete <deal id | Customer Name>")
	}
	if len(p.args) == 1 {
		if id, err := strconv.ParseInt(p.args[0], 10, 64); err == nil && id > 0 {
			return Delete{DealID: id}, nil
		}
	}
	return Delete{CustomerName: strings.Join(p.args, " ")}, nil
}

// #clearleaderboard — no arguments; trailing tokens are ignored, reps
// habitually type things like "#clearleaderboard please".
func (p *parser) parseClearAll() (Intent, error) {
	return ClearAll{}, nil
}

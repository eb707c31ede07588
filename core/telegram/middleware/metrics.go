package middleware

import tele "gopkg.in/telebot.v4"

const countersKey = "reply_counters"

// Counters tally what a handler sent back for the update.
type Counters struct {
	Messages int
	Keyboard bool
}

// countingContext records successful sends and edits in Counters.
type countingContext struct {
	tele.Context
	n *Counters
}

func (c countingContext) track(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	c.n.Messages++
	if withKeyboard(opts) {
		c.n.Keyboard = true
	}
	return nil
}

func withKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (c countingContext) Send(what interface{}, opts ...interface{}) error {
	return c.track(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what interface{}, opts ...interface{}) error {
	return c.track(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what interface{}, opts ...interface{}) error {
	return c.track(c.Context.Edit(what, opts...), opts)
}

// MessageMetricsMiddleware counts the replies each handler produces; the
// handler summary line reports them.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &Counters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// GetCounters returns the reply count and whether any reply carried a
// keyboard.
func GetCounters(c tele.Context) (int, bool) {
	n, ok := c.Get(countersKey).(*Counters)
	if !ok || n == nil {
		return 0, false
	}
	return n.Messages, n.Keyboard
}

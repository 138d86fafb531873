// Package mailparse extracts a structured envelope from a raw RFC 822 message
// payload fetched from the blob store.
package mailparse

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/haulwire/loadscout/internal/interfaces"
)

// Envelope is the parsed raw message: just enough structure for source
// detection and the format parsers.
type Envelope struct {
	MessageID string
	Subject   string
	From      string // address only, lower-cased
	FromName  string
	To        []string
	Date      time.Time
	Text      string // text/plain body, may be empty
	HTML      string // text/html body, may be empty
}

// Parse reads a raw message payload. A payload with no parseable header or no
// body of either kind is a structural failure: the item fails fast rather
// than being partially processed.
func Parse(raw []byte) (*Envelope, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", interfaces.ErrStructural)
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrStructural, err)
	}

	env := &Envelope{}

	env.MessageID, _ = mr.Header.MessageID()
	env.Subject, _ = mr.Header.Subject()

	if date, err := mr.Header.Date(); err == nil {
		env.Date = date.UTC()
	}

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		env.From = strings.ToLower(from[0].Address)
		env.FromName = from[0].Name
	}
	if to, err := mr.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			env.To = append(env.To, strings.ToLower(addr.Address))
		}
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read message part: %v", interfaces.ErrStructural, err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to read body part: %v", interfaces.ErrStructural, err)
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				if env.Text == "" {
					env.Text = string(b)
				}
			case strings.HasPrefix(contentType, "text/html"):
				if env.HTML == "" {
					env.HTML = string(b)
				}
			}
		}
	}

	if env.Text == "" && env.HTML == "" {
		return nil, fmt.Errorf("%w: message has no text or html body", interfaces.ErrStructural)
	}

	return env, nil
}

// SenderDomain returns the domain of the From address, or empty
func (e *Envelope) SenderDomain() string {
	at := strings.LastIndex(e.From, "@")
	if at < 0 || at == len(e.From)-1 {
		return ""
	}
	return e.From[at+1:]
}

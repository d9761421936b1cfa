package models

import "encoding/json"

type ReplyKind string

const (
	ReplyText        ReplyKind = "text"
	ReplyInteractive ReplyKind = "interactive"
)

// Reply sources, used for telemetry.
const (
	SourceRule     = "rule"
	SourceIntent   = "intent"
	SourceFallback = "ai_fallback"
	SourceError    = "error"
)

type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Interactive is a channel-agnostic menu: either up to three buttons or one list section.
type Interactive struct {
	Body       string   `json:"body"`
	Buttons    []Button `json:"buttons,omitempty"`
	ListButton string   `json:"list_button,omitempty"`
	Section    *Section `json:"section,omitempty"`
}

func (i *Interactive) IsList() bool {
	return i != nil && i.Section != nil
}

type Reply struct {
	Kind        ReplyKind
	Text        string
	Interactive *Interactive
	Source      string
	Intent      string
}

func TextReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

func ButtonsReply(body string, buttons ...Button) Reply {
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}
	return Reply{Kind: ReplyInteractive, Interactive: &Interactive{Body: body, Buttons: buttons}}
}

func ListReply(body, listButton string, section Section) Reply {
	return Reply{Kind: ReplyInteractive, Interactive: &Interactive{Body: body, ListButton: listButton, Section: &section}}
}

// Body returns the human readable text of the reply regardless of its kind.
func (r Reply) Body() string {
	if r.Interactive != nil {
		return r.Interactive.Body
	}
	return r.Text
}

func (r Reply) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind        ReplyKind    `json:"kind"`
		Text        string       `json:"text,omitempty"`
		Interactive *Interactive `json:"interactive,omitempty"`
	}
	return json.Marshal(wire{Kind: r.Kind, Text: r.Text, Interactive: r.Interactive})
}

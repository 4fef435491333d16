package whatsapp

const (
	MessagingProduct = "whatsapp"
	TypeTemplate     = "template"
	ComponentBody    = "body"
	ParameterText    = "text"
)

// TemplateMessage is the request body of POST /{phone-number-id}/messages
// for a template message.
type TemplateMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         Template `json:"template"`
}

type Template struct {
	Name       string      `json:"name"`
	Language   Language    `json:"language"`
	Components []Component `json:"components,omitempty"`
}

type Language struct {
	Code string `json:"code"`
}

type Component struct {
	Type       string      `json:"type"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BodyTemplate builds a template whose body placeholders {{1}}..{{n}} are
// filled with params in order.
func BodyTemplate(name, language string, params ...string) Template {
	parameters := make([]Parameter, 0, len(params))
	for _, p := range params {
		parameters = append(parameters, Parameter{Type: ParameterText, Text: p})
	}

	return Template{
		Name:     name,
		Language: Language{Code: language},
		Components: []Component{
			{Type: ComponentBody, Parameters: parameters},
		},
	}
}

// SendResponse is the success body returned by the Cloud API.
type SendResponse struct {
	MessagingProduct string        `json:"messaging_product"`
	Contacts         []Contact     `json:"contacts"`
	Messages         []SentMessage `json:"messages"`
}

type Contact struct {
	Input string `json:"input"`
	WaID  string `json:"wa_id"`
}

type SentMessage struct {
	ID            string `json:"id"`
	MessageStatus string `json:"message_status,omitempty"`
}

// MessageID returns the wamid of the first accepted message, or "".
func (r *SendResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

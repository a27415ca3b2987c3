package reconciler

// FunctionCall announces that the agent invoked a tool
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a tool result. Response may be a string, a map,
// or a wrapper such as {"result": "<json>"}.
type FunctionResponse struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Response any    `json:"response"`
}

// Part is one piece of agent output; exactly one field is normally set
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

// Event is one item of the agent runtime stream
type Event struct {
	Author  string   `json:"author,omitempty"`
	Content *Content `json:"content,omitempty"`
}

// TextEvent is shorthand for an event with a single text part
func TextEvent(author, text string) Event {
	return Event{Author: author, Content: &Content{Parts: []Part{{Text: text}}}}
}

// CallEvent is shorthand for an event announcing a tool call
func CallEvent(author, name string, args map[string]any) Event {
	return Event{Author: author, Content: &Content{Parts: []Part{{FunctionCall: &FunctionCall{Name: name, Args: args}}}}}
}

// ResponseEvent is shorthand for an event carrying a tool result
func ResponseEvent(author, name string, response any) Event {
	return Event{Author: author, Content: &Content{Parts: []Part{{FunctionResponse: &FunctionResponse{Name: name, Response: response}}}}}
}

type UIEventType string

const (
	UIEventSession        UIEventType = "session"
	UIEventText           UIEventType = "text"
	UIEventStatus         UIEventType = "status"
	UIEventVideoGenerated UIEventType = "video_generated"
	UIEventError          UIEventType = "error"
	UIEventDone           UIEventType = "done"
)

// UIEvent is what the browser receives, one per SSE data frame
type UIEvent struct {
	Type      UIEventType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Content   string      `json:"content,omitempty"`
	Message   string      `json:"message,omitempty"`
	URL       string      `json:"url,omitempty"`
	Filename  string      `json:"filename,omitempty"`
	VideoPath string      `json:"video_path,omitempty"`
	VideoType string      `json:"video_type,omitempty"`
}

// VideoResult is a successful generation tool outcome
type VideoResult struct {
	URL       string
	Filename  string
	VideoPath string
	VideoType string
	Message   string
	Raw       map[string]any
}

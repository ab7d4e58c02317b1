package clients

// AlimtalkRequest is the agency API body for a template message.
type AlimtalkRequest struct {
	To           string       `json:"to"`
	From         string       `json:"from,omitempty"`
	KakaoOptions KakaoOptions `json:"kakaoOptions"`
}

// KakaoOptions carries the approved template and its substitutions.
type KakaoOptions struct {
	PfID       string            `json:"pfId"`
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables,omitempty"`
	Buttons    []AlimtalkButton  `json:"buttons,omitempty"`
}

// AlimtalkButton is the Alimtalk wire shape of a button.
type AlimtalkButton struct {
	ButtonType string `json:"buttonType"`
	ButtonName string `json:"buttonName"`
	LinkMo     string `json:"linkMo,omitempty"`
	LinkPc     string `json:"linkPc,omitempty"`
	LinkAnd    string `json:"linkAnd,omitempty"`
	LinkIos    string `json:"linkIos,omitempty"`
}

// FriendtalkRequest is the Kakao API body for a channel-friend message.
type FriendtalkRequest struct {
	ReceiverUUIDs  []string       `json:"receiver_uuids"`
	TemplateObject TemplateObject `json:"template_object"`
}

// TemplateObject is the Kakao default message template.
type TemplateObject struct {
	ObjectType  string             `json:"object_type"`
	Text        string             `json:"text"`
	Link        FriendtalkLink     `json:"link"`
	ButtonTitle string             `json:"button_title,omitempty"`
	Buttons     []FriendtalkButton `json:"buttons,omitempty"`
}

// FriendtalkLink points at the page opened from the message.
type FriendtalkLink struct {
	WebURL       string `json:"web_url,omitempty"`
	MobileWebURL string `json:"mobile_web_url,omitempty"`
}

// FriendtalkButton is the Friendtalk wire shape of a button.
type FriendtalkButton struct {
	Title string         `json:"title"`
	Link  FriendtalkLink `json:"link"`
}

// kakaoResponse is the union of the fields returned by both Kakao APIs.
type kakaoResponse struct {
	SuccessfulReceiverUUIDs []string `json:"successful_receiver_uuids"`
	GroupID                 string   `json:"groupId"`
	Count                   int      `json:"count"`
	StatusCode              string   `json:"statusCode"`
	StatusMessage           string   `json:"statusMessage"`
	RequestID               string   `json:"requestId"`
	AccountID               string   `json:"accountId"`
}

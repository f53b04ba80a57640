// Package evidence defines the requests an issuing authority poses to a
// holder during proofing and the responses it gets back.
package evidence

import (
	"github.com/ory/go-convenience/stringslice"
)

// Kind names a request or response type. A response answers the request of
// the matching kind, except IcaoNfcTunnelResult which closes an IcaoNfcTunnel
// exchange.
type Kind string

const (
	KindMessage                   Kind = "message"
	KindQuestionString            Kind = "question_string"
	KindQuestionMultipleChoice    Kind = "question_multiple_choice"
	KindIcaoPassiveAuthentication Kind = "icao_passive_authentication"
	KindIcaoNfcTunnel             Kind = "icao_nfc_tunnel"
	KindIcaoNfcTunnelResult       Kind = "icao_nfc_tunnel_result"
)

// Request is implemented by the *Request types of this package only.
type Request interface {
	Kind() Kind
	isRequest()
}

// Response is implemented by the *Response types of this package only.
type Response interface {
	Kind() Kind
	isResponse()
}

// MessageRequest shows a message the holder accepts or rejects.
type MessageRequest struct {
	Message          string `json:"message"`
	AcceptButtonText string `json:"accept_button_text"`
	// RejectButtonText is empty when the message can only be accepted.
	RejectButtonText string `json:"reject_button_text,omitempty"`
}

type QuestionStringRequest struct {
	Message          string `json:"message"`
	DefaultValue     string `json:"default_value"`
	AcceptButtonText string `json:"accept_button_text"`
}

// Choice is one answer of a multiple-choice question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionMultipleChoiceRequest asks the holder to pick one of
// PossibleValues, shown in order.
type QuestionMultipleChoiceRequest struct {
	Message          string   `json:"message"`
	PossibleValues   []Choice `json:"possible_values"`
	AcceptButtonText string   `json:"accept_button_text"`
}

// ChoiceIDs returns the ids of PossibleValues in order.
func (r QuestionMultipleChoiceRequest) ChoiceIDs() []string {
	ids := make([]string, 0, len(r.PossibleValues))
	for _, c := range r.PossibleValues {
		ids = append(ids, c.ID)
	}
	return ids
}

// HasChoice reports whether id is one of the declared choices.
func (r QuestionMultipleChoiceRequest) HasChoice(id string) bool {
	return stringslice.Has(r.ChoiceIDs(), id)
}

// IcaoPassiveAuthenticationRequest asks for the listed data groups of a
// passport chip together with its security object.
type IcaoPassiveAuthenticationRequest struct {
	DataGroups []int `json:"data_groups"`
}

type IcaoNfcTunnelType string

const (
	IcaoNfcTunnelHandshake      IcaoNfcTunnelType = "handshake"
	IcaoNfcTunnelAuthenticating IcaoNfcTunnelType = "authenticating"
	IcaoNfcTunnelReading        IcaoNfcTunnelType = "reading"
)

// IcaoNfcTunnelRequest carries one APDU from the issuing authority to the
// passport chip through the holder.
type IcaoNfcTunnelRequest struct {
	Type IcaoNfcTunnelType `json:"type_of_request"`
	// Progress is a percentage for display.
	Progress int    `json:"progress_percent"`
	Message  []byte `json:"message"`
}

func (MessageRequest) Kind() Kind                   { return KindMessage }
func (QuestionStringRequest) Kind() Kind            { return KindQuestionString }
func (QuestionMultipleChoiceRequest) Kind() Kind    { return KindQuestionMultipleChoice }
func (IcaoPassiveAuthenticationRequest) Kind() Kind { return KindIcaoPassiveAuthentication }
func (IcaoNfcTunnelRequest) Kind() Kind             { return KindIcaoNfcTunnel }

func (MessageRequest) isRequest()                   {}
func (QuestionStringRequest) isRequest()            {}
func (QuestionMultipleChoiceRequest) isRequest()    {}
func (IcaoPassiveAuthenticationRequest) isRequest() {}
func (IcaoNfcTunnelRequest) isRequest()             {}

type MessageResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

type QuestionStringResponse struct {
	Answer string `json:"answer"`
}

type QuestionMultipleChoiceResponse struct {
	AnswerID string `json:"answer_id"`
}

// IcaoPassiveAuthenticationResponse holds the raw data groups keyed by
// number and the document security object (EF.SOD).
type IcaoPassiveAuthenticationResponse struct {
	DataGroups     map[int][]byte `json:"data_groups"`
	SecurityObject []byte         `json:"security_object"`
}

type IcaoNfcTunnelResponse struct {
	Response []byte `json:"response"`
}

// AuthenticationType is the strongest anti-cloning check the chip passed.
type AuthenticationType string

const (
	AuthenticationNone   AuthenticationType = "none"
	AuthenticationChip   AuthenticationType = "chip"
	AuthenticationActive AuthenticationType = "active"
)

// IcaoNfcTunnelResultResponse is sent once the tunnel finished reading the
// chip.
type IcaoNfcTunnelResultResponse struct {
	AdvancedAuthentication AuthenticationType `json:"advanced_authentication"`
	DataGroups             map[int][]byte     `json:"data_groups"`
	SecurityObject         []byte             `json:"security_object"`
}

func (MessageResponse) Kind() Kind                   { return KindMessage }
func (QuestionStringResponse) Kind() Kind            { return KindQuestionString }
func (QuestionMultipleChoiceResponse) Kind() Kind    { return KindQuestionMultipleChoice }
func (IcaoPassiveAuthenticationResponse) Kind() Kind { return KindIcaoPassiveAuthentication }
func (IcaoNfcTunnelResponse) Kind() Kind             { return KindIcaoNfcTunnel }
func (IcaoNfcTunnelResultResponse) Kind() Kind       { return KindIcaoNfcTunnelResult }

func (MessageResponse) isResponse()                   {}
func (QuestionStringResponse) isResponse()            {}
func (QuestionMultipleChoiceResponse) isResponse()    {}
func (IcaoPassiveAuthenticationResponse) isResponse() {}
func (IcaoNfcTunnelResponse) isResponse()             {}
func (IcaoNfcTunnelResultResponse) isResponse()       {}

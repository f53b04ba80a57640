package proofing

import (
	"github.com/kokukuma/mdoc-issuance/evidence"
)

// Node is one step of a proofing graph. It is implemented by SimpleNode,
// MultipleChoiceNode and IcaoNfcTunnelNode only.
type Node interface {
	// ID identifies the node within its graph. Drivers store responses
	// under it.
	ID() string
	// Requests are presented to the holder, in order.
	Requests() []evidence.Request
	// FollowUps lists each distinct node this node may lead to.
	FollowUps() []Node
	// SelectFollowUp picks the next node for response. A nil Node with a nil
	// error means the workflow is complete.
	SelectFollowUp(response evidence.Response) (Node, error)

	sealed()
}

// SimpleNode poses one request and always continues with the same node.
type SimpleNode struct {
	id       string
	request  evidence.Request
	followUp Node
}

func (n *SimpleNode) ID() string { return n.id }

func (n *SimpleNode) Requests() []evidence.Request {
	return []evidence.Request{n.request}
}

func (n *SimpleNode) FollowUps() []Node {
	if n.followUp == nil {
		return nil
	}
	return []Node{n.followUp}
}

// SelectFollowUp ignores the response.
func (n *SimpleNode) SelectFollowUp(evidence.Response) (Node, error) {
	return n.followUp, nil
}

func (*SimpleNode) sealed() {}

// MultipleChoiceNode branches on the answer to a multiple-choice question.
type MultipleChoiceNode struct {
	id        string
	request   evidence.QuestionMultipleChoiceRequest
	followUps map[string]Node
}

func (n *MultipleChoiceNode) ID() string { return n.id }

func (n *MultipleChoiceNode) Requests() []evidence.Request {
	return []evidence.Request{n.request}
}

func (n *MultipleChoiceNode) FollowUps() []Node {
	var nodes []Node
	for _, id := range n.request.ChoiceIDs() {
		nodes = appendDistinct(nodes, n.followUps[id])
	}
	return nodes
}

// SelectFollowUp returns the branch registered for the answer, or nil when
// that branch ends the workflow. An answer that was not offered is an
// InvalidAnswerError even if the node has a single branch.
func (n *MultipleChoiceNode) SelectFollowUp(response evidence.Response) (Node, error) {
	var answer string
	switch r := response.(type) {
	case evidence.QuestionMultipleChoiceResponse:
		answer = r.AnswerID
	case *evidence.QuestionMultipleChoiceResponse:
		answer = r.AnswerID
	default:
		return nil, &ResponseKindError{NodeID: n.id, Want: evidence.KindQuestionMultipleChoice, Got: kindOf(response)}
	}
	if !n.request.HasChoice(answer) {
		return nil, &InvalidAnswerError{NodeID: n.id, Answer: answer}
	}
	return n.followUps[answer], nil
}

func (*MultipleChoiceNode) sealed() {}

// IcaoNfcTunnelNode reads a passport chip through an NFC tunnel and branches
// on the anti-cloning authentication the chip passed.
type IcaoNfcTunnelNode struct {
	id         string
	dataGroups []int
	chip       Node
	active     Node
	none       Node
}

func (n *IcaoNfcTunnelNode) ID() string { return n.id }

// DataGroups are the data groups the tunnel reads from the chip.
func (n *IcaoNfcTunnelNode) DataGroups() []int {
	return append([]int(nil), n.dataGroups...)
}

// Requests always starts the tunnel with a handshake.
func (n *IcaoNfcTunnelNode) Requests() []evidence.Request {
	return []evidence.Request{evidence.IcaoNfcTunnelRequest{Type: evidence.IcaoNfcTunnelHandshake}}
}

func (n *IcaoNfcTunnelNode) FollowUps() []Node {
	var nodes []Node
	for _, node := range []Node{n.active, n.chip, n.none} {
		nodes = appendDistinct(nodes, node)
	}
	return nodes
}

func (n *IcaoNfcTunnelNode) SelectFollowUp(response evidence.Response) (Node, error) {
	var authentication evidence.AuthenticationType
	switch r := response.(type) {
	case evidence.IcaoNfcTunnelResultResponse:
		authentication = r.AdvancedAuthentication
	case *evidence.IcaoNfcTunnelResultResponse:
		authentication = r.AdvancedAuthentication
	default:
		return nil, &ResponseKindError{NodeID: n.id, Want: evidence.KindIcaoNfcTunnelResult, Got: kindOf(response)}
	}

	switch authentication {
	case evidence.AuthenticationNone:
		return n.none, nil
	case evidence.AuthenticationChip:
		return n.chip, nil
	case evidence.AuthenticationActive:
		return n.active, nil
	}
	return nil, &InvalidAnswerError{NodeID: n.id, Answer: string(authentication)}
}

func (*IcaoNfcTunnelNode) sealed() {}

func appendDistinct(nodes []Node, node Node) []Node {
	if node == nil {
		return nodes
	}
	for _, n := range nodes {
		if n == node {
			return nodes
		}
	}
	return append(nodes, node)
}
